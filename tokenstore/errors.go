package tokenstore

import (
	"errors"
	"regexp"
)

// ErrInvalidKey is returned for store keys that cannot name a file or row
var ErrInvalidKey = errors.New("invalid token store key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

func validKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}
