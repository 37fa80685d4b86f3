package tokenstore

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/s0up4200/osuapi/auth"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLStore)(nil)
)

// Store is a credential store that may hold a database connection.
type Store interface {
	auth.Store
	io.Closer
}

// Options selects and configures a backend for Open.
type Options struct {
	Driver string // memory, file, sqlite or postgres
	Path   string // directory for the file driver
	DSN    string // data source for sqlite and postgres
	Key    string
}

// Open builds the store described by opts. SQL backends get their schema
// created. The caller closes the returned Store.
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (Store, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(opts.Path, opts.Key, logger)
	case "sqlite", "postgres":
		db, err := OpenDB(opts.Driver, opts.DSN)
		if err != nil {
			return nil, err
		}
		store, err := NewSQLStore(db, opts.Key, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := store.CreateSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported token store driver: %q", opts.Driver)
	}
}
