package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/s0up4200/osuapi/auth"
)

type credentialRecord struct {
	bun.BaseModel `bun:"table:osu_credentials,alias:oc"`

	StoreKey     string    `bun:"store_key,pk"`
	AccessToken  string    `bun:"access_token,notnull"`
	RefreshToken string    `bun:"refresh_token,notnull"`
	ExpiresAt    time.Time `bun:"expires_at,notnull"`
	Scopes       string    `bun:"scopes,notnull"`
	GrantKind    string    `bun:"grant_kind,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func newCredentialRecord(key string, cred auth.Credential, now time.Time) *credentialRecord {
	scopes := make([]string, 0, len(cred.Scopes))
	for _, s := range cred.Scopes {
		scopes = append(scopes, string(s))
	}
	return &credentialRecord{
		StoreKey:     key,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    cred.ExpiresAt.UTC(),
		Scopes:       strings.Join(scopes, " "),
		GrantKind:    cred.Grant.String(),
		UpdatedAt:    now,
	}
}

func (r *credentialRecord) toDomain() (*auth.Credential, error) {
	grant, err := auth.ParseGrantKind(r.GrantKind)
	if err != nil {
		return nil, err
	}
	return &auth.Credential{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt.UTC(),
		Scopes:       auth.ParseScopes(r.Scopes),
		Grant:        grant,
	}, nil
}

// OpenDB opens a bun database for the sqlite or postgres driver.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("token store dsn is required")
	}
	switch driver {
	case "sqlite":
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres":
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported token store driver: %q", driver)
	}
}

// SQLStore keeps credentials in the osu_credentials table, one row per key.
type SQLStore struct {
	db     *bun.DB
	key    string
	logger zerolog.Logger
}

// NewSQLStore creates a store for key. Call CreateSchema once per database.
func NewSQLStore(db *bun.DB, key string, logger zerolog.Logger) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("token store database is required")
	}
	if err := validKey(key); err != nil {
		return nil, fmt.Errorf("%w: %q", err, key)
	}
	return &SQLStore{
		db:     db,
		key:    key,
		logger: logger.With().Str("component", "tokenstore").Str("key", key).Logger(),
	}, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// CreateSchema creates the credentials table if it does not exist.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*credentialRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create credentials table: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (*auth.Credential, error) {
	var record credentialRecord
	err := s.db.NewSelect().
		Model(&record).
		Where("store_key = ?", s.key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return record.toDomain()
}

// Save upserts the credential row inside a transaction.
func (s *SQLStore) Save(ctx context.Context, cred auth.Credential) error {
	record := newCredentialRecord(s.key, cred, time.Now().UTC())
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(record).
			On("CONFLICT (store_key) DO UPDATE").
			Set("access_token = EXCLUDED.access_token").
			Set("refresh_token = EXCLUDED.refresh_token").
			Set("expires_at = EXCLUDED.expires_at").
			Set("scopes = EXCLUDED.scopes").
			Set("grant_kind = EXCLUDED.grant_kind").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.logger.Debug().Msg("Saved credential")
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*credentialRecord)(nil)).
		Where("store_key = ?", s.key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
