package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"aira/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const propertyColumns = `id, name, description, location, image_url, total_shares, price, yield, shares_available`

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS properties (
		seq              BIGSERIAL,
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL DEFAULT '',
		description      TEXT NOT NULL DEFAULT '',
		location         TEXT NOT NULL DEFAULT '',
		image_url        TEXT NOT NULL DEFAULT '',
		total_shares     INTEGER NOT NULL CHECK (total_shares > 0),
		price            TEXT NOT NULL DEFAULT '',
		yield            TEXT NOT NULL DEFAULT '',
		shares_available INTEGER NOT NULL,
		embedding        vector,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (shares_available >= 0 AND shares_available <= total_shares)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id             UUID PRIMARY KEY,
		wallet_address TEXT NOT NULL,
		address_key    TEXT NOT NULL UNIQUE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS auth_nonces (
		nonce      TEXT PRIMARY KEY,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
}

// PostgresRepository handles database operations for properties, users and
// login nonces
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing connection
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Migrate creates the schema if it does not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// List returns every property, newest first
func (r *PostgresRepository) List(ctx context.Context) ([]model.Property, error) {
	properties := []model.Property{}
	query := `SELECT ` + propertyColumns + ` FROM properties ORDER BY seq DESC`
	if err := r.db.SelectContext(ctx, &properties, query); err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

// Get retrieves a single property by its id
func (r *PostgresRepository) Get(ctx context.Context, id string) (*model.Property, error) {
	var p model.Property
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &p, nil
}

// Append inserts p, failing with ErrDuplicateProperty when the id exists
func (r *PostgresRepository) Append(ctx context.Context, p model.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO properties (` + propertyColumns + `)
		VALUES (:id, :name, :description, :location, :image_url, :total_shares, :price, :yield, :shares_available)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateProperty, p.ID)
	}
	return nil
}

// SetEmbedding stores the description embedding for a property
func (r *PostgresRepository) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	query := `UPDATE properties SET embedding = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, vec, id); err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return nil
}

// Similar returns the properties whose embeddings are closest (cosine) to id's.
// Returns an empty list when id has no embedding.
func (r *PostgresRepository) Similar(ctx context.Context, id string, limit int) ([]model.Property, error) {
	properties := []model.Property{}
	query := `
		WITH target AS (SELECT embedding FROM properties WHERE id = $1 AND embedding IS NOT NULL)
		SELECT p.id, p.name, p.description, p.location, p.image_url,
			p.total_shares, p.price, p.yield, p.shares_available
		FROM properties p, target t
		WHERE p.id <> $1 AND p.embedding IS NOT NULL
		ORDER BY p.embedding <=> t.embedding
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &properties, query, id, limit); err != nil {
		return nil, fmt.Errorf("failed to search similar properties: %w", err)
	}
	return properties, nil
}

// FindOrCreate returns the user for address, inserting it on first login
func (r *PostgresRepository) FindOrCreate(ctx context.Context, address string) (*model.User, error) {
	insert := `
		INSERT INTO users (id, wallet_address, address_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (address_key) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), address, strings.ToLower(address)); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user, err := r.FindByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s vanished after insert", address)
	}
	return user, nil
}

// FindByAddress looks a user up case-insensitively
func (r *PostgresRepository) FindByAddress(ctx context.Context, address string) (*model.User, error) {
	var u model.User
	query := `SELECT id, wallet_address, created_at FROM users WHERE address_key = $1`
	err := r.db.GetContext(ctx, &u, query, strings.ToLower(address))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Put records an issued nonce
func (r *PostgresRepository) Put(ctx context.Context, nonce string, ttl time.Duration) error {
	query := `INSERT INTO auth_nonces (nonce, expires_at) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, nonce, time.Now().Add(ttl)); err != nil {
		return fmt.Errorf("failed to store nonce: %w", err)
	}
	return nil
}

// Consume deletes the nonce and reports whether it was still live
func (r *PostgresRepository) Consume(ctx context.Context, nonce string) (bool, error) {
	var expires time.Time
	query := `DELETE FROM auth_nonces WHERE nonce = $1 RETURNING expires_at`
	err := r.db.GetContext(ctx, &expires, query, nonce)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return time.Now().Before(expires), nil
}

// PurgeExpiredNonces deletes nonces past their expiry
func (r *PostgresRepository) PurgeExpiredNonces(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_nonces WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge nonces: %w", err)
	}
	return res.RowsAffected()
}
