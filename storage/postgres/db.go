// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

const (
	DefaultConnectAttempts = 10
	DefaultConnectDelay    = 2 * time.Second

	uniqueViolation = "23505"
)

var (
	// ErrEmptyURL is returned when Open is called without a connection string.
	ErrEmptyURL = errors.New("database URL is empty")
)

// Option configures Open.
type Option func(*options) error

type options struct {
	attempts int
	delay    time.Duration
	logger   *slog.Logger
}

// WithConnectRetry sets how many times Open tries to reach the server and
// how long it waits between tries.
func WithConnectRetry(attempts int, delay time.Duration) Option {
	return func(o *options) error {
		if attempts <= 0 {
			return fmt.Errorf("connect attempts must be positive, got %d", attempts)
		}
		o.attempts = attempts
		o.delay = delay
		return nil
	}
}

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// connect opens a pool and pings it, retrying until the server answers.
func connect(ctx context.Context, url string, o *options) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= o.attempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				o.logger.Info("connected to database", "attempt", attempt)
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		o.logger.Warn("database connection failed", "attempt", attempt, "max_attempts", o.attempts, "err", err)
		if attempt == o.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to the database after %d attempts: %w", o.attempts, lastErr)
}

// Migrate applies the schema. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
	}
	return nil
}

// translateError maps driver errors onto the storage sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, pgErr.ConstraintName)
	}
	return err
}

// Label IDs are unsigned 64-bit hashes; BIGINT is signed. The conversion is
// a lossless bit reinterpretation.
func toDBID(id core.ID) int64   { return int64(id) }
func fromDBID(id int64) core.ID { return core.ID(id) }
