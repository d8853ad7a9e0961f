package warehouse

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ajitpratap0/i94dw/pkg/errors"
)

// Session executes statements against the warehouse. Each Exec is committed
// before it returns.
type Session interface {
	Exec(ctx context.Context, stmt string) error
	Close(ctx context.Context) error
}

// pgConn is the subset of *pgx.Conn the session uses.
type pgConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

type pgxSession struct {
	conn pgConn
}

// ConnConfig parses dsn into a pgx configuration that speaks the simple query
// protocol. Redshift does not support the extended protocol's statement
// cache.
func ConnConfig(dsn string) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid warehouse connection string")
	}
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	cfg.StatementCacheCapacity = 0
	cfg.DescriptionCacheCapacity = 0
	return cfg, nil
}

// Connect opens one connection to the warehouse.
func Connect(ctx context.Context, dsn string) (Session, error) {
	cfg, err := ConnConfig(dsn)
	if err != nil {
		return nil, err
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to warehouse").
			WithDetail("host", cfg.Host).
			WithDetail("database", cfg.Database)
	}
	return newPgxSession(conn), nil
}

func newPgxSession(conn pgConn) *pgxSession {
	return &pgxSession{conn: conn}
}

// Exec runs stmt in its own transaction.
func (s *pgxSession) Exec(ctx context.Context, stmt string) error {
	return pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt)
		return err
	})
}

func (s *pgxSession) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
