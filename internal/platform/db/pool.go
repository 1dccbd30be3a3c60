package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// PoolOptions configures the connection pool.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
	// Logger, when set, receives pgx query traces at debug level.
	Logger *zerolog.Logger
}

func NewPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.Logger != nil {
		cfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   zerologTracer{logger: *opts.Logger},
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

type zerologTracer struct {
	logger zerolog.Logger
}

func (t zerologTracer) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	var evt *zerolog.Event
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		evt = t.logger.Debug()
	case tracelog.LogLevelInfo:
		evt = t.logger.Info()
	case tracelog.LogLevelWarn:
		evt = t.logger.Warn()
	case tracelog.LogLevelError:
		evt = t.logger.Error()
	default:
		evt = t.logger.Debug()
	}
	evt.Fields(data).Str("component", "pgx").Msg(msg)
}
