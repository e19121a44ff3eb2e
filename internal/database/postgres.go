package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
)

var DB *pgxpool.Pool

func ConnectDB(ctx context.Context, dbUrl string, log *logger.Logger) error {
	config, err := pgxpool.ParseConfig(dbUrl)
	if err != nil {
		return fmt.Errorf("unable to parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	DB, err = pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := DB.Ping(pingCtx); err != nil {
		return fmt.Errorf("unable to ping database: %w", err)
	}

	log.Info("connected to PostgreSQL", "max_conns", config.MaxConns)
	return nil
}

func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}
