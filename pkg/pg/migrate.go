package pg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// goose keeps its settings in package globals.
var migrateMu sync.Mutex

// Migrate applies every pending goose migration found at the root of
// migrations, usually an embed.FS.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, cfg Config, log *slog.Logger) error {
	log = logger.OrDiscard(log)

	migrateMu.Lock()
	defer migrateMu.Unlock()

	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			log.LogAttrs(ctx, slog.LevelError, "Failed to close migration connection", logger.Error(err))
		}
	}()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{ctx: ctx, log: log})
	if cfg.MigrationsTable != "" {
		goose.SetTableName(cfg.MigrationsTable)
	}
	if err := goose.SetDialect(string(goose.DialectPostgres)); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

// gooseLogger routes goose output to slog.
type gooseLogger struct {
	ctx context.Context
	log *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.LogAttrs(g.ctx, slog.LevelInfo, strings.TrimSpace(fmt.Sprintf(format, v...)), logger.Component("migrate"))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.LogAttrs(g.ctx, slog.LevelError, strings.TrimSpace(fmt.Sprintf(format, v...)), logger.Component("migrate"))
}
