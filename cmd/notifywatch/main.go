// Command notifywatch follows a user's notifications from the terminal. It
// keeps a synchronized local copy and prints it on every change.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/notifystream/pkg/config"
	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/syncclient"
)

type watchConfig struct {
	Token    string `env:"NOTIFY_TOKEN,required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer) error {
	var (
		wcfg watchConfig
		scfg syncclient.Config
	)
	if err := errors.Join(config.Load(&wcfg), config.Load(&scfg)); err != nil {
		return err
	}

	log := logger.New(
		logger.WithTextFormatter(),
		logger.WithLevelName(wcfg.LogLevel),
		logger.WithOutput(os.Stderr),
	)

	cache := syncclient.NewCache(syncclient.WithChangeHandler(func(s syncclient.Snapshot) {
		render(out, s)
	}))
	_, stream := syncclient.NewFromConfig(scfg, syncclient.StaticToken(wcfg.Token), nil, log,
		func(op string, err error) {
			log.LogAttrs(ctx, slog.LevelWarn, "Action failed", slog.String("op", op), logger.Error(err))
		},
		syncclient.WithCache(cache),
	)
	defer stream.Close()

	if err := stream.Run(ctx); err != nil {
		return fmt.Errorf("notification stream: %w", err)
	}
	return nil
}

var renderMu sync.Mutex

func render(out io.Writer, s syncclient.Snapshot) {
	renderMu.Lock()
	defer renderMu.Unlock()

	fmt.Fprintf(out, "\n%d unread\n", s.Unread)
	for _, n := range s.Items {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(out, "%s #%-6d %s  %s: %s\n", mark, n.ID, n.CreatedAt.Local().Format(time.DateTime), n.Title, n.Message)
	}
}
