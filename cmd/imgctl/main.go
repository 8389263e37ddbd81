// Package main provides imgctl - a command-line caller of the image-transformation backend
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/UnendingLoop/ImageOrchestrator/internal/appconfig"
	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/wb-go/wbf/zlog"
)

const usage = `usage: imgctl <command> [flags]

commands:
  resize    resize one image
  process   apply resize/crop/watermark to one image in a single call
  batch     resize several images in one call
  health    show backend health
  download  save a result locally (and to the archive when configured)
  history   list stored results, or show one with -id
  watch     print result events from the queue
`

type command func(ctx context.Context, cfg *appconfig.Config, args []string, out io.Writer) error

var commands = map[string]command{
	"resize":   runResize,
	"process":  runProcess,
	"batch":    runBatch,
	"health":   runHealth,
	"download": runDownload,
	"history":  runHistory,
	"watch":    runWatch,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	// инициализировать конфиг/ считать энвы
	src, err := appconfig.FromEnv("./.env")
	if err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}
	cfg, err := appconfig.Load(src)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, cfg, os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case model.IsKind(err, model.KindValidation), errors.Is(err, errUsage):
		return 2
	default:
		return 1
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
