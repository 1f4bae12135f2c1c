package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/handiism/comic-downloader/internal/config"
	"github.com/handiism/comic-downloader/internal/download"
	"github.com/handiism/comic-downloader/internal/history"
	"github.com/handiism/comic-downloader/internal/http"
	"github.com/handiism/comic-downloader/internal/source"
	"github.com/handiism/comic-downloader/internal/tui"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "Path to config file")
	flag.Parse()

	if err := run(*configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	settings, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	logFile := setupLogging(settings)
	defer logFile.Close()

	client := source.NewClient(http.NewClient(), settings.APIDomain, settings.Token,
		source.WithLibrary(settings.DownloadDir))

	opts := []download.Option{download.WithLogger(slog.Default())}
	if settings.HistoryPath != "" {
		store, err := history.Open(settings.HistoryPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		opts = append(opts, download.WithRecorder(store))
	}

	events, sink := tui.EventSink()
	manager := download.NewManager(settings, client, sink, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Run(ctx)

	runErr := tui.Run(settings, manager, client, events)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		slog.Warn("tasks did not stop in time", "err", err)
	}
	return runErr
}

// setupLogging sends logs to a rotating file, since the terminal belongs to
// the UI. Logging is discarded when the file logger is disabled.
func setupLogging(settings *config.Settings) io.Closer {
	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	var w io.WriteCloser = nopCloser{io.Discard}
	if settings.EnableFileLogger {
		w = &lumberjack.Logger{
			Filename:   filepath.Join(config.Dir(), "logs", "comic-tui.log"),
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return w
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
