package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/handiism/comic-downloader/internal/api"
	"github.com/handiism/comic-downloader/internal/config"
	"github.com/handiism/comic-downloader/internal/download"
	"github.com/handiism/comic-downloader/internal/history"
	"github.com/handiism/comic-downloader/internal/http"
	"github.com/handiism/comic-downloader/internal/metrics"
	"github.com/handiism/comic-downloader/internal/model"
	"github.com/handiism/comic-downloader/internal/source"
)

const historyRetention = 90 * 24 * time.Hour

func main() {
	// Command line flags
	var (
		comicFlag    = flag.String("comic", "", "Comic path word to download")
		groupFlag    = flag.String("group", "default", "Chapter group path word")
		chaptersFlag = flag.String("chapters", "", "Chapter UUIDs or orders to download (comma-separated, default: every chapter not yet downloaded)")
		configFlag   = flag.String("config", config.DefaultPath(), "Path to config file")
		outputFlag   = flag.String("output", "", "Download directory (overrides config)")
		formatFlag   = flag.String("format", "", "Page format: webp or jpeg (overrides config)")
		serveFlag    = flag.String("serve", "", "Serve the control API on this address, e.g. :8080")
		verboseFlag  = flag.Bool("verbose", false, "Show verbose output")
		dryRunFlag   = flag.Bool("dry-run", false, "List chapters without downloading")
	)

	flag.Parse()

	if *comicFlag == "" && flag.NArg() > 0 {
		*comicFlag = flag.Arg(0)
	}

	if *comicFlag == "" && *serveFlag == "" {
		fmt.Println("Comic Downloader - Download comic chapters")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  comic-dl -comic <path word> [options]")
		fmt.Println("  comic-dl <path word> [options]")
		fmt.Println("  comic-dl -serve :8080")
		fmt.Println()
		fmt.Println("For interactive mode, use: comic-tui")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	settings, err := config.LoadWithEnv(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply flags
	if *outputFlag != "" {
		settings.DownloadDir = *outputFlag
	}
	if *formatFlag != "" {
		settings.DownloadFormat = config.DownloadFormat(strings.ToLower(*formatFlag))
	}
	if *serveFlag != "" {
		settings.ListenAddr = *serveFlag
	}
	if *verboseFlag {
		settings.LogLevel = "debug"
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error in config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(settings.LogLevel)

	if err := run(settings, *comicFlag, *groupFlag, *chaptersFlag, *verboseFlag, *dryRunFlag); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("\nDownload cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(settings *config.Settings, pathWord, group, chapters string, verbose, dryRun bool) error {
	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	client := source.NewClient(http.NewClient(), settings.APIDomain, settings.Token,
		source.WithLibrary(settings.DownloadDir))

	fmt.Println("📚 Comic Downloader")
	fmt.Println(strings.Repeat("━", 40))
	fmt.Println()

	var comic *model.Comic
	var selected []model.ChapterInfo
	if pathWord != "" {
		var err error
		comic, err = client.FetchComic(ctx, pathWord)
		if err != nil {
			return fmt.Errorf("fetch comic %s: %w", pathWord, err)
		}
		selected, err = selectChapters(comic, group, chapters)
		if err != nil {
			return err
		}
		printComic(comic, group, selected)
	}

	if dryRun {
		fmt.Println("\n[Dry run - not downloading]")
		return nil
	}

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	var hub *api.Hub
	if settings.ListenAddr != "" {
		hub = api.NewHub(slog.Default())
	}

	opts := []download.Option{download.WithLogger(slog.Default())}
	var store *history.Store
	if settings.HistoryPath != "" {
		var err error
		store, err = history.Open(settings.HistoryPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		opts = append(opts, download.WithRecorder(store))
	}

	manager := download.NewManager(settings, client, func(e download.Event) {
		printEvent(e, verbose)
		if hub != nil {
			hub.Publish(e)
		}
	}, opts...)
	go manager.Run(ctx)

	if len(selected) > 0 {
		fmt.Printf("\n📥 Downloading %d chapter(s)...\n\n", len(selected))
	}
	for _, ch := range selected {
		if err := manager.CreateTask(comic, ch.ChapterUUID); err != nil {
			slog.Warn("failed to create task", "chapter", ch.ChapterTitle, "err", err)
		}
	}

	if settings.ListenAddr != "" {
		return serve(ctx, settings.ListenAddr, manager, client, store, hub, reg)
	}

	waitErr := manager.Wait(ctx)
	shutdown(manager)
	if waitErr != nil {
		return waitErr
	}

	printSummary(manager)
	return nil
}

// selectChapters picks the chapters of group named by spec, a comma
// separated list of chapter UUIDs or orders. An empty spec selects every
// chapter not downloaded yet.
func selectChapters(comic *model.Comic, group, spec string) ([]model.ChapterInfo, error) {
	g, ok := comic.Groups[group]
	if !ok {
		return nil, fmt.Errorf("comic %s has no group %q (available: %s)", comic.PathWord, group, strings.Join(comic.GroupKeys(), ", "))
	}

	if strings.TrimSpace(spec) == "" {
		var out []model.ChapterInfo
		for _, ch := range g.Chapters {
			if !ch.IsDownloaded {
				out = append(out, ch)
			}
		}
		return out, nil
	}

	wanted := make(map[string]bool)
	for _, s := range strings.Split(spec, ",") {
		if s = strings.TrimSpace(s); s != "" {
			wanted[s] = true
		}
	}

	var out []model.ChapterInfo
	for _, ch := range g.Chapters {
		if wanted[ch.ChapterUUID] || wanted[ch.OrderString()] {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no chapter of group %q matches %q", group, spec)
	}
	return out, nil
}

func serve(ctx context.Context, addr string, manager *download.Manager, client *source.Client, store *history.Store, hub *api.Hub, reg *prometheus.Registry) error {
	opts := []api.Option{api.WithHub(hub), api.WithGatherer(reg), api.WithLogger(slog.Default())}
	if store != nil {
		opts = append(opts, api.WithHistory(store))
		go startHistoryCleanup(ctx, store)
	}

	server := &stdhttp.Server{
		Addr:              addr,
		Handler:           api.NewServer(manager, client, opts...).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Control API listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		shutdown(manager)
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Failed to shut down server gracefully", "err", err)
	}
	shutdown(manager)

	slog.Info("Server shutdown complete")
	return nil
}

func shutdown(manager *download.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := manager.Shutdown(ctx); err != nil {
		slog.Warn("Tasks did not stop in time", "err", err)
	}
}

// startHistoryCleanup prunes old history entries once on startup and then daily.
func startHistoryCleanup(ctx context.Context, store *history.Store) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		n, err := store.Prune(ctx, historyRetention)
		if err != nil {
			slog.Error("Failed to prune history", "err", err)
		} else if n > 0 {
			slog.Info("Pruned history", "entries", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// setupLogging configures structured logging based on the log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func printComic(comic *model.Comic, group string, selected []model.ChapterInfo) {
	fmt.Printf("ℹ️  %s by %s (%s)\n", comic.Name, comic.AuthorNames(), comic.Status.Display())
	for _, key := range comic.GroupKeys() {
		g := comic.Groups[key]
		marker := "  "
		if key == group {
			marker = "▶ "
		}
		fmt.Printf("   %s%s: %d chapter(s)\n", marker, g.Name, len(g.Chapters))
	}
	for _, ch := range selected {
		fmt.Printf("   • %s %s\n", ch.OrderString(), ch.ChapterTitle)
	}
	if len(selected) == 0 {
		fmt.Println("✅ Nothing to download")
	}
}

func printEvent(e download.Event, verbose bool) {
	switch e := e.(type) {
	case download.TaskUpdateEvent:
		switch e.State {
		case download.StateCompleted:
			fmt.Printf("✅ %s: %d page(s)\n", e.ChapterUUID, e.Total)
		case download.StateFailed:
			fmt.Printf("❌ %s: %s\n", e.ChapterUUID, e.Err)
		case download.StateCancelled:
			fmt.Printf("⚠️  %s: cancelled at %d/%d\n", e.ChapterUUID, e.Downloaded, e.Total)
		default:
			if verbose {
				fmt.Printf("   %s: %s %d/%d\n", e.ChapterUUID, e.State, e.Downloaded, e.Total)
			}
		}
	case download.RiskControlEvent:
		if e.RetryAfter == 59 || (verbose && e.RetryAfter%10 == 0) {
			fmt.Printf("⚠️  %s: risk control, retrying in %ds\n", e.ChapterUUID, e.RetryAfter)
		}
	case download.SleepingEvent:
		if verbose {
			fmt.Printf("   %s: next chapter in %ds\n", e.ChapterUUID, e.Remaining)
		}
	case download.SpeedEvent:
		if verbose && e.BytesPerSec > 0 {
			fmt.Printf("   ⚡ %s\n", e.Speed)
		}
	}
}

func printSummary(manager *download.Manager) {
	var completed, failed int
	tasks := manager.Tasks()
	for _, t := range tasks {
		switch t.State {
		case download.StateCompleted:
			completed++
		case download.StateFailed:
			failed++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("━", 40))
	fmt.Printf("✨ Complete! %d/%d chapter(s) downloaded (%s)\n", completed, len(tasks), humanize.IBytes(uint64(manager.TotalBytes())))
	if failed > 0 {
		fmt.Printf("   %d chapter(s) failed\n", failed)
	}
}
