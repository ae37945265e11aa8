package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/hlsget/hls-downloader/internal/browser"
	"github.com/hlsget/hls-downloader/internal/config"
	"github.com/hlsget/hls-downloader/internal/download"
	"github.com/hlsget/hls-downloader/internal/fetch"
	"github.com/hlsget/hls-downloader/internal/model"
	"github.com/hlsget/hls-downloader/internal/platform"
	"github.com/hlsget/hls-downloader/internal/resolve"
	"github.com/hlsget/hls-downloader/internal/slogpretty"
	"github.com/hlsget/hls-downloader/internal/store"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const usageText = `Usage: hls-downloader [flags] <command> [args]

Commands:
  get <page-url>     resolve the stream for a page and download it
  list               show all tasks and their progress
  resume <task-id>   restart a paused or failed task
  cancel <task-id>   cancel a task, deleting its row and files

Flags:
`

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "path to the YAML config file")
	explicitURL := flag.String("url", "", "explicit manifest URL, skips source resolution")
	title := flag.String("title", "", "title used for the saved directory")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Debug("starting", slog.String("version", version), slog.String("env", cfg.Env))

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, *explicitURL, *title, flag.Args()); err != nil {
		log.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, explicitURL, title string, args []string) error {
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	defer st.Close()

	clientOpts := []fetch.Option{fetch.WithTimeout(cfg.HTTP.Timeout)}
	if cfg.HTTP.UserAgent != "" {
		clientOpts = append(clientOpts, fetch.WithHeaders(map[string]string{
			fetch.HeaderUserAgent: cfg.HTTP.UserAgent,
		}))
	}
	client := fetch.NewClient(clientOpts...)
	svc := download.NewService(st, client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd := args[0]; cmd {
	case "get":
		if len(args) < 2 {
			return errors.New("get requires a page URL")
		}
		resolver := resolve.NewResolver(client, browser.NewScriptWatcher(client), resolve.Config{
			MaxRetries:    cfg.Resolver.MaxRetries,
			RaceTimeout:   cfg.Resolver.RaceTimeout,
			SettleTimeout: cfg.Resolver.SettleTimeout,
			CacheTTL:      cfg.Resolver.CacheTTL,
			PageURL:       func(itemID string) string { return itemID },
		})
		sweeper := time.NewTicker(cfg.Resolver.CacheTTL)
		defer sweeper.Stop()
		go func() {
			for range sweeper.C {
				resolver.SweepCache()
			}
		}()
		return runGet(ctx, cfg, st, svc, resolver, args[1], explicitURL, title)
	case "list":
		return runList(st)
	case "resume":
		if len(args) < 2 {
			return errors.New("resume requires a task id")
		}
		return runResume(ctx, st, svc, args[1])
	case "cancel":
		if len(args) < 2 {
			return errors.New("cancel requires a task id")
		}
		return svc.Cancel(args[1])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// runGet resolves a stream URL for the page, registers a task and downloads
// it to completion. An interrupt pauses the task instead of killing it.
func runGet(ctx context.Context, cfg *config.Config, st *store.TaskStore, svc *download.Service, resolver *resolve.Resolver, pageURL, explicitURL, title string) error {
	src, err := resolver.Resolve(ctx, pageURL, explicitURL)
	if err != nil {
		return fmt.Errorf("source resolution failed: %w", err)
	}
	slog.Info("source resolved",
		slog.String("kind", string(src.Kind)),
		slog.Int("attempts", src.Attempts),
		slog.Duration("elapsed", src.Elapsed))

	if title == "" {
		title = pageURL
	}
	videoID := shortID(pageURL)
	savePath := platform.TaskSavePath(cfg.DownloadDir, title, videoID)
	if err := platform.CreateDirectoryIfNotExists(savePath); err != nil {
		return err
	}

	task, err := svc.AddTask(videoID, title, pageURL, src.URL, savePath)
	if errors.Is(err, download.ErrDuplicateTask) {
		existing, lookupErr := st.GetByVideoID(videoID)
		if lookupErr != nil {
			return err
		}
		fmt.Println("task already known, resuming:", existing.ID)
		return runResume(ctx, st, svc, existing.ID)
	}
	if err != nil {
		return err
	}

	if err := svc.Start(task.ID); err != nil {
		return err
	}
	return waitForTask(ctx, st, svc, task.ID)
}

func runResume(ctx context.Context, st *store.TaskStore, svc *download.Service, taskID string) error {
	if err := svc.Resume(taskID); err != nil {
		return err
	}
	return waitForTask(ctx, st, svc, taskID)
}

// waitForTask blocks until the job finishes, pausing it on interrupt, then
// prints the final task state.
func waitForTask(ctx context.Context, st *store.TaskStore, svc *download.Service, taskID string) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			slog.Info("interrupt received, pausing", slog.String("task", taskID))
			if err := svc.Pause(taskID); err != nil {
				slog.Warn("pause failed", slog.Any("error", err))
			}
		case <-done:
		}
	}()

	svc.Wait()
	close(done)

	task, err := st.GetByID(taskID)
	if err != nil {
		return err
	}
	printTask(task)
	if task.Status == model.TaskStatusFailed {
		return fmt.Errorf("download failed: %s", task.ErrorMessage)
	}
	return nil
}

func runList(st *store.TaskStore) error {
	tasks, err := st.ListByStatus()
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}
	for _, task := range tasks {
		printTask(task)
	}
	return nil
}

func printTask(task *model.DownloadTask) {
	status := string(task.Status)
	switch task.Status {
	case model.TaskStatusCompleted:
		status = color.GreenString(status)
	case model.TaskStatusFailed:
		status = color.RedString(status)
	case model.TaskStatusDownloading:
		status = color.CyanString(status)
	case model.TaskStatusPaused:
		status = color.YellowString(status)
	}

	fmt.Printf("%s  %-12s %6.2f%%  %s  %s\n",
		task.ID, status, task.Progress, task.GetSpeedString(), task.GetDisplayTitle())
	if task.ErrorMessage != "" {
		fmt.Printf("    error: %s\n", task.ErrorMessage)
	}
}

// shortID derives a stable filesystem-safe id from the page URL.
func shortID(pageURL string) string {
	sum := sha256.Sum256([]byte(pageURL))
	return fmt.Sprintf("%x", sum[:6])
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		opts := slogpretty.PrettyHandlerOptions{
			SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
		}
		return slog.New(opts.NewPrettyHandler(os.Stdout))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
