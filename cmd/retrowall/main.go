// cmd/retrowall/main.go
//
// This is the entry point for the Retro Wall kiosk.
//
// Flow:
// 1. Load configuration (defaults, retrowall.yaml, RETROWALL_* env)
// 2. With -init, write the default config and empty stores, then exit
// 3. Otherwise open the stores and run the TUI until the operator exits

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/kingrea/retro-wall/internal/config"
	"github.com/kingrea/retro-wall/internal/feedback"
	"github.com/kingrea/retro-wall/internal/logbook"
	"github.com/kingrea/retro-wall/internal/logging"
	"github.com/kingrea/retro-wall/internal/moderation"
	"github.com/kingrea/retro-wall/internal/reconcile"
	"github.com/kingrea/retro-wall/internal/store"
	"github.com/kingrea/retro-wall/internal/tui"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	mode := flag.String("mode", string(tui.ModeKiosk), "start screen: kiosk or admin")
	configPath := flag.String("config", "", "path to the YAML config (defaults to ./"+config.DefaultFile+" when present)")
	dataDir := flag.String("data", "", "directory holding the quote files (overrides store.dir)")
	initOnly := flag.Bool("init", false, "write the default config and empty quote files, then exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("retrowall", version)
		return
	}
	if *mode != string(tui.ModeKiosk) && *mode != string(tui.ModeAdmin) {
		die("-mode must be kiosk or admin, got %q", *mode)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		die("%v", err)
	}
	cfg.SetDataDir(*dataDir)
	if err := cfg.Validate(); err != nil {
		die("%v", err)
	}

	if *initOnly {
		if err := initialize(cfg, *configPath); err != nil {
			die("%v", err)
		}
		return
	}

	if err := run(cfg, tui.Mode(*mode)); err != nil {
		die("%v", err)
	}
}

// initialize lays down a working data directory next to a default config.
func initialize(cfg *config.Config, configPath string) error {
	if configPath == "" {
		configPath = config.DefaultFile
	}
	written, err := config.WriteDefault(configPath, *cfg)
	if err != nil {
		return err
	}
	if written {
		fmt.Printf("Wrote %s\n", configPath)
	} else {
		fmt.Printf("Kept existing %s\n", configPath)
	}
	if err := config.InitDataDir(cfg); err != nil {
		return err
	}
	stores := store.NewSet(cfg.Store.Dir, cfg.StoreFileNames())
	if err := stores.Ensure(); err != nil {
		return err
	}
	fmt.Printf("Quote files ready in %s\n", cfg.Store.Dir)
	return nil
}

func run(cfg *config.Config, mode tui.Mode) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("retrowall needs an interactive terminal")
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Journal:    cfg.Log.Journal,
		Path:       cfg.LogFilePath(),
		MaxSizeMB:  cfg.Log.File.MaxSizeMB,
		MaxBackups: cfg.Log.File.MaxBackups,
		MaxAgeDays: cfg.Log.File.MaxAgeDays,
		Compress:   cfg.Log.File.Compress,
	})
	if err != nil {
		return err
	}
	defer logger.Close()
	logger.Info("starting",
		"version", version,
		"mode", string(mode),
		"config", cfg.Source,
		"data", cfg.Store.Dir,
	)

	audit, err := logbook.New(cfg.ModerationLogPath())
	if err != nil {
		return err
	}

	sink, err := feedback.FromConfig(feedback.Options{
		Mode:         feedback.Mode(cfg.Feedback.Mode),
		GPIOPin:      cfg.Feedback.GPIOPin,
		BeepDuration: cfg.Feedback.BeepDuration,
		Logger:       logger.Logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("close feedback", "error", err)
		}
	}()

	stores := store.NewSet(cfg.Store.Dir, cfg.StoreFileNames())
	board, err := moderation.Open(stores,
		moderation.WithFeedback(sink),
		moderation.WithLogbook(audit),
		moderation.WithLogger(logger.Logger),
		moderation.WithWelcome(cfg.Welcome()),
		moderation.WithLimits(cfg.Limits()),
	)
	if err != nil {
		logger.Error("open stores", "error", err)
		return err
	}
	engine := reconcile.New(board,
		reconcile.WithLogger(logger.Logger),
		reconcile.WithLogbook(audit),
	)

	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width, height = 0, 0
	}

	app := tui.NewApp(board, engine, tui.Options{
		Mode:              mode,
		Title:             cfg.Kiosk.Title,
		ReconcileInterval: cfg.Kiosk.ReconcileInterval,
		PollTimeout:       cfg.Kiosk.PollTimeout,
		NoticeDuration:    cfg.Kiosk.NoticeDuration,
		RotateInterval:    cfg.Kiosk.RotateInterval,
		TypewriterDelay:   cfg.Kiosk.TypewriterDelay,
		ExitKey:           cfg.Kiosk.ExitKey,
		Limits:            cfg.Limits(),
		Logbook:           audit,
		Logger:            logger.Logger,
		Width:             width,
		Height:            height,
	})

	// Interrupts never end the kiosk. SIGTERM or SIGHUP from a supervisor does.
	signal.Ignore(os.Interrupt)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			logger.Info("terminated")
			return nil
		}
		return fmt.Errorf("run tui: %w", err)
	}
	if err := app.Err(); err != nil {
		return err
	}
	logger.Info("stopped", "exit_requested", app.ExitRequested())
	return nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "retrowall: "+format+"\n", args...)
	os.Exit(1)
}
