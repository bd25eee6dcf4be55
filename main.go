package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"golang.org/x/term"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/tishell/tish/config"
	"github.com/tishell/tish/history"
	"github.com/tishell/tish/shell"
	"github.com/tishell/tish/terminal"
)

var version = "0.1.0"

type runCmd struct{}

type versionCmd struct{}

var cli struct {
	Run     runCmd     `cmd:"" default:"1" help:"Run the interactive shell"`
	Version versionCmd `cmd:"version" help:"Print version information"`

	Config  string `short:"c" help:"Path to config file" type:"path"`
	History string `help:"Override history file path" type:"path"`
	Debug   bool   `help:"Enable debug logging"`
}

// initLogger routes diagnostics to a rotating file. Nothing may log to
// the terminal itself; the screen belongs to the raw-mode session.
func initLogger(cfg config.Config) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return fmt.Errorf("log directory: %w", err)
	}

	level := slog.LevelInfo
	switch {
	case cli.Debug || cfg.Log.Level == "debug":
		level = slog.LevelDebug
	case cfg.Log.Level == "warn":
		level = slog.LevelWarn
	case cfg.Log.Level == "error":
		level = slog.LevelError
	}

	out := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.Backups,
		MaxAge:     cfg.Log.MaxDays,
		Compress:   cfg.Log.Compress,
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})))
	return nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("tish"),
		kong.Description("A tiny interactive shell."),
	)

	if ctx.Command() == "version" {
		fmt.Printf("tish %s\n", version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tish: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := cli.Config
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cli.History != "" {
		cfg.HistoryFile = cli.History
	}

	if err := initLogger(cfg); err != nil {
		return err
	}
	log := slog.Default()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		log.Info("stdin is not a terminal, running non-interactively")
		return shell.NewScript(cfg, log).Run(os.Stdin)
	}

	histFile, err := os.OpenFile(cfg.HistoryFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("history file: %w", err)
	}
	defer histFile.Close()

	tty, err := terminal.Open(terminal.DefaultPath)
	if err != nil {
		return err
	}
	// Raw mode must come off before any stack trace hits the screen.
	defer func() { shell.HandleCrash(tty, recover()) }()
	defer tty.Restore()

	log.Info("session start", "version", version, "history", cfg.HistoryFile)
	sess := shell.New(cfg, tty, history.New(histFile, history.WithMaxScan(cfg.MaxScanBytes)), log)
	err = sess.Run()
	log.Info("session end", "error", err)
	return err
}
