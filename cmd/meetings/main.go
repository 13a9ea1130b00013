package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/go-scripts/meetings/internal/browser"
	"github.com/go-scripts/meetings/internal/config"
	"github.com/go-scripts/meetings/internal/logging"
	"github.com/go-scripts/meetings/internal/metrics"
	"github.com/go-scripts/meetings/internal/progress"
	"github.com/go-scripts/meetings/internal/scraper"
	"github.com/go-scripts/meetings/internal/writer"
)

// CLI flags structure
type CLIFlags struct {
	ConfigFile  string        `help:"Path to YAML configuration file" short:"c" env:"MEETINGS_CONFIG"`
	StartURL    string        `help:"Meeting listing page to scrape" short:"u" env:"MEETINGS_URL"`
	OutputFile  string        `help:"Path to output CSV file" short:"o" env:"MEETINGS_OUTPUT"`
	WaitTimeout time.Duration `help:"How long to wait for the past meetings region" env:"MEETINGS_WAIT_TIMEOUT"`
	SettleTime  time.Duration `help:"Extra delay after the meetings region appears" env:"MEETINGS_SETTLE_TIME"`
	Timeout     time.Duration `help:"Limit for the whole run" env:"MEETINGS_TIMEOUT"`
	Headless    *bool         `help:"Run Chrome without a window" negatable:"" env:"MEETINGS_HEADLESS"`
	ChromePath  string        `help:"Chrome executable to launch" env:"CHROME_PATH"`
	UserAgent   string        `help:"User agent override" env:"MEETINGS_USER_AGENT"`
	LogLevel    string        `help:"Log level (debug, info, warn, error)" env:"MEETINGS_LOG_LEVEL"`
	LogFormat   string        `help:"Log format (text, json, logfmt)" env:"MEETINGS_LOG_FORMAT"`
	LogFile     string        `help:"Also write logs to this file, rotated by size" env:"MEETINGS_LOG_FILE"`
	MetricsFile string        `help:"Write Prometheus metrics to this textfile after each run" env:"MEETINGS_METRICS_FILE"`
	Progress    *bool         `help:"Show a progress spinner" negatable:"" env:"MEETINGS_PROGRESS"`
}

func main() {
	// Values from .env feed the env tags below; a missing file is fine.
	_ = godotenv.Load()

	var flags CLIFlags
	kong.Parse(&flags,
		kong.Name("meetings"),
		kong.Description("Scrape past Boulder County meetings into a CSV file."),
		kong.UsageOnError(),
	)

	os.Exit(run(flags))
}

func run(flags CLIFlags) int {
	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return 1
	}

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		return 1
	}
	defer closer.Close()

	sink, err := writer.New(cfg.OutputFile)
	if err != nil {
		logger.Error("Error preparing output file", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	rec := metrics.New()
	runner := scraper.New(
		scraper.Options{
			URL:         cfg.StartURL,
			WaitTimeout: cfg.WaitTimeout,
			SettleTime:  cfg.SettleTime,
		},
		browserStarter(cfg, logger),
		sink,
		scraper.WithLogger(logger),
		scraper.WithMetrics(rec),
		scraper.WithProgress(progress.New(cfg.Progress, os.Stderr)),
	)

	summary, runErr := runner.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("Error writing metrics", "file", cfg.MetricsFile, "err", err)
		}
	}
	if runErr != nil {
		return 1
	}

	logger.Info("Scraping completed successfully",
		"meetings", summary.Records,
		"file", sink.Path(),
		"run", summary.RunID,
	)
	return 0
}

func browserStarter(cfg *config.Configuration, logger *log.Logger) scraper.StartFunc {
	return func(ctx context.Context) (scraper.Session, error) {
		s, err := browser.Start(ctx, browser.Options{
			Headless:     cfg.Headless,
			ExecPath:     cfg.ChromePath,
			UserAgent:    cfg.UserAgent,
			WindowWidth:  cfg.WindowWidth,
			WindowHeight: cfg.WindowHeight,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// loadConfig reads the optional config file and overrides it with any flags
// that were set.
func loadConfig(flags CLIFlags) (*config.Configuration, error) {
	cfg, err := config.Load(flags.ConfigFile, flags.ConfigFile != "")
	if err != nil {
		return nil, err
	}

	if flags.StartURL != "" {
		cfg.StartURL = flags.StartURL
	}
	if flags.OutputFile != "" {
		cfg.OutputFile = flags.OutputFile
	}
	if flags.WaitTimeout != 0 {
		cfg.WaitTimeout = flags.WaitTimeout
	}
	if flags.SettleTime != 0 {
		cfg.SettleTime = flags.SettleTime
	}
	if flags.Timeout != 0 {
		cfg.Timeout = flags.Timeout
	}
	if flags.Headless != nil {
		cfg.Headless = *flags.Headless
	}
	if flags.ChromePath != "" {
		cfg.ChromePath = flags.ChromePath
	}
	if flags.UserAgent != "" {
		cfg.UserAgent = flags.UserAgent
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.LogFormat = flags.LogFormat
	}
	if flags.LogFile != "" {
		cfg.LogFile = flags.LogFile
	}
	if flags.MetricsFile != "" {
		cfg.MetricsFile = flags.MetricsFile
	}
	if flags.Progress != nil {
		cfg.Progress = *flags.Progress
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
