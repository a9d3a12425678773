package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ajirodesu/chaldea/pkg/apps"
	"github.com/ajirodesu/chaldea/pkg/bot"
	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/config"
	"github.com/ajirodesu/chaldea/pkg/cooldown"
	"github.com/ajirodesu/chaldea/pkg/janitor"
	"github.com/ajirodesu/chaldea/pkg/loader"
	"github.com/ajirodesu/chaldea/pkg/logger"
	"github.com/ajirodesu/chaldea/pkg/pending"
)

var (
	version   = "dev"
	gitCommit string
)

// runtimeOptions are process-level settings that never live in the setup
// directory: where that directory is, logging, and API credentials.
type runtimeOptions struct {
	SetupDir string `env:"CHALDEA_SETUP_DIR" envDefault:"setup"`
	LogLevel string `env:"CHALDEA_LOG_LEVEL" envDefault:"INFO"`
	LogFile  string `env:"CHALDEA_LOG_FILE"`

	OpenAIKey      string `env:"OPENAI_API_KEY"`
	OpenAIModel    string `env:"CHALDEA_OPENAI_MODEL"`
	AnthropicKey   string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel string `env:"CHALDEA_ANTHROPIC_MODEL"`

	// Stale cooldown and reply-prompt state is swept on this schedule.
	SweepSchedule string `env:"CHALDEA_SWEEP_CRON" envDefault:"*/10 * * * *"`
}

func main() {
	cmdName := "run"
	if len(os.Args) > 1 {
		cmdName = os.Args[1]
	}

	switch cmdName {
	case "run":
		if err := run(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	case "onboard":
		if err := onboard(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		printVersion()
	default:
		fmt.Printf("Unknown command: %s\n", cmdName)
		printHelp()
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine; real deployments often use plain env vars.
	_ = godotenv.Load()

	var opts runtimeOptions
	if err := env.Parse(&opts); err != nil {
		return fmt.Errorf("runtime options: %w", err)
	}

	logger.SetLevel(logger.ParseLevel(opts.LogLevel))
	if opts.LogFile != "" {
		if err := logger.EnableFileLogging(opts.LogFile); err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		defer logger.DisableFileLogging()
	}

	store := config.NewStore(opts.SetupDir)
	if _, err := store.Settings(); err != nil {
		return fmt.Errorf("setup directory %q is not usable (run `chaldea onboard`): %w", opts.SetupDir, err)
	}
	states, err := store.States()
	if err != nil {
		return err
	}

	registry := command.NewRegistry()
	cooldowns := cooldown.NewStore()
	pendings := pending.NewStore()

	start := time.Now()
	var modLoader *loader.Loader
	deps := apps.Deps{
		Store:          store,
		Registry:       registry,
		Loader:         func() *loader.Loader { return modLoader },
		Uptime:         func() time.Duration { return time.Since(start) },
		OpenAIKey:      opts.OpenAIKey,
		OpenAIModel:    opts.OpenAIModel,
		AnthropicKey:   opts.AnthropicKey,
		AnthropicModel: opts.AnthropicModel,
	}
	modLoader = loader.New(registry, apps.Commands(deps), apps.Events(deps), pendings)

	report, err := modLoader.LoadAll()
	if err != nil {
		return err
	}
	for _, failure := range report.Failures {
		logger.WarnCF("main", "module failed to load", map[string]any{
			"module": failure.Name,
			"error":  failure.Err.Error(),
		})
	}

	fleet, err := bot.NewFleet(states.Tokens, bot.Deps{
		Registry:  registry,
		Store:     store,
		Cooldowns: cooldowns,
		Pending:   pendings,
	})
	if err != nil {
		return err
	}
	logger.InfoCF("main", "fleet ready", map[string]any{
		"instances": fleet.Size(),
		"commands":  len(report.Commands),
		"events":    len(report.Events),
		"version":   version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper, err := janitor.New(opts.SweepSchedule, time.Hour, cooldowns, pendings)
	if err != nil {
		return err
	}
	go sweeper.Run(ctx)

	go func() {
		// Give the instances a moment to connect before the startup notice.
		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}
		fleet.NotifyDevelopers(ctx, fmt.Sprintf("Chaldea %s is online with %d instance(s).", version, fleet.Size()))
	}()

	err = fleet.Run(ctx)
	if ctx.Err() != nil {
		logger.InfoC("main", "shutting down")
		return nil
	}
	return err
}

// onboard writes a starter setup directory so a fresh clone can be
// configured by editing two JSON files.
func onboard() error {
	var opts runtimeOptions
	if err := env.Parse(&opts); err != nil {
		return err
	}

	store := config.NewStore(opts.SetupDir)
	if _, err := os.Stat(store.SettingsPath()); err == nil {
		return fmt.Errorf("%s already exists; refusing to overwrite", store.SettingsPath())
	}

	settings := &config.Settings{
		Prefix:   config.FlexibleStringSlice{"/"},
		Owner:    config.FlexibleStringSlice{},
		DevID:    config.FlexibleStringSlice{},
		TimeZone: "UTC",
	}
	if err := store.SaveSettings(settings); err != nil {
		return err
	}
	if err := store.SaveVIP(&config.VIP{UID: config.FlexibleStringSlice{}}); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", store.SettingsPath())
	fmt.Printf("Wrote %s\n", store.VIPPath())
	fmt.Printf("Add your bot token(s) to %s or set CHALDEA_TOKENS, then run `chaldea run`.\n", store.StatesPath())
	return nil
}

func printVersion() {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	fmt.Printf("chaldea %s\n", v)
	fmt.Printf("  Go: %s\n", runtime.Version())
}

func printHelp() {
	fmt.Println("Usage: chaldea <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run         Start the bot fleet (default)")
	fmt.Println("  onboard     Write a starter setup directory")
	fmt.Println("  version     Show version information")
}
