package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/saravenpi/e63/internal/config"
	"github.com/saravenpi/e63/internal/controller"
	"github.com/saravenpi/e63/internal/logger"
	"github.com/saravenpi/e63/internal/seed"
	"github.com/saravenpi/e63/internal/store"
	"github.com/saravenpi/e63/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath            string
	seedPath              string
	logLevel              string
	logFile               string
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "e63",
	Short: "Keyboard-driven terminal messenger",
	Long: `e63 is a terminal messenger laid out like a feature phone: chats, contacts,
profile and settings tabs, a chat window with a compose box, and image
attachments. Everything is driven by arrow keys, the number pad and Enter.

Sample data is built in; pass --seed to load your own. Messages live in memory
and are reset on every start.`,
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", "", "Load sample data from this YAML file instead of the built-in set")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file")
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("e63 %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("e63 %s\n", version)
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("error loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.SeedFile = seedPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func loadSeed(path string) (*seed.Dataset, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.Load(path)
}

// newApp wires the seed, the message store, the controller and the UI.
// The returned store must be closed by the caller.
func newApp(cfg config.Config, log *zap.Logger) (*ui.App, *store.Store, error) {
	data, err := loadSeed(cfg.SeedFile)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading seed data: %w", err)
	}
	for _, w := range data.Warnings() {
		log.Warn("seed data", zap.String("warning", w))
	}

	s, err := store.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("error opening message store: %w", err)
	}
	if err := s.SeedFrom(data.Messages); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("error seeding message store: %w", err)
	}

	ctrl := controller.New(data, s,
		controller.WithLogger(log),
		controller.WithPreviewWidth(cfg.PreviewWidth),
	)
	app := ui.New(ctrl,
		ui.WithAttachDir(cfg.AttachDir),
		ui.WithLogger(log),
	)
	return app, s, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer log.Sync()

	app, s, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	log.Info("starting", zap.String("version", version), zap.String("config", configPath))
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}
