package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/knowledge-engine/fwe/internal/config"
	"github.com/knowledge-engine/fwe/internal/logging"
)

// app carries what every subcommand needs once the root command ran
type app struct {
	envFile  string
	logLevel string

	cfg    *config.Config
	logger *logging.Logger
}

func (a *app) log() *logrus.Entry {
	if a.logger == nil {
		return logging.Discard()
	}
	return a.logger.Entry
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", a.envFile, err)
		}
	}

	a.cfg = config.Load()
	if cmd.Flags().Changed("log-level") {
		a.cfg.Log.Level = a.logLevel
	}

	logger, err := logging.New(a.cfg.Log)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) teardown() {
	if a.logger != nil {
		a.logger.Close()
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "fwe",
		Short:         "Build Finnish word-embedding corpora from harvested web text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}

	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "environment file loaded before reading configuration")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (overrides LOG_LEVEL)")

	cmd.AddCommand(
		newPreprocessCommand(a),
		newUncaseCommand(a),
		newSitesCommand(a),
		newExtractCommand(a),
		newVersionCommand(),
	)
	return cmd
}
