package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agent",
		Short:         "Build, validate and run retrieval-augmented workflow graphs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading .env: %w", err)
			}
			if err := initializeConfig(viper.GetViper()); err != nil {
				return err
			}
			if err := config.Load(viper.GetViper()); err != nil {
				return err
			}
			observability.InitializeLogger(config.Get().Logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	root.AddCommand(
		newValidateCmd(),
		newRunCmd(),
		newServeCmd(),
		newIngestCmd(),
		newEmbedCmd(),
	)
	return root
}

// Execute runs the CLI with ctx as the root context.
func Execute(ctx context.Context) error {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if ctx.Err() == nil {
			if logger := observability.GetLogger(); logger != nil {
				logger.Error("Command execution failed", zap.Error(err))
			}
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// initializeConfig registers defaults and reads the optional config file.
func initializeConfig(v *viper.Viper) error {
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
