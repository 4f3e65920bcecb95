package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pders01/intent/internal/config"
	"github.com/pders01/intent/internal/failure"
	"github.com/pders01/intent/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// localConfigFile is picked up from the working directory before the user config
const localConfigFile = ".intent.toml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "intent",
	Short: "Apply documentation suggestions when a reviewer ticks a checkbox",
	Long: `intent turns pull request comments into commits:
  - a suggestion comment carries the proposed file content and a hidden marker
  - ticking its checkbox commits the content to the pull request branch
  - unticking it reverts that commit's change

Each webhook delivery is handled independently; the marker in the comment
records whether the suggestion is currently applied.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !failure.IsAlreadyReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.intent.toml or $HOME/.config/intent/config.toml)")
}

func initConfig() {
	switch {
	case cfgFile != "":
		viper.SetConfigFile(cfgFile)
	case fileExists(localConfigFile):
		viper.SetConfigFile(localConfigFile)
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "intent")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	config.Init(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger() *logging.Logger {
	return logging.New(os.Stderr, config.IsDebug())
}

// commandContext tolerates the nil command the tests pass in
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
