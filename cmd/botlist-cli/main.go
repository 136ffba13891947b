// Command botlist-cli queries the botlist.space API from the terminal.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/botlistspace/go-botlist/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

var (
	apiClient   *client.Client
	flagToken   string
	flagBotID   string
	flagVersion int
	flagFmt     string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("botlist version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("botlist version %s-dev", version)
}

type configFile struct {
	Token string `yaml:"token"`
	BotID string `yaml:"bot_id"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "botlist",
		Short:   "Query the botlist.space bot listing from the terminal",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			opts := []client.Option{client.WithVersion(flagVersion)}
			if flagToken != "" {
				opts = append(opts, client.WithToken(flagToken))
			}
			if flagBotID != "" {
				opts = append(opts, client.WithBotID(flagBotID))
			}
			apiClient = client.New(opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "API token (env: BOTLIST_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagBotID, "bot-id", "", "Default bot ID (env: BOTLIST_BOT_ID)")
	rootCmd.PersistentFlags().IntVar(&flagVersion, "api-version", 1, "API version")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	rootCmd.AddCommand(newBotCmd())
	rootCmd.AddCommand(newBotsCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newUpvotesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newPostCountCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagToken == "" {
		flagToken = os.Getenv("BOTLIST_TOKEN")
	}
	if flagBotID == "" {
		flagBotID = os.Getenv("BOTLIST_BOT_ID")
	}

	if flagToken != "" && flagBotID != "" {
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	data, err := os.ReadFile(filepath.Join(home, ".botlist", "config.yaml"))
	if err != nil {
		return
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}
	if flagToken == "" {
		flagToken = cfg.Token
	}
	if flagBotID == "" {
		flagBotID = cfg.BotID
	}
}
