package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"kichat/cli"
)

var (
	dataDir    string
	pluginsDir string
	debug      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kichat",
		Short: "Multi-provider LLM chat client",
		Long: `kichat is a chat client for multiple LLM providers (OpenAI, Anthropic,
Google Gemini, Ollama), configured through TOML plugin manifests.

API keys are kept in a .env file in the data directory and are never
written to the general settings file.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
			log.Logger = zerolog.New(output).With().Timestamp().Logger()
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.WarnLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.local/share/kichat)")
	rootCmd.PersistentFlags().StringVar(&pluginsDir, "plugins-dir", "", "Plugins directory (default ~/.config/kichat/plugins)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(useCmd())
	rootCmd.AddCommand(setCmd())
	rootCmd.AddCommand(envCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(searchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func opts() cli.Options {
	return cli.Options{DataDir: dataDir, PluginsDir: pluginsDir}
}

func chatCmd() *cobra.Command {
	var resume string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with the active provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(context.Background(), opts(), resume)
		},
	}

	cmd.Flags().StringVar(&resume, "resume", "", "Conversation id to resume")
	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Providers(context.Background(), opts())
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the active provider's models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Models(context.Background(), opts())
		},
	}
}

func useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <provider> [model]",
		Short: "Switch the active provider, optionally pinning a model",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID := ""
			if len(args) == 2 {
				modelID = args[1]
			}
			return cli.Use(context.Background(), opts(), args[0], modelID)
		},
	}
}

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider> <key> <value>",
		Short: "Update a provider setting (secrets go to the env store)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Set(context.Background(), opts(), args[0], args[1], args[2])
		},
	}
}

func envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env <KEY> [value]",
		Short: "Read or write a secret in the env store",
		Long: `With one argument, reports whether KEY is set (the value is never
printed). With two, saves KEY=value; an empty value removes the key.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			write := len(args) == 2
			if write {
				value = args[1]
			}
			return cli.Env(context.Background(), opts(), args[0], value, write)
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List stored conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.History(context.Background(), opts())
		},
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search messages across all conversations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Search(context.Background(), opts(), args[0])
		},
	}
}
