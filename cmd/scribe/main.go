package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/app"
	"scribe/internal/config"
	"scribe/internal/files"
	"scribe/internal/logging"
	"scribe/internal/settings"
)

var (
	version  = "0.1.0"
	cfgFile  string
	model    string
	provider string
	rootDir  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scribe [paths...]",
		Short: "Terminal text editor with an AI assistant",
		Long: `Scribe is a terminal editor with a folder tree, editor tabs and a chat
panel. The assistant answers questions about attached files and can rewrite
a file in place; AI edits can be undone.

Directories given as arguments become the tree root, files open in tabs.`,
		RunE: runApp,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/scribe/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model to use")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "AI provider: gemini or ollama")
	rootCmd.Flags().StringVar(&rootDir, "root", "", "folder shown in the tree (default is the working directory)")

	rootCmd.AddCommand(newAskCmd(), newConfigCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scribe version %s\n", version)
		},
	})
	return rootCmd
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Version = version
	if provider != "" {
		cfg.API.Provider = provider
		if model == "" {
			cfg.Model.Name = cfg.DefaultModelName()
		}
	}
	if model != "" {
		cfg.Model.Name = model
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openLogger returns the file logger when enabled, otherwise a discarding one.
func openLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	if !cfg.Logging.File {
		return logging.Discard(), io.NopCloser(nil), nil
	}
	logger, closer, err := logging.OpenFile(cfg.LogDir(), logging.ParseLevel(cfg.Logging.Level))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logger, closer, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if rootDir != "" {
		cfg.Tree.Root = rootDir
	}

	logger, closer, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	application.Open(args...)
	return application.Run()
}

func newAskCmd() *cobra.Command {
	var (
		stream bool
		attach []string
	)
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send one prompt to the assistant and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, closer, err := openLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			store, err := settings.Open(cfg.SettingsPath(), logging.Child(logger, "settings_model"))
			if err != nil {
				return err
			}
			apiKey := func() string {
				if key := store.APIKey(); key != "" {
					return key
				}
				return cfg.API.APIKey
			}

			fm := files.NewModel(files.WithLegacyEncoding(cfg.Editor.LegacyEncoding), files.WithLogger(logger))
			prompt, err := app.ComposePrompt(fm, cfg.Editor.Encoding, strings.Join(args, " "), attach)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			aiCtl := app.NewAIController(cfg, nil, apiKey, logging.Child(logger, "ai_controller"))
			out := cmd.OutOrStdout()
			if !stream {
				reply, err := aiCtl.HandleChatSubmit(ctx, prompt)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, reply)
				return nil
			}

			chunks, err := aiCtl.StreamChat(ctx, prompt)
			if err != nil {
				return err
			}
			for chunk, err := range chunks {
				if err != nil {
					return err
				}
				fmt.Fprint(out, chunk)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "print the reply as it arrives")
	cmd.Flags().StringSliceVar(&attach, "attach", nil, "file to include with the prompt (repeatable)")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config, settings and log locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:   %s\n", cfg.Path)
			fmt.Fprintf(out, "settings: %s\n", cfg.SettingsPath())
			fmt.Fprintf(out, "logs:     %s\n", cfg.LogDir())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <api-key>",
		Short: "Store the API key in the settings file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			store, err := settings.Open(cfg.SettingsPath(), nil)
			if err != nil {
				return err
			}
			if err := store.LoadError(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "replacing unreadable settings file: %v\n", err)
			}
			if err := store.SetAPIKey(strings.TrimSpace(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key saved to %s\n", store.Path())
			return nil
		},
	})
	return cmd
}
