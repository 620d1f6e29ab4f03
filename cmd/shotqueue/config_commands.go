package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shotqueue/internal/config"
	"shotqueue/internal/queue"
	"shotqueue/internal/services"
)

var secretSettings = map[string]struct{}{
	queue.SettingYouTubeAPIKey:    {},
	queue.SettingTelegramBotToken: {},
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration file and stored settings",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigSetCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return services.Wrap(services.ErrValidation, "config", "init",
						fmt.Sprintf("config file already exists at %s (use --overwrite to replace it)", target), nil)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "API keys and the poll interval live in the database; set them with `shotqueue config set`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Database: %s\n", cfg.DatabasePath())
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the settings stored in the queue database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				settings, err := store.LoadSettings(c)
				if err != nil {
					return err
				}
				if !reveal {
					settings.YouTubeAPIKey = maskOptional(settings.YouTubeAPIKey)
					settings.TelegramBotToken = maskOptional(settings.TelegramBotToken)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, settings)
				}

				values := map[string]string{
					queue.SettingYouTubeAPIKey:    settings.YouTubeAPIKey,
					queue.SettingTelegramBotToken: settings.TelegramBotToken,
					queue.SettingTelegramChatID:   settings.TelegramChatID,
					queue.SettingOllamaEndpoint:   settings.OllamaEndpoint,
					queue.SettingPollIntervalSecs: strconv.FormatUint(settings.PollIntervalSecs, 10),
				}
				rows := make([][]string, 0, len(values))
				for _, key := range queue.SettingKeys() {
					value := values[key]
					if value == "" {
						value = "(not set)"
					}
					rows = append(rows, []string{key, value})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Key", "Value"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print credentials without masking")
	return cmd
}

func newConfigSetCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store a runtime setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			value := strings.TrimSpace(args[1])
			if !queue.IsSettingKey(key) {
				return services.Wrap(services.ErrValidation, "config", "set",
					fmt.Sprintf("unknown setting %q (expected one of %s)", key, strings.Join(queue.SettingKeys(), ", ")), nil)
			}
			if key == queue.SettingPollIntervalSecs {
				if secs, err := strconv.ParseUint(value, 10, 64); err != nil || secs == 0 {
					return services.Wrap(services.ErrValidation, "config", "set",
						fmt.Sprintf("%s must be a positive integer, got %q", key, value), nil)
				}
			}

			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				if err := store.SetSetting(c, key, value); err != nil {
					return err
				}
				shown := value
				if _, secret := secretSettings[key]; secret {
					shown = maskSecret(value)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]string{"key": key, "value": shown})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, shown)
				return nil
			})
		},
	}
	// Values such as Telegram group chat ids start with '-'.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func maskOptional(value string) string {
	if value == "" {
		return ""
	}
	return maskSecret(value)
}
