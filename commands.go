package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sloganking/ocr-paste/internal/app"
	"github.com/sloganking/ocr-paste/internal/apperr"
	"github.com/sloganking/ocr-paste/internal/config"
	"github.com/sloganking/ocr-paste/internal/logging"
)

// loadConfig resolves .env, config file, environment and flags, then sets
// up logging.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	fs := cmd.Flags()
	envFile, _ := fs.GetString("env-file")
	_, envErr := config.LoadDotEnv(envFile)

	v := viper.New()
	if err := config.Bind(fs, v); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return cfg, err
	}

	debug := cfg.HotkeyDebug || cfg.FFmpegDebug || cfg.UploadDebug
	logging.Setup(logging.ParseFormat(cfg.LogFormat), logging.ParseLevel(cfg.LogLevel, debug))
	if envErr != nil {
		slog.Warn("ignoring malformed env file", "path", envFile, "err", envErr)
	}
	if f := v.ConfigFileUsed(); f != "" {
		slog.Debug("loaded config file", "path", f)
	}
	return cfg.Snapshot(), nil
}

func runListen(cmd *cobra.Command, cfg config.Config) error {
	return app.RunListen(cmd.Context(), cfg, cmd.OutOrStdout())
}

func newListenCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Wait for the trigger key and process the clipboard on each press (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runListen(cmd, *cfg)
		},
	}
}

func newOnceCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Process the clipboard once, right now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := app.RunOnce(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", rep.Outcome, rep.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

func newFileCmd(cfg *config.Config) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Extract text from an image, audio or video file and write it to a .txt file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.RunFile(cmd.Context(), *cfg, args[0], output, cmd.OutOrStdout())
			if err != nil {
				slog.Error("file mode failed", apperr.LogAttrs(err)...)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output path ("-" for stdout; default <input>.txt)`)
	return cmd
}

func newInitConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a config file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		// Skips config loading so a broken config can be replaced.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.json"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.SaveDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", app.Name, Version)
		},
	}
}
