// ocr-paste: press a key to paste the text of whatever is on the clipboard.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sloganking/ocr-paste/internal/config"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	var cfg config.Config

	root := &cobra.Command{
		Use:   "ocr-paste",
		Short: "Paste the text of a copied image, audio or video file",
		Long: `ocr-paste waits for a global hotkey. When pressed, it reads the clipboard:
an image is run through tesseract OCR, a single copied audio or video file is
transcribed through an OpenAI-compatible endpoint. The text is pasted into the
focused window and the clipboard is then restored to what it held before.

Config file search order (first found wins):
  path supplied via --config
  ./config.json
  $HOME/.config/ocr-paste/config.json

All flags can be set via OCR_PASTE_<FLAG> env vars or config-file keys.
OPENAI_API_KEY (also read from .env) enables transcription.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runListen(cmd, cfg)
		},
	}
	config.AddFlags(root.PersistentFlags())

	root.AddCommand(
		newListenCmd(&cfg),
		newOnceCmd(&cfg),
		newFileCmd(&cfg),
		newInitConfigCmd(),
		newVersionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
