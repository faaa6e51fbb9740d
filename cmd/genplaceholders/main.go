package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chosenoffset.com/cipherwolves/internal/bridge"
	"chosenoffset.com/cipherwolves/internal/character"
	"chosenoffset.com/cipherwolves/internal/placeholders"
	"chosenoffset.com/cipherwolves/internal/simulation"
	"chosenoffset.com/cipherwolves/internal/world/spatial"
)

func main() {
	var (
		out        string
		configPath string
		layoutPath string
		names      []string
	)

	cmd := &cobra.Command{
		Use:           "genplaceholders",
		Short:         "Write placeholder sprite sheets and a town background.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := simulation.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = simulation.LoadConfig(configPath); err != nil {
					return err
				}
			}

			layout := spatial.DefaultLayout()
			if layoutPath != "" {
				var err error
				if layout, err = spatial.LoadLayout(layoutPath); err != nil {
					return err
				}
			}

			palette, err := character.ParsePalette(cfg.Palette)
			if err != nil {
				return fmt.Errorf("invalid palette: %w", err)
			}

			fmt.Println("CipherWolves Placeholder Graphics Generator")
			fmt.Println("===========================================")
			if err := placeholders.GenerateAndSave(out, names, palette, cfg.Sprite.Sheet, layout); err != nil {
				return err
			}
			fmt.Println("Done! Placeholder graphics are ready to use.")
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&out, "out", "o", "assets", "directory to write sprites/ and town.png into")
	fs.StringVar(&configPath, "config", "", "simulation config JSON (palette and sheet layout)")
	fs.StringVar(&layoutPath, "layout", "", "village layout JSON")
	fs.StringSliceVar(&names, "names", bridge.DefaultNames, "characters to draw sheets for")

	cobra.CheckErr(cmd.Execute())
}
