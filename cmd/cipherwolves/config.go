package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"chosenoffset.com/cipherwolves/internal/backend"
)

// Config holds the command line flags, filled from CIPHERWOLVES_* env vars when unset.
type Config struct {
	api        string
	gameID     string
	newGame    bool
	agents     int
	model      string
	keywords   int
	scripted   bool
	configPath string
	layoutPath string
	assets     string
	seed       int64
	logJSON    bool
	verbose    bool
	version    bool
}

func (c *Config) validate() error {
	if c.scripted {
		if c.gameID != "" || c.newGame {
			return errors.New("--scripted cannot be combined with --game-id or --new-game")
		}
		return nil
	}
	if c.gameID == "" && !c.newGame {
		return errors.New("one of --game-id, --new-game or --scripted is required")
	}
	if c.gameID != "" && c.newGame {
		return errors.New("--game-id and --new-game are mutually exclusive")
	}
	if c.api == "" {
		return errors.New("--api must not be empty")
	}
	if c.agents < 1 {
		return fmt.Errorf("invalid agent count (must be at least 1): %d", c.agents)
	}
	if c.keywords < 1 {
		return fmt.Errorf("invalid keyword count (must be at least 1): %d", c.keywords)
	}
	return nil
}

// online reports whether the client talks to a backend.
func (c *Config) online() bool {
	return !c.scripted
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CIPHERWOLVES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "cipherwolves",
		Short:         "Watch a CipherWolves village play out, one speech bubble at a time.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.api, "api", "http://localhost:8000", "game backend base URL (env: CIPHERWOLVES_API)")
	fs.StringVarP(&cfg.gameID, "game-id", "g", "", "join an existing game (env: CIPHERWOLVES_GAME_ID)")
	fs.BoolVarP(&cfg.newGame, "new-game", "n", false, "create a new game on the backend (env: CIPHERWOLVES_NEW_GAME)")
	fs.IntVar(&cfg.agents, "agents", backend.DefaultAgents, "agents in a new game (env: CIPHERWOLVES_AGENTS)")
	fs.StringVar(&cfg.model, "model", backend.DefaultModel, "model for a new game (env: CIPHERWOLVES_MODEL)")
	fs.IntVar(&cfg.keywords, "keywords", backend.DefaultKeywords, "keywords for a new game (env: CIPHERWOLVES_KEYWORDS)")
	fs.BoolVar(&cfg.scripted, "scripted", false, "run an offline village with scripted chatter (env: CIPHERWOLVES_SCRIPTED)")
	fs.StringVarP(&cfg.configPath, "config", "c", "", "simulation config JSON (env: CIPHERWOLVES_CONFIG)")
	fs.StringVar(&cfg.layoutPath, "layout", "", "village layout JSON (env: CIPHERWOLVES_LAYOUT)")
	fs.StringVar(&cfg.assets, "assets", "assets", "directory holding sprites/ and town.png (env: CIPHERWOLVES_ASSETS)")
	fs.Int64Var(&cfg.seed, "seed", 0, "random seed, 0 picks one from the clock (env: CIPHERWOLVES_SEED)")
	fs.BoolVar(&cfg.logJSON, "log-json", false, "log as JSON instead of console text (env: CIPHERWOLVES_LOG_JSON)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: CIPHERWOLVES_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: CIPHERWOLVES_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("cipherwolves v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
