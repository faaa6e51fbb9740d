package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"chosenoffset.com/cipherwolves/internal/assets"
	"chosenoffset.com/cipherwolves/internal/backend"
	"chosenoffset.com/cipherwolves/internal/bridge"
	"chosenoffset.com/cipherwolves/internal/game"
	ebitenrender "chosenoffset.com/cipherwolves/internal/render/ebiten"
	"chosenoffset.com/cipherwolves/internal/simulation"
	"chosenoffset.com/cipherwolves/internal/stream"
	"chosenoffset.com/cipherwolves/internal/world/spatial"
)

func newLogger(cfg *Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.logJSON {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}

	level := zapcore.InfoLevel
	if cfg.verbose {
		level = zapcore.DebugLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// village is everything loaded from disk before the window opens.
type village struct {
	sim       *simulation.Config
	layout    *spatial.Layout
	names     []string
	spriteFor func(name string) string
}

func loadVillage(cfg *Config, logger *zap.Logger) (*village, error) {
	sim := simulation.DefaultConfig()
	if cfg.configPath != "" {
		var err error
		if sim, err = simulation.LoadConfig(cfg.configPath); err != nil {
			return nil, err
		}
	}

	layout := spatial.DefaultLayout()
	if cfg.layoutPath != "" {
		var err error
		if layout, err = spatial.LoadLayout(cfg.layoutPath); err != nil {
			return nil, err
		}
	}
	if err := layout.MatchCanvas(sim.Canvas.Width, sim.Canvas.Height); err != nil {
		return nil, fmt.Errorf("set canvas in --config to match --layout: %w", err)
	}

	v := &village{
		sim:    sim,
		layout: layout,
		names:  append([]string(nil), bridge.DefaultNames...),
	}

	catalog, err := assets.Scan(cfg.assets)
	if err != nil {
		logger.Warn("no sprite assets, drawing placeholders", zap.String("dir", cfg.assets), zap.Error(err))
		return v, nil
	}
	logger.Info("scanned assets", zap.String("dir", cfg.assets), zap.Int("sprites", catalog.Len()))

	if catalog.Default != "" {
		sim.Sprite.DefaultPath = catalog.Default
	}
	if cfg.layoutPath == "" && catalog.Background != "" {
		layout.Background = catalog.Background
	}
	v.spriteFor = catalog.Resolver(v.names)
	return v, nil
}

func run(cfg *Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	vil, err := loadVillage(cfg, logger)
	if err != nil {
		return err
	}

	renderer := ebitenrender.NewRenderer()
	inputMgr := ebitenrender.NewInputManager()
	loader := ebitenrender.NewResourceLoader()
	engine := ebitenrender.NewEngine()

	screenWidth := int(vil.sim.Canvas.Width) + game.DefaultPanelWidth
	screenHeight := int(vil.sim.Canvas.Height)

	var client *backend.Client
	if cfg.online() {
		client = backend.New(cfg.api, backend.WithLogger(logger))
	}

	manager := game.NewManager(renderer, inputMgr, screenWidth, screenHeight, logger)
	manager.Load(func(loadCtx context.Context) (*game.Game, error) {
		opts := game.Options{
			Config:    vil.sim,
			Layout:    vil.layout,
			Names:     vil.names,
			SpriteFor: vil.spriteFor,
			Renderer:  renderer,
			Input:     inputMgr,
			Loader:    loader,
			Rand:      simulation.NewRand(cfg.seed),
			Logger:    logger,
		}

		if client == nil {
			opts.Scripted = true
			return game.New(opts)
		}

		gameID := cfg.gameID
		if cfg.newGame {
			id, err := client.CreateGame(loadCtx, backend.CreateGameRequest{
				NumAgents:   cfg.agents,
				Model:       cfg.model,
				NumKeywords: cfg.keywords,
			})
			if err != nil {
				return nil, err
			}
			logger.Info("created game", zap.String("game_id", id))
			gameID = id
		}

		opts.GameID = gameID
		opts.Backend = client
		opts.Source = stream.New(client.StreamURL(gameID), stream.WithLogger(logger))
		return game.New(opts)
	})

	engine.SetWindowSize(screenWidth, screenHeight)
	engine.SetWindowTitle("CipherWolves")
	engine.SetWindowResizable(true)
	engine.SyncWithDisplay()

	logger.Info("starting village", zap.Bool("online", cfg.online()), zap.String("api", cfg.api))
	runErr := engine.RunGame(manager)
	closeErr := manager.Close()

	if runErr != nil {
		return runErr
	}
	if err := manager.Err(); err != nil {
		return err
	}
	return closeErr
}
