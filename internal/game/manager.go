package game

import (
	"context"
	"image/color"

	"go.uber.org/zap"

	"chosenoffset.com/cipherwolves/internal/backend"
	"chosenoffset.com/cipherwolves/internal/render"
	"chosenoffset.com/cipherwolves/internal/ui/postgame"
)

// State is what the window is showing
type State int

const (
	StateLoading State = iota
	StatePlaying
	StateFailed
	StatePostGame // The game is decided and its report loaded
)

type loadResult struct {
	game *Game
	err  error
}

// Manager handles the overall window state: loading the game, playing it,
// showing why it could not start, and the report once it is over.
type Manager struct {
	ScreenWidth  int
	ScreenHeight int
	State        State
	Game         *Game
	Dashboard    *postgame.Dashboard
	Renderer     render.Renderer
	InputMgr     render.InputManager

	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	pending chan loadResult
	err     error
	loading bool
	closed  bool
}

// NewManager creates a new game manager.
func NewManager(r render.Renderer, input render.InputManager, width, height int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ScreenWidth:  width,
		ScreenHeight: height,
		State:        StateLoading,
		Renderer:     r,
		InputMgr:     input,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		pending:      make(chan loadResult, 1),
	}
}

// Load prepares the game on its own goroutine; prepare may block on the
// network. The window shows the loading screen until it returns.
func (m *Manager) Load(prepare func(ctx context.Context) (*Game, error)) {
	m.State = StateLoading
	m.loading = true
	go func() {
		g, err := prepare(m.ctx)
		m.pending <- loadResult{game: g, err: err}
	}()
}

// Err returns why the game could not start.
func (m *Manager) Err() error {
	return m.err
}

// Update updates the game state.
func (m *Manager) Update() error {
	if m.closed {
		return render.ErrTerminated
	}
	if m.InputMgr != nil && m.InputMgr.IsKeyJustPressed(render.KeyEscape) {
		m.logger.Info("quit requested")
		_ = m.Close()
		return render.ErrTerminated
	}

	switch m.State {
	case StateLoading:
		select {
		case res := <-m.pending:
			m.loading = false
			m.startGame(res)
		default:
		}
	case StatePlaying:
		if m.Game == nil {
			return nil
		}
		if err := m.Game.Update(); err != nil {
			return err
		}
		if report := m.Game.Report(); report != nil {
			m.showReport(report)
		}
	case StatePostGame:
		m.Dashboard.Update(m.InputMgr)
	}
	return nil
}

// showReport swaps the finished village for the post-game dashboard.
func (m *Manager) showReport(report *backend.Report) {
	m.logger.Info("showing post-game report", zap.String("game_id", report.GameID))
	if err := m.Game.Close(); err != nil {
		m.logger.Warn("failed to close game", zap.Error(err))
	}
	m.Dashboard = postgame.New(report, m.Renderer, m.ScreenWidth, m.ScreenHeight)
	m.State = StatePostGame
}

func (m *Manager) startGame(res loadResult) {
	if res.err != nil {
		m.fail(res.err)
		return
	}
	m.Game = res.game
	m.Game.Layout(m.ScreenWidth, m.ScreenHeight)
	if err := m.Game.Start(); err != nil {
		m.fail(err)
		return
	}
	m.State = StatePlaying
}

func (m *Manager) fail(err error) {
	m.logger.Error("failed to start game", zap.Error(err))
	m.err = err
	m.State = StateFailed
}

// Draw draws the current state.
func (m *Manager) Draw(screen render.Image) {
	switch m.State {
	case StateLoading:
		screen.Fill(color.RGBA{21, 19, 10, 255})
		m.drawCentered(screen, "Loading medieval town...", 18, 0)
		m.drawCentered(screen, "Setting up characters...", 13, 28)
	case StateFailed:
		screen.Fill(color.RGBA{40, 16, 16, 255})
		m.drawCentered(screen, "The game could not start", 18, 0)
		if m.err != nil {
			m.drawCentered(screen, m.err.Error(), 12, 28)
		}
		m.drawCentered(screen, "Press ESC to quit", 12, 56)
	case StatePlaying:
		if m.Game != nil {
			m.Game.Draw(screen)
		}
	case StatePostGame:
		if m.Renderer != nil {
			m.Dashboard.Draw(m.Renderer, screen)
		}
	}
}

func (m *Manager) drawCentered(screen render.Image, text string, size, dy float64) {
	if m.Renderer == nil {
		return
	}
	x := float64(m.ScreenWidth) / 2
	y := float64(m.ScreenHeight)/2 + dy
	m.Renderer.DrawText(screen, text, x, y, render.TextStyle{Size: size, Color: color.White, Align: render.AlignCenter})
}

// Layout handles window resize.
func (m *Manager) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		m.ScreenWidth = outsideWidth
		m.ScreenHeight = outsideHeight
	}
	switch {
	case m.State == StatePlaying && m.Game != nil:
		return m.Game.Layout(m.ScreenWidth, m.ScreenHeight)
	case m.State == StatePostGame:
		m.Dashboard.Resize(m.ScreenWidth, m.ScreenHeight)
	}
	return m.ScreenWidth, m.ScreenHeight
}

// Close shuts the game down, including one still loading. Safe to call
// more than once.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.cancel()

	if m.Game != nil {
		return m.Game.Close()
	}
	if m.loading {
		go func() {
			if res := <-m.pending; res.game != nil {
				_ = res.game.Close()
			}
		}()
	}
	return nil
}
