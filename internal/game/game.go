package game

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"go.uber.org/zap"

	"chosenoffset.com/cipherwolves/internal/backend"
	"chosenoffset.com/cipherwolves/internal/bridge"
	"chosenoffset.com/cipherwolves/internal/character"
	"chosenoffset.com/cipherwolves/internal/core/timer"
	"chosenoffset.com/cipherwolves/internal/render"
	"chosenoffset.com/cipherwolves/internal/simulation"
	"chosenoffset.com/cipherwolves/internal/ui/chat"
	"chosenoffset.com/cipherwolves/internal/world/spatial"
)

// DefaultPanelWidth is the width of the chat panel right of the village.
const DefaultPanelWidth = 340

const (
	inboxSize         = 64
	maxEventsPerFrame = 32
	noticeSeconds     = 3.0
)

// Options wires a Game. Nil fields get defaults where one exists.
type Options struct {
	Config *simulation.Config
	Layout *spatial.Layout
	Names  []string
	// Maps a character name to its sprite sheet; nil uses the default sheet
	SpriteFor func(name string) string

	GameID  string
	Backend Backend // Nil for an offline village

	// Source feeds stream events. When nil and Scripted is set, the game
	// runs the built-in scripted chatter.
	Source   bridge.Source
	Scripted bool

	Renderer   render.Renderer
	Input      render.InputManager
	Loader     render.ResourceLoader
	Clock      simulation.Clock
	Rand       simulation.Rand
	Logger     *zap.Logger
	PanelWidth int
}

// doneSource is a source that can end on its own.
type doneSource interface {
	Done() <-chan struct{}
	Err() error
}

// Game is the live village view: the simulation, the characters, the event
// bridge and the chat panel, driven once per display frame.
type Game struct {
	cfg    *simulation.Config
	layout *spatial.Layout
	space  *spatial.Map
	names  []string

	renderer render.Renderer
	input    render.InputManager
	clock    simulation.Clock
	logger   *zap.Logger

	timers *timer.Queue
	roster *character.Roster
	loop   *simulation.Loop
	bridge *bridge.Bridge
	panel  *chat.Panel

	source     bridge.Source
	sourceDone bool
	backend    Backend
	gameID     string

	ctx      context.Context
	cancel   context.CancelFunc
	inbox    chan []byte
	results  chan callResult
	inflight int

	background render.Image
	bgLoads    chan imageResult

	flowStarted bool
	round       int
	state       *backend.GameData
	finished    bool
	report      *backend.Report

	// Layout dimensions (split screen)
	screenW, screenH int
	panelWidth       int
	scale            float64

	notices    []Notice
	showZones  bool
	lastUpdate time.Time
	closed     bool
}

// New builds a game and places the characters. Call Start to open the
// speech source.
func New(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = simulation.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	layout := opts.Layout
	if layout == nil {
		layout = spatial.DefaultLayout()
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	if err := layout.MatchCanvas(cfg.Canvas.Width, cfg.Canvas.Height); err != nil {
		return nil, err
	}
	space, err := layout.Map()
	if err != nil {
		return nil, fmt.Errorf("failed to build walkable map: %w", err)
	}

	names := opts.Names
	if len(names) == 0 {
		names = bridge.DefaultNames
	}
	names = append([]string(nil), names...)

	clock := opts.Clock
	if clock == nil {
		clock = simulation.SystemClock{}
	}
	rng := opts.Rand
	if rng == nil {
		rng = simulation.NewRand(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	panelWidth := opts.PanelWidth
	if panelWidth <= 0 {
		panelWidth = DefaultPanelWidth
	}

	palette, err := character.ParsePalette(cfg.Palette)
	if err != nil {
		return nil, fmt.Errorf("invalid palette: %w", err)
	}

	spriteFor := opts.SpriteFor
	if spriteFor == nil {
		spriteFor = func(string) string { return cfg.Sprite.DefaultPath }
	}

	timers := timer.NewQueue()
	roster := character.NewRoster(names, spriteFor, character.Options{
		FallbackPath: cfg.Sprite.DefaultPath,
		Sheet:        cfg.Sprite.Sheet,
		DrawSize:     cfg.Sprite.DrawSize,
		Palette:      palette,
		Logger:       logger,
	}, opts.Loader, timers)

	now := clock.Now()
	motion := simulation.NewMotion(cfg.Motion, space, rng)
	states, err := motion.Spawn(len(names), layout.SpawnPoints, space.Zones(), now)
	if err != nil {
		roster.Dispose()
		return nil, fmt.Errorf("failed to place characters: %w", err)
	}
	loop := simulation.NewLoop(motion, cfg.Animation, states)

	groups := make([]*timer.Group, roster.Len())
	for i := range groups {
		groups[i] = roster.At(i).Timers()
	}

	br := bridge.New(bridge.Config{
		Expiry:     cfg.Speech.Expiry(),
		BubbleText: cfg.Speech.BubbleText,
		MaxChat:    cfg.Speech.MaxChatMessages,
		Logger:     logger,
	}, names, loop, groups)

	source := opts.Source
	if source == nil && opts.Scripted {
		source = bridge.NewScriptedSource(names, groups, nil, cfg.Speech.ScriptedInterval, rng, clock, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		cfg:        cfg,
		layout:     layout,
		space:      space,
		names:      names,
		renderer:   opts.Renderer,
		input:      opts.Input,
		clock:      clock,
		logger:     logger,
		timers:     timers,
		roster:     roster,
		loop:       loop,
		bridge:     br,
		panel:      chat.NewPanel(0, 0, panelWidth, int(cfg.Canvas.Height), opts.Renderer),
		source:     source,
		backend:    opts.Backend,
		gameID:     opts.GameID,
		ctx:        ctx,
		cancel:     cancel,
		inbox:      make(chan []byte, inboxSize),
		results:    make(chan callResult, 8),
		bgLoads:    make(chan imageResult, 1),
		round:      1,
		panelWidth: panelWidth,
		lastUpdate: now,
	}
	br.OnChat = g.onChat
	br.OnPhase = g.runPhase
	g.panel.OnSubmit = g.submitAnalysis
	g.resize(int(cfg.Canvas.Width)+panelWidth, int(cfg.Canvas.Height))
	g.refreshStatus()

	if layout.Background != "" && opts.Loader != nil {
		go g.loadBackground(opts.Loader, layout.Background)
	}
	return g, nil
}

func (g *Game) loadBackground(loader render.ResourceLoader, path string) {
	img, err := loader.LoadImage(path)
	g.bgLoads <- imageResult{img: img, err: err}
}

// Start opens the speech source.
func (g *Game) Start() error {
	if g.source == nil || g.closed {
		return nil
	}
	if err := g.source.Open(g.ctx, g.inbox); err != nil {
		return fmt.Errorf("failed to open speech source: %w", err)
	}
	g.logger.Info("speech source opened", zap.String("game_id", g.gameID))
	return nil
}

// Update advances one frame. It returns render.ErrTerminated after Close.
func (g *Game) Update() error {
	if g.closed {
		return render.ErrTerminated
	}

	now := g.clock.Now()
	dt := now.Sub(g.lastUpdate).Seconds()
	g.lastUpdate = now

	g.drainInbox(now)
	g.checkSource()
	g.startFlow()
	g.timers.Run(now)
	g.drainResults()
	g.pollBackground()
	g.roster.Poll()
	g.loop.Step(now)

	if g.input != nil && g.input.IsKeyJustPressed(render.KeyF3) {
		g.showZones = !g.showZones
	}
	g.panel.Update(g.input)

	g.updateNotices(dt)
	g.refreshStatus()
	return nil
}

func (g *Game) drainInbox(now time.Time) {
	for n := 0; n < maxEventsPerFrame; n++ {
		select {
		case raw := <-g.inbox:
			_ = g.bridge.HandleRaw(raw, now)
		default:
			return
		}
	}
}

// checkSource notices a stream that ended on its own.
func (g *Game) checkSource() {
	ds, ok := g.source.(doneSource)
	if !ok || g.sourceDone {
		return
	}
	select {
	case <-ds.Done():
		g.sourceDone = true
		g.bridge.SetConnected(false)
		if err := ds.Err(); err != nil && !g.finished {
			g.logger.Error("speech stream lost", zap.Error(err))
			g.ShowMessage("Connection to the game stream lost")
		}
	default:
	}
}

// startFlow kicks off the phase flow once the stream confirms the
// connection.
func (g *Game) startFlow() {
	if g.flowStarted || g.backend == nil || !g.bridge.Connected() {
		return
	}
	g.flowStarted = true
	g.call(callState, g.bridge.Phase(), func(ctx context.Context) (*backend.GameData, error) {
		return g.backend.GameState(ctx, g.gameID)
	})
	g.runPhase(g.bridge.Phase())
}

// runPhase makes the backend call a phase needs. Analysis waits for the
// player instead.
func (g *Game) runPhase(p bridge.Phase) {
	if g.finished || g.closed {
		return
	}
	if p != bridge.PhaseAnalysis && g.panel.GetInputMode() == chat.ModeAnalysis {
		g.panel.SetInputMode(chat.ModeWatch)
	}
	if g.backend == nil {
		return
	}

	switch p {
	case bridge.PhaseCommunication:
		g.call(callRound, p, func(ctx context.Context) (*backend.GameData, error) {
			return nil, g.backend.StartRound(ctx, g.gameID)
		})
	case bridge.PhaseVoting:
		g.call(callVote, p, func(ctx context.Context) (*backend.GameData, error) {
			if err := g.backend.StartVoting(ctx, g.gameID); err != nil {
				return nil, err
			}
			return g.backend.GameState(ctx, g.gameID)
		})
	case bridge.PhaseAnalysis:
		g.panel.SetInputMode(chat.ModeAnalysis)
	}
}

func (g *Game) submitAnalysis(text string) {
	if g.backend == nil {
		g.panel.SetInputMode(chat.ModeWatch)
		return
	}
	g.call(callAnalysis, bridge.PhaseAnalysis, func(ctx context.Context) (*backend.GameData, error) {
		return nil, g.backend.StartAnalysis(ctx, g.gameID, text)
	})
}

// call runs fn on its own goroutine and hands the result to Update.
func (g *Game) call(kind callKind, phase bridge.Phase, fn func(ctx context.Context) (*backend.GameData, error)) {
	g.inflight++
	g.logger.Debug("backend call started", zap.Stringer("call", kind), zap.String("phase", string(phase)))
	go func() {
		state, err := fn(g.ctx)
		g.deliver(callResult{kind: kind, phase: phase, state: state, err: err})
	}()
}

// fetchReport loads the post-game report once the game is decided.
func (g *Game) fetchReport() {
	g.inflight++
	g.logger.Debug("backend call started", zap.Stringer("call", callReport))
	go func() {
		report, err := g.backend.Report(g.ctx, g.gameID)
		g.deliver(callResult{kind: callReport, report: report, err: err})
	}()
}

func (g *Game) deliver(res callResult) {
	select {
	case g.results <- res:
	case <-g.ctx.Done():
	}
}

func (g *Game) drainResults() {
	for {
		select {
		case res := <-g.results:
			g.inflight--
			g.applyResult(res)
		default:
			return
		}
	}
}

func (g *Game) applyResult(res callResult) {
	if res.err != nil {
		if errors.Is(res.err, context.Canceled) {
			return
		}
		g.logger.Error("backend call failed", zap.Stringer("call", res.kind), zap.Error(res.err))
		g.ShowMessage(fmt.Sprintf("Backend %s failed", res.kind))
		if res.kind == callAnalysis {
			g.panel.SetInputMode(chat.ModeAnalysis)
		}
		return
	}

	switch res.kind {
	case callState:
		g.applyState(res.state)
	case callRound:
		g.logger.Debug("round finished", zap.Int("round", g.round))
	case callVote:
		g.applyState(res.state)
		if g.finished {
			return
		}
		g.round++
		g.bridge.SetPhase(bridge.PhaseCommunication)
		g.runPhase(bridge.PhaseCommunication)
	case callAnalysis:
		g.panel.SetInputMode(chat.ModeWatch)
		g.bridge.SetPhase(bridge.PhaseVoting)
		g.runPhase(bridge.PhaseVoting)
	case callReport:
		g.report = res.report
		g.logger.Info("report loaded", zap.Int("personas", len(res.report.Personas)), zap.Int("rounds", len(res.report.Conversation)))
	}
}

// applyState takes a fetched game state: eliminated flags and the result.
func (g *Game) applyState(st *backend.GameData) {
	if st == nil {
		return
	}
	g.state = st
	if st.CurrentRound > 0 {
		g.round = st.CurrentRound
	}
	for i, name := range g.names {
		g.loop.SetEliminated(i, st.IsEliminated(name))
	}
	if st.Finished() && !g.finished {
		g.finish(*st.Result)
	}
}

func (g *Game) finish(result string) {
	g.finished = true
	g.logger.Info("game finished", zap.String("result", result))
	g.panel.AddSystemMessage("Game over: " + result)
	g.panel.SetInputMode(chat.ModeWatch)
	if err := g.closeSource(); err != nil {
		g.logger.Warn("failed to close speech source", zap.Error(err))
	}
	if g.backend != nil {
		g.fetchReport()
	}
}

func (g *Game) closeSource() error {
	if g.source == nil {
		return nil
	}
	err := g.source.Close()
	g.bridge.SetConnected(false)
	return err
}

func (g *Game) pollBackground() {
	select {
	case res := <-g.bgLoads:
		if res.err != nil {
			g.logger.Warn("background not loaded, drawing terrain", zap.String("path", g.layout.Background), zap.Error(res.err))
			return
		}
		if g.closed {
			res.img.Dispose()
			return
		}
		g.background = res.img
	default:
	}
}

func (g *Game) onChat(msg bridge.ChatMessage) {
	if msg.Speaker == bridge.SystemSpeaker {
		g.panel.AddSystemMessage(msg.Text)
		return
	}
	var clr color.Color
	if c := g.roster.At(bridge.ResolveSpeaker(g.names, msg.Speaker)); c != nil {
		clr = c.Color()
	}
	g.panel.AddMessage(bridge.DisplayName(msg.Speaker), msg.Text, clr)
}

// ShowMessage adds a new notice to be displayed on screen.
func (g *Game) ShowMessage(text string) {
	g.notices = append(g.notices, Notice{
		Text:     text,
		TimeLeft: noticeSeconds,
		MaxTime:  noticeSeconds,
	})
	g.logger.Info("notice", zap.String("text", text))
}

func (g *Game) updateNotices(dt float64) {
	var active []Notice
	for _, n := range g.notices {
		n.TimeLeft -= dt
		if n.TimeLeft > 0 {
			active = append(active, n)
		}
	}
	g.notices = active
}

func (g *Game) refreshStatus() {
	s := chat.Status{
		GameID:    g.gameID,
		Round:     g.round,
		Phase:     string(g.bridge.Phase()),
		Connected: g.bridge.Connected(),
		Remaining: len(g.names),
	}
	if g.state != nil {
		s.Remaining = len(g.names) - len(g.state.EliminatedAgents)
		s.Eliminated = len(g.state.EliminatedAgents)
		if g.state.Result != nil {
			s.Result = *g.state.Result
		}
	}
	g.panel.SetStatus(s)
}

// Layout recomputes the scale factor when the window size changes. The
// logical screen is the window itself; the simulation stays in canvas units.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		outsideWidth = int(g.cfg.Canvas.Width) + g.panelWidth
		outsideHeight = int(g.cfg.Canvas.Height)
	}
	if outsideWidth != g.screenW || outsideHeight != g.screenH {
		g.resize(outsideWidth, outsideHeight)
	}
	return g.screenW, g.screenH
}

func (g *Game) resize(w, h int) {
	g.screenW, g.screenH = w, h
	viewW := math.Max(float64(w-g.panelWidth), 1)
	g.scale = math.Min(viewW/g.cfg.Canvas.Width, float64(h)/g.cfg.Canvas.Height)
	g.panel.Resize(w-g.panelWidth, 0, g.panelWidth, h)
	g.logger.Debug("layout changed", zap.Int("width", w), zap.Int("height", h), zap.Float64("scale", g.scale))
}

// Scale is the current canvas-to-screen factor.
func (g *Game) Scale() float64 { return g.scale }

// Round returns the round the view is in.
func (g *Game) Round() int { return g.round }

// Finished reports whether the backend decided the game.
func (g *Game) Finished() bool { return g.finished }

// Report returns the post-game report, nil until it has loaded.
func (g *Game) Report() *backend.Report { return g.report }

// Bridge returns the event bridge.
func (g *Game) Bridge() *bridge.Bridge { return g.bridge }

// Loop returns the simulation loop.
func (g *Game) Loop() *simulation.Loop { return g.loop }

// Roster returns the characters.
func (g *Game) Roster() *character.Roster { return g.roster }

// Panel returns the chat panel.
func (g *Game) Panel() *chat.Panel { return g.panel }

// Notices returns the notices on screen.
func (g *Game) Notices() []Notice { return append([]Notice(nil), g.notices...) }

// Pending returns how many backend calls have not reported back.
func (g *Game) Pending() int { return g.inflight }

// Closed reports whether Close ran.
func (g *Game) Closed() bool { return g.closed }

// Close stops the loop, cancels every timer and request, closes the source
// and releases images. Safe to call more than once.
func (g *Game) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true

	g.loop.Stop()
	g.bridge.Stop()
	g.cancel()
	err := g.closeSource()
	g.timers.CancelAll()
	g.roster.Dispose()

	if g.background != nil {
		g.background.Dispose()
		g.background = nil
	}
	select {
	case res := <-g.bgLoads:
		if res.err == nil && res.img != nil {
			res.img.Dispose()
		}
	default:
	}

	g.logger.Info("game closed", zap.String("game_id", g.gameID))
	if err != nil {
		return fmt.Errorf("failed to close speech source: %w", err)
	}
	return nil
}
