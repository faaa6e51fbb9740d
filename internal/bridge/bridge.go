package bridge

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chosenoffset.com/cipherwolves/internal/core/timer"
	"chosenoffset.com/cipherwolves/internal/simulation"
)

// Phase is the game phase the host view follows
type Phase string

const (
	PhaseCommunication Phase = "communication"
	PhaseVoting        Phase = "voting"
	PhaseAnalysis      Phase = "analysis"
)

// SpeechTarget holds the speech markers. *simulation.Loop satisfies it.
type SpeechTarget interface {
	SetSpeech(i int, sp *simulation.Speech) bool
}

// ChatMessage is one line of the chat log
type ChatMessage struct {
	ID        string
	Speaker   string
	Text      string
	Timestamp string // As sent by the backend
	Received  time.Time
}

// Config controls bubbles and the chat log
type Config struct {
	Expiry     time.Duration // Bubble lifetime
	BubbleText string        // Shown instead of the message when not empty
	MaxChat    int
	Logger     *zap.Logger
}

// Bridge applies stream events on the frame goroutine. Speech expiry timers
// run in the owning character's timer group, at most one per character.
type Bridge struct {
	cfg    Config
	names  []string
	target SpeechTarget
	groups []*timer.Group
	logger *zap.Logger

	expiries  map[int]timer.ID
	chat      []ChatMessage
	phase     Phase
	connected bool
	stopped   bool

	// Called when a status event moves the game to a different phase
	OnPhase func(Phase)
	// Called for every chat line, after it is logged
	OnChat func(ChatMessage)
}

// New creates a bridge for the named characters. groups[i] is the timer group
// of character i.
func New(cfg Config, names []string, target SpeechTarget, groups []*timer.Group) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxChat <= 0 {
		cfg.MaxChat = 100
	}
	return &Bridge{
		cfg:      cfg,
		names:    append([]string(nil), names...),
		target:   target,
		groups:   groups,
		logger:   logger,
		expiries: make(map[int]timer.ID),
		phase:    PhaseCommunication,
	}
}

// HandleRaw decodes and applies one raw event. A malformed event is logged
// and dropped; the error is returned for callers that count them.
func (b *Bridge) HandleRaw(raw []byte, now time.Time) error {
	ev, err := Decode(raw)
	if err != nil {
		b.logger.Warn("dropping malformed event", zap.Error(err), zap.ByteString("raw", truncate(raw, 256)))
		return err
	}
	b.Handle(ev, now)
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

// Handle applies one decoded event.
func (b *Bridge) Handle(ev Event, now time.Time) {
	if b.stopped {
		return
	}

	if ev.Type == EventStatus && ev.Data.Status == StatusConnected {
		b.connected = true
		b.logger.Info("stream connected", zap.String("message", ev.Data.Message))
		return
	}

	if speaker, text, ok := ev.Line(); ok {
		b.addChat(speaker, text, ev.Timestamp, now)
		b.speak(speaker, text, now)
	}

	if ev.Type == EventStatus {
		if phase, ok := phaseFor(ev.Data); ok {
			b.setPhase(phase)
		}
	}
}

// phaseFor maps a status payload to the phase it announces.
func phaseFor(d Payload) (Phase, bool) {
	switch Phase(d.Phase) {
	case PhaseVoting:
		if d.Status == StatusSkipped || d.Status == StatusVoting {
			return PhaseVoting, true
		}
	case PhaseAnalysis:
		if d.Status == StatusWaitingForAnalysis {
			return PhaseAnalysis, true
		}
	case PhaseCommunication:
		return PhaseCommunication, true
	}
	return "", false
}

func (b *Bridge) setPhase(p Phase) {
	if p == b.phase {
		return
	}
	b.phase = p
	b.logger.Debug("phase changed", zap.String("phase", string(p)))
	if b.OnPhase != nil {
		b.OnPhase(p)
	}
}

func (b *Bridge) addChat(speaker, text, timestamp string, now time.Time) {
	msg := ChatMessage{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Text:      text,
		Timestamp: timestamp,
		Received:  now,
	}
	b.chat = append(b.chat, msg)
	if over := len(b.chat) - b.cfg.MaxChat; over > 0 {
		b.chat = append([]ChatMessage(nil), b.chat[over:]...)
	}
	if b.OnChat != nil {
		b.OnChat(msg)
	}
}

// speak sets the speaker's marker and re-arms its single expiry timer.
func (b *Bridge) speak(speaker, text string, now time.Time) {
	i := ResolveSpeaker(b.names, speaker)
	if i < 0 {
		b.logger.Debug("no character for speaker", zap.String("speaker", speaker))
		return
	}

	group := b.group(i)
	if group == nil {
		return
	}
	if id, ok := b.expiries[i]; ok {
		group.Cancel(id)
		delete(b.expiries, i)
	}

	bubble := text
	if b.cfg.BubbleText != "" {
		bubble = b.cfg.BubbleText
	}
	b.target.SetSpeech(i, &simulation.Speech{Speaker: speaker, Text: bubble, Since: now})

	id := group.After(now, b.cfg.Expiry, func(time.Time) {
		delete(b.expiries, i)
		b.target.SetSpeech(i, nil)
	})
	if id != 0 {
		b.expiries[i] = id
	}
}

func (b *Bridge) group(i int) *timer.Group {
	if i < 0 || i >= len(b.groups) {
		return nil
	}
	return b.groups[i]
}

// PendingExpiries returns how many expiry timers are armed for character i.
func (b *Bridge) PendingExpiries(i int) int {
	if _, ok := b.expiries[i]; ok {
		return 1
	}
	return 0
}

// Phase returns the last phase announced by the stream.
func (b *Bridge) Phase() Phase { return b.phase }

// SetPhase records a phase decided by the host, without notifying.
func (b *Bridge) SetPhase(p Phase) { b.phase = p }

// Connected reports whether the stream confirmed the connection.
func (b *Bridge) Connected() bool { return b.connected }

// SetConnected records a connection state reported by the transport.
func (b *Bridge) SetConnected(connected bool) { b.connected = connected }

// Messages returns a copy of the chat log, oldest first.
func (b *Bridge) Messages() []ChatMessage {
	return append([]ChatMessage(nil), b.chat...)
}

// Names returns the character names speakers are resolved against.
func (b *Bridge) Names() []string {
	return append([]string(nil), b.names...)
}

// Stop cancels every armed expiry and ignores later events. Safe to call
// more than once.
func (b *Bridge) Stop() {
	if b.stopped {
		return
	}
	b.stopped = true
	for i, id := range b.expiries {
		if g := b.group(i); g != nil {
			g.Cancel(id)
		}
	}
	b.expiries = make(map[int]timer.ID)
}
