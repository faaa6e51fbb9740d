package bridge

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"chosenoffset.com/cipherwolves/internal/core/timer"
	"chosenoffset.com/cipherwolves/internal/simulation"
)

// DefaultLines are the offline demo chatter, keyed by character name.
var DefaultLines = map[string][]string{
	"agent_Alice": {
		"Has anyone else noticed the wolf tracks by the well?",
		"I trust Bob. Mostly.",
		"Let's keep our heads and compare notes.",
	},
	"agent_Bob": {
		"I was at the tavern all night, ask anyone.",
		"Cindy has been awfully quiet today.",
		"We need facts, not feelings.",
	},
	"agent_Cindy": {
		"Quiet is not the same as guilty.",
		"Dom keeps changing his story.",
		"I say we vote carefully this round.",
	},
	"agent_Dom": {
		"My story has not changed once!",
		"Elise was near the forest at dusk.",
		"Somebody here is lying.",
	},
	"agent_Elise": {
		"I was gathering herbs, nothing more.",
		"Alice asks a lot of questions.",
		"The village is safer when we talk.",
	},
}

var genericLines = []string{
	"Hmm.",
	"I have my suspicions.",
	"Let's hear everyone out.",
}

// ErrSourceClosed is returned when opening a closed source.
var ErrSourceClosed = errors.New("speech source closed")

// ScriptedSource makes every character say a random line of its own at
// random intervals. Lines are scheduled on each character's timer group,
// so Open, Close and delivery all happen on the frame goroutine.
type ScriptedSource struct {
	names    []string
	groups   []*timer.Group
	lines    map[string][]string
	interval simulation.Range
	rng      simulation.Rand
	clock    simulation.Clock
	logger   *zap.Logger

	inbox   chan<- []byte
	pending map[int]timer.ID
	open    bool
	closed  bool
}

// NewScriptedSource creates a scripted source. lines may be nil for the
// built-in table.
func NewScriptedSource(names []string, groups []*timer.Group, lines map[string][]string, interval simulation.Range, rng simulation.Rand, clock simulation.Clock, logger *zap.Logger) *ScriptedSource {
	if lines == nil {
		lines = DefaultLines
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptedSource{
		names:    names,
		groups:   groups,
		lines:    lines,
		interval: interval,
		rng:      rng,
		clock:    clock,
		logger:   logger,
		pending:  make(map[int]timer.ID),
	}
}

// Open announces the connection and schedules the first line of every
// character.
func (s *ScriptedSource) Open(_ context.Context, inbox chan<- []byte) error {
	if s.closed {
		return ErrSourceClosed
	}
	if s.open {
		return nil
	}
	s.open = true
	s.inbox = inbox

	now := s.clock.Now()
	s.push(Event{
		Type:      EventStatus,
		Data:      Payload{Status: StatusConnected, Message: "scripted village"},
		Timestamp: now.Format(time.RFC3339),
	})

	for i := range s.names {
		s.schedule(i, now)
	}
	return nil
}

func (s *ScriptedSource) schedule(i int, now time.Time) {
	if i >= len(s.groups) || s.groups[i] == nil || s.closed {
		return
	}
	id := s.groups[i].After(now, s.interval.Pick(s.rng), func(at time.Time) {
		delete(s.pending, i)
		s.say(i, at)
		s.schedule(i, at)
	})
	if id != 0 {
		s.pending[i] = id
	}
}

func (s *ScriptedSource) say(i int, at time.Time) {
	name := s.names[i]
	lines := s.lines[name]
	if len(lines) == 0 {
		lines = genericLines
	}
	s.push(Event{
		Type:      EventMessage,
		Data:      Payload{Speaker: name, Message: lines[s.rng.Intn(len(lines))]},
		Timestamp: at.Format(time.RFC3339),
	})
}

// push hands an event to the inbox without blocking the frame.
func (s *ScriptedSource) push(ev Event) {
	raw, err := Encode(ev)
	if err != nil {
		s.logger.Error("failed to encode scripted event", zap.Error(err))
		return
	}
	select {
	case s.inbox <- raw:
	default:
		s.logger.Debug("inbox full, dropping scripted line")
	}
}

// Close cancels every scheduled line. Safe to call more than once.
func (s *ScriptedSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for i, id := range s.pending {
		if i < len(s.groups) && s.groups[i] != nil {
			s.groups[i].Cancel(id)
		}
	}
	s.pending = make(map[int]timer.ID)
	return nil
}
