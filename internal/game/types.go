package game

import (
	"context"

	"chosenoffset.com/cipherwolves/internal/backend"
	"chosenoffset.com/cipherwolves/internal/bridge"
	"chosenoffset.com/cipherwolves/internal/render"
)

// Backend is the part of the game backend the view drives. *backend.Client
// satisfies it.
type Backend interface {
	StartRound(ctx context.Context, gameID string) error
	StartVoting(ctx context.Context, gameID string) error
	StartAnalysis(ctx context.Context, gameID, input string) error
	GameState(ctx context.Context, gameID string) (*backend.GameData, error)
	Report(ctx context.Context, gameID string) (*backend.Report, error)
}

// Notice is an on-screen message that fades over time.
type Notice struct {
	Text     string
	TimeLeft float64 // Seconds remaining
	MaxTime  float64 // Initial duration
}

// callKind names a backend request made by the phase flow
type callKind int

const (
	callState callKind = iota
	callRound
	callVote
	callAnalysis
	callReport
)

func (k callKind) String() string {
	switch k {
	case callRound:
		return "round"
	case callVote:
		return "vote"
	case callAnalysis:
		return "analysis"
	case callReport:
		return "report"
	default:
		return "state"
	}
}

// callResult is handed from a request goroutine back to Update.
type callResult struct {
	kind   callKind
	phase  bridge.Phase // Phase the call was made for
	state  *backend.GameData
	report *backend.Report
	err    error
}

// imageResult is a finished background load.
type imageResult struct {
	img render.Image
	err error
}
