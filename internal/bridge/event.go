// Package bridge turns backend stream events into speech markers, chat log
// entries and phase changes.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType names a stream event
type EventType string

const (
	EventStatus           EventType = "status"
	EventMessage          EventType = "message"
	EventVoteDetail       EventType = "vote_detail"
	EventAnalysisResponse EventType = "analysis_response"
	EventVote             EventType = "vote"
)

// Status values carried by status events
const (
	StatusConnected          = "connected"
	StatusKeepAlive          = "keep_alive"
	StatusWaitingForAnalysis = "waiting_for_analysis"
	StatusVoting             = "voting"
	StatusInProgress         = "in_progress"
	StatusSkipped            = "skipped"
)

// ErrMissingType is returned for events without a type.
var ErrMissingType = errors.New("event has no type")

// Payload is the union of every field the backend sends in data.
type Payload struct {
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
	Speaker   string `json:"speaker,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Vote      string `json:"vote,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
	Response  string `json:"response,omitempty"`
	Action    string `json:"action,omitempty"`

	// Nil when nobody was eliminated
	EliminatedAgent *string `json:"eliminated_agent,omitempty"`
	Result          *string `json:"result,omitempty"`
}

// Event is one decoded stream event
type Event struct {
	Type      EventType `json:"type"`
	Data      Payload   `json:"data"`
	Timestamp string    `json:"timestamp"`
}

// Decode parses one raw event.
func Decode(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, ErrMissingType
	}
	return ev, nil
}

// Encode renders an event the way the backend sends it.
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return data, nil
}

// Line returns the speaker and chat text an event contributes, if any.
func (ev Event) Line() (speaker, text string, ok bool) {
	d := ev.Data
	switch ev.Type {
	case EventMessage:
		if d.Speaker != "" && d.Message != "" {
			return d.Speaker, d.Message, true
		}
	case EventVoteDetail:
		if d.Agent != "" && d.Vote != "" && d.Reasoning != "" {
			return d.Agent, fmt.Sprintf("I vote %s because %s", d.Vote, d.Reasoning), true
		}
	case EventAnalysisResponse:
		if d.Agent != "" && d.Response != "" {
			return d.Agent, d.Response, true
		}
	case EventVote:
		if d.Action != "" {
			if d.EliminatedAgent == nil || *d.EliminatedAgent == "" {
				return SystemSpeaker, "No agent is eliminated", true
			}
			return SystemSpeaker, "Eliminated Agent: " + *d.EliminatedAgent, true
		}
	}
	return "", "", false
}

// SystemSpeaker is the chat author of game announcements.
const SystemSpeaker = "System"
