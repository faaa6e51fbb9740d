package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Message types kept in the post-game log. Messages without a type were
// said during the communication phase.
const (
	MessageVotingResult = "voting_result"
	MessageVote         = "vote"
	MessageAnalysis     = "analysis"
)

// Message is one entry of the conversation history
type Message struct {
	Speaker   string `json:"speaker"`
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Visible reports whether the message belongs in the post-game log.
func (m Message) Visible() bool {
	switch m.Type {
	case "", MessageVotingResult, MessageVote, MessageAnalysis:
		return true
	default:
		return false
	}
}

// Conversation is the history of one phase of one round
type Conversation struct {
	Round    int       `json:"round"`
	Phase    string    `json:"phase"`
	Messages []Message `json:"messages"`
}

// Persona is the character an agent was told to play
type Persona struct {
	AgentName   string `json:"agent_name"`
	Instruction string `json:"instruction"`
	Description string `json:"description"`
	IsWerewolf  bool   `json:"is_werewolf"`
}

// Role is the persona's job, the fourth word of its instruction
// ("You are a baker, ..." -> "baker").
func (p Persona) Role() string {
	words := strings.Fields(p.Instruction)
	if len(words) < 4 {
		return ""
	}
	return strings.TrimRight(words[3], ".,;:!?")
}

// Team is "Werewolf" or "Villager".
func (p Persona) Team() string {
	if p.IsWerewolf {
		return "Werewolf"
	}
	return "Villager"
}

// AgentAnalysis is the backend's read of one agent's play
type AgentAnalysis struct {
	AgentName          string   `json:"agent_name"`
	BehaviorAnalysis   string   `json:"behavior_analysis"`
	KeyActions         []string `json:"key_actions"`
	SuspiciousPatterns []string `json:"suspicious_patterns"`
	ConfidenceScore    float64  `json:"confidence_score"`
}

type personasResponse struct {
	AgentPersonas []Persona `json:"agent_personas"`
}

type keywordsResponse struct {
	Keywords []string `json:"keywords"`
}

type analysesResponse struct {
	AgentAnalyses []AgentAnalysis `json:"agent_analyses"`
}

// ConversationHistory fetches every round's messages.
func (c *Client) ConversationHistory(ctx context.Context, gameID string) ([]Conversation, error) {
	var history []Conversation
	if err := c.do(ctx, http.MethodGet, gamePath(gameID, "conversation-history"), nil, &history); err != nil {
		return nil, fmt.Errorf("failed to fetch conversation history: %w", err)
	}
	return history, nil
}

// AgentPersonas fetches the personas, werewolf included.
func (c *Client) AgentPersonas(ctx context.Context, gameID string) ([]Persona, error) {
	var resp personasResponse
	if err := c.do(ctx, http.MethodGet, gamePath(gameID, "get-agent-personas"), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch agent personas: %w", err)
	}
	return resp.AgentPersonas, nil
}

// Keywords fetches the keywords the game was played with.
func (c *Client) Keywords(ctx context.Context, gameID string) ([]string, error) {
	var resp keywordsResponse
	if err := c.do(ctx, http.MethodGet, gamePath(gameID, "get-keywords"), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch keywords: %w", err)
	}
	return resp.Keywords, nil
}

// AnalyzeConversation asks the backend to analyse every agent's play.
func (c *Client) AnalyzeConversation(ctx context.Context, gameID string) ([]AgentAnalysis, error) {
	var resp analysesResponse
	if err := c.do(ctx, http.MethodPost, gamePath(gameID, "analyze-conversation"), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to analyze conversation: %w", err)
	}
	return resp.AgentAnalyses, nil
}

// Report is everything the post-game dashboard shows
type Report struct {
	GameID       string
	State        *GameData
	Conversation []Conversation
	Personas     []Persona
	Keywords     []string
	Analyses     []AgentAnalysis
}

// Report fetches the post-game data concurrently. Any failure fails the
// whole report.
func (c *Client) Report(ctx context.Context, gameID string) (*Report, error) {
	r := &Report{GameID: gameID}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		r.Conversation, err = c.ConversationHistory(ctx, gameID)
		return err
	})
	g.Go(func() error {
		var err error
		r.Personas, err = c.AgentPersonas(ctx, gameID)
		return err
	})
	g.Go(func() error {
		var err error
		r.Keywords, err = c.Keywords(ctx, gameID)
		return err
	})
	g.Go(func() error {
		var err error
		r.State, err = c.GameState(ctx, gameID)
		return err
	})
	g.Go(func() error {
		var err error
		r.Analyses, err = c.AnalyzeConversation(ctx, gameID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

// Analysis returns the analysis of one agent.
func (r *Report) Analysis(agent string) (AgentAnalysis, bool) {
	for _, a := range r.Analyses {
		if a.AgentName == agent {
			return a, true
		}
	}
	return AgentAnalysis{}, false
}

// Alive reports whether agent survived to the end.
func (r *Report) Alive(agent string) bool {
	if r.State == nil {
		return true
	}
	return !r.State.IsEliminated(agent)
}

// LogEntry is a visible message with the round and phase it was said in
type LogEntry struct {
	Round int
	Phase string
	Message
}

// Log flattens the visible conversation, oldest first.
func (r *Report) Log() []LogEntry {
	var out []LogEntry
	for _, conv := range r.Conversation {
		for _, m := range conv.Messages {
			if m.Visible() {
				out = append(out, LogEntry{Round: conv.Round, Phase: conv.Phase, Message: m})
			}
		}
	}
	return out
}

// LogFor returns the entries agent said or was mentioned in.
func (r *Report) LogFor(agent string) []LogEntry {
	needle := strings.ToLower(agent)
	var out []LogEntry
	for _, e := range r.Log() {
		if e.Speaker == agent || strings.Contains(strings.ToLower(e.Message.Message), needle) {
			out = append(out, e)
		}
	}
	return out
}
