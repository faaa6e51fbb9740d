// Package backend is the HTTP client for the game backend that runs the
// agents, rounds and votes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Defaults used by the landing page when it creates a game
const (
	DefaultAgents   = 5
	DefaultModel    = "gemini-2.0-flash-001"
	DefaultKeywords = 300
)

// CreateGameRequest is the body of POST /create_game
type CreateGameRequest struct {
	NumAgents   int    `json:"num_agents"`
	Model       string `json:"model"`
	NumKeywords int    `json:"num_keywords"`
}

// CreateGameResponse is the answer to POST /create_game
type CreateGameResponse struct {
	GameID  string `json:"game_id"`
	Message string `json:"message,omitempty"`
}

// GameData is the game state returned by GET /games/{id}
type GameData struct {
	GameID           string   `json:"game_id"`
	Status           string   `json:"status"`
	CurrentRound     int      `json:"current_round"`
	CurrentPhase     string   `json:"current_phase"`
	RemainingAgents  []string `json:"remaining_agents"`
	EliminatedAgents []string `json:"eliminated_agents"`
	Werewolf         string   `json:"werewolf,omitempty"`
	Result           *string  `json:"result"`
}

// Finished reports whether the backend decided the game.
func (d *GameData) Finished() bool {
	return d != nil && d.Result != nil
}

// IsEliminated reports whether name is among the eliminated agents.
func (d *GameData) IsEliminated(name string) bool {
	if d == nil {
		return false
	}
	for _, n := range d.EliminatedAgents {
		if n == name {
			return true
		}
	}
	return false
}

type analysisRequest struct {
	Input string `json:"input"`
}

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Body)
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client talks to one backend.
type Client struct {
	base   string
	http   *http.Client
	logger *zap.Logger
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateGame starts a new game and returns its id.
func (c *Client) CreateGame(ctx context.Context, req CreateGameRequest) (string, error) {
	var resp CreateGameResponse
	if err := c.do(ctx, http.MethodPost, "/create_game", req, &resp); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	if resp.GameID == "" {
		return "", fmt.Errorf("failed to create game: no game id in answer (%s)", resp.Message)
	}
	c.logger.Info("game created", zap.String("game_id", resp.GameID))
	return resp.GameID, nil
}

// StartRound runs the communication round.
func (c *Client) StartRound(ctx context.Context, gameID string) error {
	if err := c.do(ctx, http.MethodPost, gamePath(gameID, "round"), nil, nil); err != nil {
		return fmt.Errorf("failed to start round: %w", err)
	}
	return nil
}

// StartVoting runs the voting phase.
func (c *Client) StartVoting(ctx context.Context, gameID string) error {
	if err := c.do(ctx, http.MethodPost, gamePath(gameID, "vote"), nil, nil); err != nil {
		return fmt.Errorf("failed to start voting: %w", err)
	}
	return nil
}

// StartAnalysis submits the player's analysis text.
func (c *Client) StartAnalysis(ctx context.Context, gameID, input string) error {
	if err := c.do(ctx, http.MethodPost, gamePath(gameID, "analysis"), analysisRequest{Input: input}, nil); err != nil {
		return fmt.Errorf("failed to submit analysis: %w", err)
	}
	return nil
}

// GameState fetches the current game state.
func (c *Client) GameState(ctx context.Context, gameID string) (*GameData, error) {
	var data GameData
	if err := c.do(ctx, http.MethodGet, gamePath(gameID, ""), nil, &data); err != nil {
		return nil, fmt.Errorf("failed to fetch game state: %w", err)
	}
	return &data, nil
}

// StreamURL is the Server-Sent Events feed of a game.
func (c *Client) StreamURL(gameID string) string {
	return c.base + gamePath(gameID, "stream")
}

func gamePath(gameID, action string) string {
	p := "/games/" + url.PathEscape(gameID)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
