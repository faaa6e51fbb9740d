// Package backendtest runs an in-process fake of the game backend: the REST
// endpoints record their calls and the stream endpoint serves events the test
// publishes.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/julienschmidt/httprouter"
	"github.com/r3labs/sse/v2"

	"chosenoffset.com/cipherwolves/internal/backend"
	"chosenoffset.com/cipherwolves/internal/bridge"
)

type failure struct {
	code int
	left int
}

// Call is one recorded REST request.
type Call struct {
	Method string
	Path   string
	GameID string
	Body   []byte
}

// Server is the fake backend.
type Server struct {
	*httptest.Server
	events *sse.Server

	mu      sync.Mutex
	calls   []Call
	games   map[string]backend.GameData
	reports map[string]Report
	fail    map[string]*failure
	nextID  int

	// OnCall runs after a REST call is recorded, before it is answered.
	OnCall func(Call)
}

// New starts a fake backend. Close it when done.
func New() *Server {
	s := &Server{
		events:  sse.New(),
		games:   make(map[string]backend.GameData),
		reports: make(map[string]Report),
		fail:    make(map[string]*failure),
	}
	s.events.AutoReplay = true

	router := httprouter.New()
	router.POST("/create_game", s.createGame)
	router.GET("/games/:id", s.gameState)
	router.POST("/games/:id/round", s.action)
	router.POST("/games/:id/vote", s.action)
	router.POST("/games/:id/analysis", s.action)
	router.GET("/games/:id/stream", s.stream)
	router.GET("/games/:id/conversation-history", s.conversationHistory)
	router.GET("/games/:id/get-agent-personas", s.agentPersonas)
	router.GET("/games/:id/get-keywords", s.keywords)
	router.POST("/games/:id/analyze-conversation", s.analyzeConversation)

	s.Server = httptest.NewServer(router)
	return s
}

// Close ends open streams and stops the server.
func (s *Server) Close() {
	s.events.Close()
	s.Server.CloseClientConnections()
	s.Server.Close()
}

// SetGame stores the state served for a game.
func (s *Server) SetGame(data backend.GameData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[data.GameID] = data
}

// Report is the post-game data served for a game
type Report struct {
	Conversation []backend.Conversation
	Personas     []backend.Persona
	Keywords     []string
	Analyses     []backend.AgentAnalysis
}

// SetReport stores the post-game data served for a game.
func (s *Server) SetReport(gameID string, r Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[gameID] = r
}

// Fail makes the next n requests to path answer with code.
func (s *Server) Fail(path string, code, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[path] = &failure{code: code, left: n}
}

// Calls returns the recorded calls in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts recorded calls to path.
func (s *Server) CallCount(path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Path == path {
			n++
		}
	}
	return n
}

// Publish sends a raw event on the game's stream.
func (s *Server) Publish(gameID string, raw []byte) {
	s.ensureStream(gameID)
	s.events.Publish(gameID, &sse.Event{Data: raw})
}

// PublishEvent encodes and sends an event on the game's stream.
func (s *Server) PublishEvent(gameID string, ev bridge.Event) {
	raw, err := bridge.Encode(ev)
	if err != nil {
		panic(fmt.Sprintf("backendtest: encode event: %v", err))
	}
	s.Publish(gameID, raw)
}

func (s *Server) ensureStream(gameID string) {
	if !s.events.StreamExists(gameID) {
		s.events.CreateStream(gameID)
	}
}

func (s *Server) record(r *http.Request, gameID string) (Call, int) {
	body, _ := io.ReadAll(r.Body)
	call := Call{Method: r.Method, Path: r.URL.Path, GameID: gameID, Body: body}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	code := 0
	if f, ok := s.fail[call.Path]; ok {
		code = f.code
		if f.left--; f.left <= 0 {
			delete(s.fail, call.Path)
		}
	}
	hook := s.OnCall
	s.mu.Unlock()

	if code == 0 && hook != nil {
		hook(call)
	}
	return call, code
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	_, code := s.record(r, "")
	if code != 0 {
		http.Error(w, "create failed", code)
		return
	}

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("game-%d", s.nextID)
	s.games[id] = backend.GameData{GameID: id, Status: "active", CurrentRound: 1, CurrentPhase: "communication"}
	s.mu.Unlock()

	s.ensureStream(id)
	writeJSON(w, backend.CreateGameResponse{GameID: id, Message: "game created"})
}

func (s *Server) gameState(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	_, code := s.record(r, id)
	if code != 0 {
		http.Error(w, "state failed", code)
		return
	}

	s.mu.Lock()
	data, ok := s.games[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	writeJSON(w, data)
}

func (s *Server) action(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	_, code := s.record(r, ps.ByName("id"))
	if code != 0 {
		http.Error(w, "action failed", code)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// report records the call and looks up the game's post-game data. It
// answers the request itself and returns false on failure.
func (s *Server) report(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (Report, bool) {
	id := ps.ByName("id")
	_, code := s.record(r, id)
	if code != 0 {
		http.Error(w, "report failed", code)
		return Report{}, false
	}

	s.mu.Lock()
	rep, ok := s.reports[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return Report{}, false
	}
	return rep, true
}

func (s *Server) conversationHistory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if rep, ok := s.report(w, r, ps); ok {
		writeJSON(w, rep.Conversation)
	}
}

func (s *Server) agentPersonas(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if rep, ok := s.report(w, r, ps); ok {
		writeJSON(w, map[string]any{"agent_personas": rep.Personas})
	}
}

func (s *Server) keywords(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if rep, ok := s.report(w, r, ps); ok {
		writeJSON(w, map[string]any{"keywords": rep.Keywords})
	}
}

func (s *Server) analyzeConversation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if rep, ok := s.report(w, r, ps); ok {
		writeJSON(w, map[string]any{"agent_analyses": rep.Analyses})
	}
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	s.ensureStream(id)

	q := r.URL.Query()
	q.Set("stream", id)
	r.URL.RawQuery = q.Encode()
	s.events.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// SampleReport is a finished five-agent game where Dom was the werewolf and
// was voted out in round 2.
func SampleReport() Report {
	return Report{
		Conversation: []backend.Conversation{
			{Round: 1, Phase: "communication", Messages: []backend.Message{
				{Speaker: "agent_Alice", Message: "The bread was late today.", Timestamp: "2025-06-01T10:00:00Z"},
				{Speaker: "agent_Dom", Message: "Alice always blames the ovens.", Timestamp: "2025-06-01T10:00:05Z"},
			}},
			{Round: 1, Phase: "voting", Messages: []backend.Message{
				{Speaker: "agent_Bob", Message: "I vote for agent_Cindy", Type: backend.MessageVote, Timestamp: "2025-06-01T10:01:00Z"},
				{Speaker: "system", Message: "internal bookkeeping", Type: "debug", Timestamp: "2025-06-01T10:01:01Z"},
			}},
			{Round: 2, Phase: "voting", Messages: []backend.Message{
				{Speaker: "system", Message: "agent_Dom was eliminated", Type: backend.MessageVotingResult, Timestamp: "2025-06-01T10:05:00Z"},
			}},
		},
		Personas: []backend.Persona{
			{AgentName: "agent_Alice", Instruction: "You are a baker, warm and chatty."},
			{AgentName: "agent_Bob", Instruction: "You are a blacksmith. Few words."},
			{AgentName: "agent_Cindy", Instruction: "You are a healer who listens."},
			{AgentName: "agent_Dom", Instruction: "You are a merchant; hide your nature.", IsWerewolf: true},
			{AgentName: "agent_Elise", Instruction: "You are a farmer!"},
		},
		Keywords: []string{"bread", "moon", "anvil", "herbs", "harvest"},
		Analyses: []backend.AgentAnalysis{
			{AgentName: "agent_Alice", BehaviorAnalysis: "Opened every round with small talk.", KeyActions: []string{"Raised the late bread"}, ConfidenceScore: 0.8},
			{AgentName: "agent_Bob", BehaviorAnalysis: "Voted early.", KeyActions: []string{"Accused Cindy"}, ConfidenceScore: 0.6},
			{AgentName: "agent_Cindy", BehaviorAnalysis: "Mostly listened.", ConfidenceScore: 0.5},
			{AgentName: "agent_Dom", BehaviorAnalysis: "Deflected blame onto Alice.", KeyActions: []string{"Blamed the ovens"}, SuspiciousPatterns: []string{"Deflection"}, ConfidenceScore: 0.92},
			{AgentName: "agent_Elise", BehaviorAnalysis: "Agreed with the majority.", ConfidenceScore: 0.4},
		},
	}
}
