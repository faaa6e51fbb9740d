package postgame

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chosenoffset.com/cipherwolves/internal/backend"
	"chosenoffset.com/cipherwolves/internal/backend/backendtest"
	"chosenoffset.com/cipherwolves/internal/render"
	"chosenoffset.com/cipherwolves/internal/render/rendertest"
)

func sampleReport() *backend.Report {
	s := backendtest.SampleReport()
	result := "villagers_win"
	return &backend.Report{
		GameID: "g1",
		State: &backend.GameData{
			GameID:           "g1",
			Status:           "finished",
			CurrentRound:     2,
			RemainingAgents:  []string{"agent_Alice", "agent_Bob", "agent_Cindy", "agent_Elise"},
			EliminatedAgents: []string{"agent_Dom"},
			Result:           &result,
		},
		Conversation: s.Conversation,
		Personas:     s.Personas,
		Keywords:     s.Keywords,
		Analyses:     s.Analyses,
	}
}

func newDashboard(report *backend.Report, w, h int) (*Dashboard, *rendertest.Recorder, render.Image) {
	rec := rendertest.NewRecorder()
	return New(report, rec, w, h), rec, rec.NewImage(w, h)
}

func press(d *Dashboard, keys ...render.Key) {
	for _, k := range keys {
		in := rendertest.NewInput()
		in.JustPressed[k] = true
		d.Update(in)
	}
}

func TestDrawRevealsTeams(t *testing.T) {
	d, rec, dst := newDashboard(sampleReport(), 1280, 800)
	d.Draw(rec, dst)

	texts := rec.Texts()
	assert.Contains(t, texts, "Result: villagers win  |  Keywords: 5")
	assert.Contains(t, texts, "Game Keywords")
	assert.Contains(t, texts, "bread, moon, anvil, herbs, harvest")
	assert.Contains(t, texts, "Dom")
	assert.Contains(t, texts, "merchant")
	assert.Contains(t, texts, "Werewolf  |  Eliminated")
	assert.Contains(t, texts, "Villager  |  Alive")
}

func TestDrawFullLogSkipsHiddenMessages(t *testing.T) {
	d, rec, dst := newDashboard(sampleReport(), 1280, 800)
	d.Draw(rec, dst)

	texts := rec.Texts()
	assert.Contains(t, texts, "Full Game Log")
	assert.Contains(t, texts, "Round 1 : communication - Alice")
	assert.Contains(t, texts, "The bread was late today.")
	assert.Contains(t, texts, "Round 2 : voting - system")
	assert.NotContains(t, texts, "internal bookkeeping")
}

func TestSelectedAnalysis(t *testing.T) {
	d, rec, dst := newDashboard(sampleReport(), 1280, 800)
	d.Draw(rec, dst)
	assert.Contains(t, rec.Texts(), "Confidence: 80%")
	assert.Contains(t, rec.Texts(), "• Raised the late bread")

	// Left wraps to the last persona
	press(d, render.KeyLeft)
	assert.Equal(t, 4, d.Selected())

	press(d, render.KeyRight, render.KeyRight, render.KeyRight, render.KeyRight)
	assert.Equal(t, 3, d.Selected())

	rec.Reset()
	d.Draw(rec, dst)
	texts := rec.Texts()
	assert.Contains(t, texts, "Confidence: 92%")
	assert.Contains(t, texts, "Suspicious Patterns")
	assert.Contains(t, texts, "• Deflection")
	assert.Contains(t, texts, "Instruction Summary")
	assert.Contains(t, texts, "You are a merchant; hide your nature.")
	assert.Contains(t, texts, "Deflected blame onto Alice.")
}

func TestMissingAnalysis(t *testing.T) {
	report := sampleReport()
	report.Analyses = nil
	d, rec, dst := newDashboard(report, 1280, 800)
	d.Draw(rec, dst)

	assert.Contains(t, rec.Texts(), "No analysis available")
	assert.NotContains(t, rec.Texts(), "Confidence: 80%")
}

func TestConversationsTab(t *testing.T) {
	d, rec, dst := newDashboard(sampleReport(), 1280, 800)
	press(d, render.KeyRight, render.KeyRight, render.KeyRight, render.KeyTab)
	assert.Equal(t, TabConversations, d.CurrentTab())

	d.Draw(rec, dst)
	texts := rec.Texts()
	assert.Contains(t, texts, "Round 1 : communication - Dom  [Speaking]")
	assert.Contains(t, texts, "Round 2 : voting - system  [Mentioned]")
	assert.NotContains(t, texts, "Round 1 : voting - Bob  [Mentioned]")

	press(d, render.KeyTab)
	assert.Equal(t, TabAnalysis, d.CurrentTab())
}

func TestConversationsTabEmpty(t *testing.T) {
	d, rec, dst := newDashboard(sampleReport(), 1280, 800)
	press(d, render.KeyLeft, render.KeyTab)
	d.Draw(rec, dst)

	assert.Contains(t, rec.Texts(), "No conversations found for Elise")
}

func TestLogScrollIsClamped(t *testing.T) {
	d, rec, dst := newDashboard(sampleReport(), 1280, 200)

	press(d, render.KeyUp)
	assert.Equal(t, 0, d.Scroll())

	for i := 0; i < 10; i++ {
		press(d, render.KeyDown)
	}
	assert.Equal(t, 10, d.Scroll())

	d.Draw(rec, dst)
	// Eight log lines, two fit
	assert.Equal(t, 6, d.Scroll())
	assert.Contains(t, rec.Texts(), "agent_Dom was eliminated")
	assert.NotContains(t, rec.Texts(), "The bread was late today.")
}

func TestNoPersonas(t *testing.T) {
	report := sampleReport()
	report.Personas = nil
	d, rec, dst := newDashboard(report, 1280, 800)

	press(d, render.KeyRight)
	assert.Equal(t, 0, d.Selected())

	d.Draw(rec, dst)
	assert.Contains(t, rec.Texts(), "No personas reported")
}
