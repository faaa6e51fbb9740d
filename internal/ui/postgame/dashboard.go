// Package postgame is the screen shown once the backend decides the game:
// who each agent was, how the backend read their play, and the full log.
package postgame

import (
	"fmt"
	"image/color"
	"strings"

	"chosenoffset.com/cipherwolves/internal/backend"
	"chosenoffset.com/cipherwolves/internal/bridge"
	"chosenoffset.com/cipherwolves/internal/render"
)

// Tab selects what the detail pane shows
type Tab int

const (
	TabAnalysis      Tab = iota // Persona and behaviour analysis
	TabConversations            // Lines the agent said or was named in
)

const (
	headerHeight = 52.0
	cardHeight   = 74.0
	maxKeywords  = 6 // Lines of keywords before the log starts
)

// Dashboard renders a post-game report
type Dashboard struct {
	Width, Height int

	report   *backend.Report
	measure  render.TextMeasurer
	selected int
	tab      Tab
	scroll   int // Log lines hidden above the top of the full log

	bgColor     color.RGBA
	cardColor   color.RGBA
	borderColor color.RGBA
	accentColor color.RGBA
	textColor   color.RGBA
	dimColor    color.RGBA
	wolfColor   color.RGBA
	textSize    float64
	lineHeight  float64
	padding     float64
}

// New creates a dashboard for a report.
func New(report *backend.Report, measure render.TextMeasurer, width, height int) *Dashboard {
	return &Dashboard{
		Width:       width,
		Height:      height,
		report:      report,
		measure:     measure,
		bgColor:     color.RGBA{21, 19, 10, 255},
		cardColor:   color.RGBA{42, 37, 32, 255},
		borderColor: color.RGBA{90, 75, 50, 255},
		accentColor: color.RGBA{245, 158, 11, 255},
		textColor:   color.RGBA{240, 235, 220, 255},
		dimColor:    color.RGBA{170, 160, 140, 255},
		wolfColor:   color.RGBA{226, 20, 20, 255},
		textSize:    13,
		lineHeight:  17,
		padding:     14,
	}
}

// Report returns the report being shown.
func (d *Dashboard) Report() *backend.Report { return d.report }

// Selected is the index of the persona in the detail pane.
func (d *Dashboard) Selected() int { return d.selected }

// CurrentTab returns the detail tab.
func (d *Dashboard) CurrentTab() Tab { return d.tab }

// Scroll returns how many log lines are scrolled past.
func (d *Dashboard) Scroll() int { return d.scroll }

// Resize handles window resize.
func (d *Dashboard) Resize(width, height int) {
	d.Width, d.Height = width, height
}

// Update handles selection (Left/Right), the tab (Tab) and log scrolling
// (Up/Down).
func (d *Dashboard) Update(in render.InputManager) {
	if in == nil {
		return
	}
	n := len(d.report.Personas)
	if n > 0 {
		if in.IsKeyJustPressed(render.KeyRight) {
			d.selected = (d.selected + 1) % n
		}
		if in.IsKeyJustPressed(render.KeyLeft) {
			d.selected = (d.selected + n - 1) % n
		}
	}
	if in.IsKeyJustPressed(render.KeyTab) {
		if d.tab == TabAnalysis {
			d.tab = TabConversations
		} else {
			d.tab = TabAnalysis
		}
	}
	if in.IsKeyJustPressed(render.KeyDown) {
		d.scroll++
	}
	if in.IsKeyJustPressed(render.KeyUp) && d.scroll > 0 {
		d.scroll--
	}
}

func (d *Dashboard) style(clr color.Color, bold bool) render.TextStyle {
	return render.TextStyle{Size: d.textSize, Bold: bold, Color: clr}
}

func (d *Dashboard) wrap(text string, width float64) []string {
	if d.measure == nil {
		return []string{text}
	}
	return render.WrapText(d.measure, text, d.style(d.textColor, false), width)
}

// Draw renders the dashboard
func (d *Dashboard) Draw(r render.Renderer, dst render.Image) {
	dst.Fill(d.bgColor)

	d.drawHeader(r, dst)

	split := float64(d.Width) * 0.38
	d.drawSidebar(r, dst, d.padding, headerHeight+d.padding, split-d.padding*1.5)
	d.drawMain(r, dst, split+d.padding/2, headerHeight+d.padding, float64(d.Width)-split-d.padding*1.5)
}

func (d *Dashboard) drawHeader(r render.Renderer, dst render.Image) {
	r.FillRect(dst, 0, 0, float32(d.Width), headerHeight, d.cardColor)
	r.FillRect(dst, 0, headerHeight-1, float32(d.Width), 1, d.borderColor)

	x := d.padding
	r.DrawText(dst, "CipherWolves", x, 10, render.TextStyle{Size: 20, Bold: true, Color: d.accentColor})

	summary := fmt.Sprintf("Keywords: %d", len(d.report.Keywords))
	if st := d.report.State; st != nil && st.Result != nil {
		summary = "Result: " + resultLabel(*st.Result) + "  |  " + summary
	}
	r.DrawText(dst, summary, x+170, 14, d.style(d.textColor, true))

	hint := "Left/Right: agent  |  Tab: view  |  Up/Down: scroll log  |  Esc: quit"
	r.DrawText(dst, hint, float64(d.Width)-d.padding, 18, render.TextStyle{Size: 11, Color: d.dimColor, Align: render.AlignEnd})
}

// resultLabel turns "villagers_win" into "villagers win".
func resultLabel(result string) string {
	return strings.ReplaceAll(result, "_", " ")
}

// drawSidebar draws the keywords and the full game log.
func (d *Dashboard) drawSidebar(r render.Renderer, dst render.Image, x, y, w float64) {
	bottom := float64(d.Height) - d.padding
	r.FillRect(dst, float32(x), float32(y), float32(w), float32(bottom-y), d.cardColor)
	r.StrokeRect(dst, float32(x), float32(y), float32(w), float32(bottom-y), 1, d.borderColor)

	inner := x + 10
	textW := w - 20
	y += 10

	r.DrawText(dst, "Game Keywords", inner, y, d.style(d.accentColor, true))
	y += d.lineHeight + 2
	kw := d.wrap(strings.Join(d.report.Keywords, ", "), textW)
	if len(kw) > maxKeywords {
		kw = append(kw[:maxKeywords-1], "...")
	}
	for _, line := range kw {
		r.DrawText(dst, line, inner, y, d.style(d.dimColor, false))
		y += d.lineHeight
	}

	y += d.lineHeight / 2
	r.DrawText(dst, "Full Game Log", inner, y, d.style(d.accentColor, true))
	y += d.lineHeight + 2

	lines := d.logLines(d.report.Log(), textW, "")
	room := max(int((bottom-10-y)/d.lineHeight), 0)
	if maxScroll := len(lines) - room; d.scroll > maxScroll {
		d.scroll = max(maxScroll, 0)
	}
	d.drawLines(r, dst, lines[d.scroll:], inner, y, room)
}

type styledLine struct {
	text  string
	color color.Color
	bold  bool
}

// logLines formats entries as a heading line and wrapped message lines.
// When agent is set, headings say whether the agent spoke or was named.
func (d *Dashboard) logLines(entries []backend.LogEntry, width float64, agent string) []styledLine {
	var out []styledLine
	for _, e := range entries {
		head := fmt.Sprintf("Round %d : %s - %s", e.Round, e.Phase, bridge.DisplayName(e.Speaker))
		if agent != "" {
			if e.Speaker == agent {
				head += "  [Speaking]"
			} else {
				head += "  [Mentioned]"
			}
		}
		out = append(out, styledLine{text: head, color: d.dimColor})
		for _, l := range d.wrap(e.Message.Message, width) {
			out = append(out, styledLine{text: l, color: d.textColor})
		}
	}
	return out
}

func (d *Dashboard) drawLines(r render.Renderer, dst render.Image, lines []styledLine, x, y float64, room int) {
	for i, l := range lines {
		if i >= room {
			return
		}
		r.DrawText(dst, l.text, x, y, d.style(l.color, l.bold))
		y += d.lineHeight
	}
}

// drawMain draws one card per persona and the detail pane of the selected
// one.
func (d *Dashboard) drawMain(r render.Renderer, dst render.Image, x, y, w float64) {
	r.DrawText(dst, "Character Analysis", x, y, render.TextStyle{Size: 16, Bold: true, Color: d.textColor})
	y += 26

	personas := d.report.Personas
	if len(personas) == 0 {
		r.DrawText(dst, "No personas reported", x, y, d.style(d.dimColor, false))
		return
	}

	gap := 8.0
	cardW := (w - gap*float64(len(personas)-1)) / float64(len(personas))
	for i, p := range personas {
		cx := x + float64(i)*(cardW+gap)
		d.drawCard(r, dst, p, i == d.selected, cx, y, cardW)
	}
	y += cardHeight + 12

	if d.selected >= len(personas) {
		d.selected = 0
	}
	d.drawDetail(r, dst, personas[d.selected], x, y, w)
}

func (d *Dashboard) drawCard(r render.Renderer, dst render.Image, p backend.Persona, selected bool, x, y, w float64) {
	r.FillRect(dst, float32(x), float32(y), float32(w), cardHeight, d.cardColor)
	border, stroke := d.borderColor, float32(1)
	if selected {
		border, stroke = d.accentColor, 2
	}
	r.StrokeRect(dst, float32(x), float32(y), float32(w), cardHeight, stroke, border)

	tx := x + 8
	r.DrawText(dst, bridge.DisplayName(p.AgentName), tx, y+8, d.style(d.textColor, true))
	r.DrawText(dst, p.Role(), tx, y+8+d.lineHeight, d.style(d.dimColor, false))

	teamColor := d.accentColor
	if p.IsWerewolf {
		teamColor = d.wolfColor
	}
	status := "Alive"
	if !d.report.Alive(p.AgentName) {
		status = "Eliminated"
	}
	r.DrawText(dst, p.Team()+"  |  "+status, tx, y+8+2*d.lineHeight, d.style(teamColor, false))
}

func (d *Dashboard) drawDetail(r render.Renderer, dst render.Image, p backend.Persona, x, y, w float64) {
	bottom := float64(d.Height) - d.padding
	r.FillRect(dst, float32(x), float32(y), float32(w), float32(bottom-y), d.cardColor)
	r.StrokeRect(dst, float32(x), float32(y), float32(w), float32(bottom-y), 1, d.borderColor)

	inner := x + 12
	textW := w - 24
	y += 10

	name := bridge.DisplayName(p.AgentName)
	r.DrawText(dst, name, inner, y, render.TextStyle{Size: 16, Bold: true, Color: d.textColor})
	y += 22

	tabs := []string{"Personas & Analysis", "Conversations"}
	tx := inner
	for i, label := range tabs {
		clr := d.dimColor
		if Tab(i) == d.tab {
			clr = d.accentColor
		}
		r.DrawText(dst, label, tx, y, d.style(clr, Tab(i) == d.tab))
		var tw float64
		if d.measure != nil {
			tw, _ = d.measure.MeasureText(label, d.style(clr, true))
		}
		tx += tw + 24
	}
	y += d.lineHeight + 8

	var lines []styledLine
	switch d.tab {
	case TabAnalysis:
		lines = d.analysisLines(p, textW)
	case TabConversations:
		lines = d.logLines(d.report.LogFor(p.AgentName), textW, p.AgentName)
		if len(lines) == 0 {
			lines = []styledLine{{text: "No conversations found for " + name, color: d.dimColor}}
		}
	}
	d.drawLines(r, dst, lines, inner, y, int((bottom-10-y)/d.lineHeight))
}

func (d *Dashboard) analysisLines(p backend.Persona, width float64) []styledLine {
	heading := func(text string) styledLine {
		return styledLine{text: text, color: d.accentColor, bold: true}
	}
	body := func(text string) []styledLine {
		var out []styledLine
		for _, l := range d.wrap(text, width) {
			out = append(out, styledLine{text: l, color: d.textColor})
		}
		return out
	}

	status := "Alive"
	if !d.report.Alive(p.AgentName) {
		status = "Eliminated"
	}
	lines := []styledLine{
		{text: fmt.Sprintf("Role: %s  |  Team: %s  |  Status: %s", p.Role(), p.Team(), status), color: d.dimColor},
	}

	a, ok := d.report.Analysis(p.AgentName)
	if ok {
		lines = append(lines, styledLine{text: fmt.Sprintf("Confidence: %.0f%%", a.ConfidenceScore*100), color: d.dimColor})
	}

	lines = append(lines, heading("Key Insights"))
	if ok && len(a.KeyActions) > 0 {
		for _, k := range a.KeyActions {
			lines = append(lines, body("• "+k)...)
		}
	} else {
		lines = append(lines, styledLine{text: "None recorded", color: d.dimColor})
	}
	if ok && len(a.SuspiciousPatterns) > 0 {
		lines = append(lines, heading("Suspicious Patterns"))
		for _, s := range a.SuspiciousPatterns {
			lines = append(lines, body("• "+s)...)
		}
	}

	lines = append(lines, heading("Instruction Summary"))
	lines = append(lines, body(p.Instruction)...)

	lines = append(lines, heading("Behavior Analysis"))
	if ok && a.BehaviorAnalysis != "" {
		lines = append(lines, body(a.BehaviorAnalysis)...)
	} else {
		lines = append(lines, styledLine{text: "No analysis available", color: d.dimColor})
	}
	return lines
}
