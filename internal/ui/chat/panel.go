// Package chat provides the side panel UI component: game status, the chat
// log of what the agents said, and the analysis input line.
package chat

import (
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"chosenoffset.com/cipherwolves/internal/render"
)

// InputMode defines what the panel is waiting for
type InputMode int

const (
	ModeWatch      InputMode = iota // Read-only, the backend is driving
	ModeAnalysis                    // Typing the analysis text
	ModeSubmitting                  // Analysis sent, waiting for the backend
)

// Status is the game summary shown at the top of the panel
type Status struct {
	GameID     string
	Round      int
	Phase      string
	Connected  bool
	Remaining  int
	Eliminated int
	Result     string // Empty while the game runs
}

// Entry is a single entry in the chat log
type Entry struct {
	Speaker string
	Text    string
	Lines   []string // Wrapped lines for display
	Color   color.Color
}

// Panel is the chat side panel
type Panel struct {
	// Dimensions
	X, Y          int
	Width, Height int

	measure render.TextMeasurer
	entries []Entry
	status  Status

	inputMode InputMode
	input     []rune
	maxInput  int
	runeBuf   []rune

	// Called with the trimmed text when the player presses Enter
	OnSubmit func(text string)

	// Visual settings
	bgColor     color.RGBA
	borderColor color.RGBA
	textColor   color.RGBA
	dimColor    color.RGBA
	systemColor color.RGBA
	textSize    float64
	lineHeight  float64
	padding     float64
	maxEntries  int
}

// SystemSpeaker labels entries that did not come from an agent.
const SystemSpeaker = "System"

// NewPanel creates a new chat panel
func NewPanel(x, y, width, height int, measure render.TextMeasurer) *Panel {
	return &Panel{
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		measure:     measure,
		maxInput:    500,
		bgColor:     color.RGBA{28, 24, 16, 235},
		borderColor: color.RGBA{120, 90, 40, 255},
		textColor:   color.RGBA{230, 225, 210, 255},
		dimColor:    color.RGBA{150, 140, 120, 255},
		systemColor: color.RGBA{255, 190, 80, 255},
		textSize:    13,
		lineHeight:  17,
		padding:     10,
		maxEntries:  100,
	}
}

// AddMessage adds a line said by speaker.
func (p *Panel) AddMessage(speaker, text string, clr color.Color) {
	if clr == nil {
		clr = p.textColor
	}
	p.entries = append(p.entries, Entry{
		Speaker: speaker,
		Text:    text,
		Lines:   p.wrap(speaker + ": " + text),
		Color:   clr,
	})

	// Keep log size reasonable
	if len(p.entries) > p.maxEntries {
		p.entries = append([]Entry(nil), p.entries[len(p.entries)-p.maxEntries:]...)
	}
}

// AddSystemMessage adds a message from the client itself.
func (p *Panel) AddSystemMessage(text string) {
	p.AddMessage(SystemSpeaker, text, p.systemColor)
}

// Entries returns the log, oldest first.
func (p *Panel) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// SetStatus replaces the summary.
func (p *Panel) SetStatus(s Status) {
	p.status = s
}

// Status returns the summary.
func (p *Panel) Status() Status {
	return p.status
}

// SetInputMode switches modes. Entering analysis clears the input line.
func (p *Panel) SetInputMode(m InputMode) {
	if m == ModeAnalysis && p.inputMode != ModeAnalysis {
		p.input = p.input[:0]
	}
	p.inputMode = m
}

// GetInputMode returns the current input mode
func (p *Panel) GetInputMode() InputMode {
	return p.inputMode
}

// Input returns the text typed so far.
func (p *Panel) Input() string {
	return string(p.input)
}

// Resize updates the panel dimensions when the window is resized
func (p *Panel) Resize(x, y, width, height int) {
	if width == p.Width && height == p.Height && x == p.X && y == p.Y {
		return
	}
	p.X, p.Y, p.Width, p.Height = x, y, width, height

	// Re-wrap the log for the new width
	for i := range p.entries {
		e := &p.entries[i]
		e.Lines = p.wrap(e.Speaker + ": " + e.Text)
	}
}

// Update handles typing in analysis mode and returns true when text was
// submitted.
func (p *Panel) Update(in render.InputManager) bool {
	if p.inputMode != ModeAnalysis || in == nil {
		return false
	}

	p.runeBuf = in.AppendInputChars(p.runeBuf[:0])
	for _, r := range p.runeBuf {
		if r < ' ' || len(p.input) >= p.maxInput {
			continue
		}
		p.input = append(p.input, r)
	}

	if in.IsKeyJustPressed(render.KeyBackspace) && len(p.input) > 0 {
		p.input = p.input[:len(p.input)-1]
	}

	if in.IsKeyJustPressed(render.KeyEnter) {
		text := strings.TrimSpace(string(p.input))
		if text == "" {
			return false
		}
		p.inputMode = ModeSubmitting
		p.input = p.input[:0]
		if p.OnSubmit != nil {
			p.OnSubmit(text)
		}
		return true
	}
	return false
}

func (p *Panel) style(clr color.Color, bold bool) render.TextStyle {
	return render.TextStyle{Size: p.textSize, Bold: bold, Color: clr}
}

func (p *Panel) wrap(text string) []string {
	if p.measure == nil {
		return []string{text}
	}
	return render.WrapText(p.measure, text, p.style(p.textColor, false), float64(p.Width)-p.padding*2)
}

// Draw renders the panel
func (p *Panel) Draw(r render.Renderer, dst render.Image) {
	x, y := float32(p.X), float32(p.Y)
	w, h := float32(p.Width), float32(p.Height)

	r.FillRect(dst, x, y, w, h, p.bgColor)
	r.StrokeRect(dst, x, y, w, h, 1, p.borderColor)

	top := float64(p.Y) + p.padding
	top = p.drawStatus(r, dst, top)
	top += p.lineHeight / 2
	p.drawDivider(r, dst, top)
	top += 8

	bottom := float64(p.Y+p.Height) - p.padding
	if p.inputMode != ModeWatch {
		bottom = p.drawInput(r, dst, bottom)
		p.drawDivider(r, dst, bottom-4)
		bottom -= 8
	}

	p.drawLog(r, dst, top, bottom)
}

func (p *Panel) drawStatus(r render.Renderer, dst render.Image, y float64) float64 {
	x := float64(p.X) + p.padding
	s := p.status

	conn := "connecting..."
	if s.Connected {
		conn = "connected"
	}
	r.DrawText(dst, "CipherWolves", x, y, render.TextStyle{Size: 16, Bold: true, Color: p.systemColor})
	y += p.lineHeight + 4

	round := fmt.Sprintf("Round %d  |  %s", s.Round, phaseLabel(s.Phase))
	r.DrawText(dst, round, x, y, p.style(p.textColor, false))
	y += p.lineHeight

	agents := fmt.Sprintf("Agents: %d remaining, %d eliminated  |  %s", s.Remaining, s.Eliminated, conn)
	r.DrawText(dst, agents, x, y, p.style(p.dimColor, false))
	y += p.lineHeight

	if s.Result != "" {
		r.DrawText(dst, "Result: "+s.Result, x, y, p.style(p.systemColor, true))
		y += p.lineHeight
	}
	return y
}

func phaseLabel(phase string) string {
	if phase == "" {
		return "waiting"
	}
	return cases.Title(language.English).String(phase)
}

// drawLog draws the newest entries that fit between top and bottom.
func (p *Panel) drawLog(r render.Renderer, dst render.Image, top, bottom float64) {
	x := float64(p.X) + p.padding
	room := int((bottom - top) / p.lineHeight)
	if room <= 0 {
		return
	}

	var lines []Entry
	for i := len(p.entries) - 1; i >= 0 && len(lines) < room; i-- {
		e := p.entries[i]
		for j := len(e.Lines) - 1; j >= 0 && len(lines) < room; j-- {
			lines = append(lines, Entry{Text: e.Lines[j], Color: e.Color, Speaker: e.Speaker})
		}
	}

	y := top
	for i := len(lines) - 1; i >= 0; i-- {
		l := lines[i]
		r.DrawText(dst, l.Text, x, y, p.style(l.Color, l.Speaker == SystemSpeaker))
		y += p.lineHeight
	}
}

func (p *Panel) drawInput(r render.Renderer, dst render.Image, bottom float64) float64 {
	x := float64(p.X) + p.padding
	y := bottom - p.lineHeight

	switch p.inputMode {
	case ModeAnalysis:
		line := "> " + string(p.input) + "_"
		r.DrawText(dst, line, x, y, p.style(p.textColor, false))
		y -= p.lineHeight
		r.DrawText(dst, "Your analysis (Enter to submit):", x, y, p.style(p.dimColor, false))
	case ModeSubmitting:
		r.DrawText(dst, "Submitting analysis...", x, y, p.style(p.dimColor, false))
	}
	return y
}

func (p *Panel) drawDivider(r render.Renderer, dst render.Image, y float64) {
	r.FillRect(dst, float32(float64(p.X)+p.padding), float32(y), float32(float64(p.Width)-p.padding*2), 1, p.borderColor)
}
