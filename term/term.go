// Package term draws reveal events on a terminal.
package term

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/thewug/aurora/reveal"
	"github.com/thewug/aurora/store"
)

// Screen is the part of tcell.Screen the renderer draws with.
type Screen interface {
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	Size() (int, int)
	Clear()
	Show()
}

var (
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorGold).Bold(true)
	styleBanner  = tcell.StyleDefault.Foreground(tcell.ColorMediumSeaGreen)
	styleBar     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleBarTodo = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	styleBox     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleWinner  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHint    = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

var confettiGlyphs = []rune{'*', '+', 'o', '.', '~'}

// Renderer paints one Event at a time; every Draw repaints the screen.
type Renderer struct {
	Screen Screen
	Title  string
	Muted  bool
}

func NewRenderer(s Screen, title string) *Renderer {
	return &Renderer{Screen: s, Title: title}
}

func (r *Renderer) Draw(e reveal.Event[store.Winner, store.Prize]) {
	r.Screen.Clear()
	w, h := r.Screen.Size()

	r.center(1, w, r.Title, styleTitle)
	r.center(3, w, banner(e), styleBanner)

	switch e.Stage {
	case reveal.StageLoading:
		if e.Zoom > 0 {
			r.center(h/2, w, "here we go", styleBanner)
		} else {
			r.center(h/2, w, "loading...", styleBanner)
		}
	case reveal.StageAssembly:
		r.bar(h/2, w, e.Progress)
	case reveal.StageReveal, reveal.StageCelebrate:
		r.center(h/2-1, w, e.Winner.Name, styleWinner)
		r.center(h/2+1, w, prizeLine(e.Prize), styleBox)
		r.confetti(w, h, e.Confetti)
	case reveal.StageResults:
		r.results(w, h, e)
	case reveal.StageTransition:
		r.center(h/2, w, "next winner...", styleBanner)
	case reveal.StageDone:
		r.center(h/2, w, "that's everyone!", styleTitle)
	}

	hint := "n next  m mute  q quit"
	if r.Muted {
		hint = "n next  m unmute  q quit"
	}
	r.center(h-1, w, hint, styleHint)
	r.Screen.Show()
}

func banner(e reveal.Event[store.Winner, store.Prize]) string {
	if e.Stage == reveal.StageDone {
		return strings.ToUpper(string(e.Stage))
	}
	return fmt.Sprintf("%s  %d/%d", strings.ToUpper(string(e.Stage)), e.Index+1, e.Total)
}

func prizeLine(p store.Prize) string {
	line := p.Name
	if p.Emoji != "" {
		line = p.Emoji + " " + line
	}
	if p.Value != "" {
		line += " (" + p.Value + ")"
	}
	return line
}

// puts writes s from x and returns the column after it.
func (r *Renderer) puts(x, y int, s string, style tcell.Style) int {
	for _, c := range s {
		r.Screen.SetContent(x, y, c, nil, style)
		x++
	}
	return x
}

func (r *Renderer) center(y, w int, s string, style tcell.Style) {
	x := (w - len([]rune(s))) / 2
	if x < 0 {
		x = 0
	}
	r.puts(x, y, s, style)
}

func (r *Renderer) bar(y, w int, progress float64) {
	width := w - 4
	if width < 1 {
		return
	}
	done := int(progress * float64(width))
	for i := 0; i < width; i++ {
		if i < done {
			r.Screen.SetContent(2+i, y, '█', nil, styleBar)
		} else {
			r.Screen.SetContent(2+i, y, '░', nil, styleBarTodo)
		}
	}
}

func (r *Renderer) confetti(w, h int, particles []reveal.Particle) {
	for i, p := range particles {
		x, y := int(p.X*float64(w)), int(p.Y*float64(h))
		if x < 0 || x >= w || y < 0 || y >= h {
			continue
		}
		style := tcell.StyleDefault.Foreground(tcell.GetColor(p.Color))
		r.Screen.SetContent(x, y, confettiGlyphs[i%len(confettiGlyphs)], nil, style)
	}
}

func (r *Renderer) results(w, h int, e reveal.Event[store.Winner, store.Prize]) {
	lines := []string{
		"Congratulations!",
		"",
		e.Winner.Name,
	}
	if e.Winner.City != "" {
		lines = append(lines, e.Winner.City)
	}
	lines = append(lines, "", "wins", prizeLine(e.Prize))
	if e.Prize.Description != "" {
		lines = append(lines, e.Prize.Description)
	}
	lines = append(lines, "")
	if e.Last {
		lines = append(lines, "[n] finish")
	} else {
		lines = append(lines, "[n] next winner")
	}

	inner := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > inner {
			inner = n
		}
	}
	inner += 4

	left := (w - inner - 2) / 2
	if left < 0 {
		left = 0
	}
	top := (h - len(lines) - 2) / 2
	if top < 5 {
		top = 5
	}

	r.puts(left, top, "┌"+strings.Repeat("─", inner)+"┐", styleBox)
	for i, l := range lines {
		style := styleBox
		if l == e.Winner.Name {
			style = styleWinner
		}
		pad := inner - len([]rune(l))
		row := "│" + strings.Repeat(" ", pad/2) + l + strings.Repeat(" ", pad-pad/2) + "│"
		r.puts(left, top+1+i, row, style)
	}
	r.puts(left, top+1+len(lines), "└"+strings.Repeat("─", inner)+"┘", styleBox)
}
