package term

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/thewug/aurora/reveal"
	"github.com/thewug/aurora/store"
)

type cell struct {
	r     rune
	style tcell.Style
}

type fakeScreen struct {
	w, h  int
	cells map[[2]int]cell
	shown int
}

func newFake(w, h int) *fakeScreen {
	return &fakeScreen{w: w, h: h, cells: make(map[[2]int]cell)}
}

func (f *fakeScreen) SetContent(x, y int, mainc rune, combc []rune, style tcell.Style) {
	f.cells[[2]int{x, y}] = cell{mainc, style}
}
func (f *fakeScreen) Size() (int, int) { return f.w, f.h }
func (f *fakeScreen) Clear()           { f.cells = make(map[[2]int]cell) }
func (f *fakeScreen) Show()            { f.shown++ }

func (f *fakeScreen) text() string {
	var b strings.Builder
	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			if c, ok := f.cells[[2]int{x, y}]; ok {
				b.WriteRune(c.r)
			} else {
				b.WriteRune(' ')
			}
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (f *fakeScreen) count(r rune) int {
	n := 0
	for _, c := range f.cells {
		if c.r == r {
			n++
		}
	}
	return n
}

var _ Screen = tcell.Screen(nil)

func event(stage reveal.Stage) reveal.Event[store.Winner, store.Prize] {
	return reveal.Event[store.Winner, store.Prize]{
		Stage:  stage,
		Index:  0,
		Total:  2,
		Winner: store.Winner{Name: "Priya Sharma", City: "Delhi"},
		Prize:  store.Prize{Name: "Gold Trophy", Value: "$500", Description: "Top guide of the year"},
	}
}

func TestDrawStages(t *testing.T) {
	tests := []struct {
		stage reveal.Stage
		want  []string
	}{
		{reveal.StageLoading, []string{"Aurora", "LOADING  1/2", "loading..."}},
		{reveal.StageReveal, []string{"REVEAL  1/2", "Priya Sharma", "Gold Trophy ($500)"}},
		{reveal.StageResults, []string{"Congratulations!", "Delhi", "Top guide of the year", "[n] next winner", "┌", "┘"}},
		{reveal.StageTransition, []string{"next winner..."}},
		{reveal.StageDone, []string{"DONE", "that's everyone!"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			f := newFake(80, 24)
			NewRenderer(f, "Aurora").Draw(event(tt.stage))
			text := f.text()
			for _, want := range tt.want {
				if !strings.Contains(text, want) {
					t.Errorf("screen missing %q:\n%s", want, text)
				}
			}
			if f.shown != 1 {
				t.Errorf("Show called %d times", f.shown)
			}
		})
	}
}

func TestDrawProgress(t *testing.T) {
	f := newFake(24, 10)
	e := event(reveal.StageAssembly)
	e.Progress = 0.5
	NewRenderer(f, "Aurora").Draw(e)

	if done, todo := f.count('█'), f.count('░'); done != 10 || todo != 10 {
		t.Fatalf("bar = %d done, %d todo", done, todo)
	}
}

func TestDrawConfetti(t *testing.T) {
	f := newFake(40, 20)
	e := event(reveal.StageCelebrate)
	e.Confetti = []reveal.Particle{
		{X: 0.1, Y: 0.1, Color: "#10b981"},
		{X: 0.9, Y: 0.9, Color: "#fbbf24"},
		{X: 1.5, Y: 0.5, Color: "#60a5fa"},
	}
	NewRenderer(f, "Aurora").Draw(e)

	c, ok := f.cells[[2]int{4, 2}]
	if !ok || c.r != '*' {
		t.Fatalf("first particle = %+v", c)
	}
	if fg, _, _ := c.style.Decompose(); fg != tcell.GetColor("#10b981") {
		t.Errorf("particle color = %v", fg)
	}
	if c := f.cells[[2]int{36, 18}]; c.r != '+' {
		t.Errorf("second particle = %+v", c)
	}
}

func TestDrawLastAndMuted(t *testing.T) {
	f := newFake(80, 24)
	e := event(reveal.StageResults)
	e.Last = true
	r := NewRenderer(f, "Aurora")
	r.Muted = true
	r.Draw(e)

	text := f.text()
	if !strings.Contains(text, "[n] finish") || !strings.Contains(text, "m unmute") {
		t.Fatalf("screen:\n%s", text)
	}
}
