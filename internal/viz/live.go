package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sootsim/internal/coupling"
)

const (
	historyCapacity = 600
	maxStepsPerTick = 1000
)

var liveColumns = []string{"number_density", "volume_fraction", "residual", "precursor", "temperature"}

type TickMsg time.Time

// Model steps a coupled run a few steps per frame and charts it.
type Model struct {
	ctx          context.Context
	stepper      *coupling.Stepper
	title        string
	running      bool
	stepsPerTick int
	selected     int
	frame        int
	err          error
	showHelp     bool
}

func NewModel(ctx context.Context, stepper *coupling.Stepper, title string) Model {
	return Model{
		ctx:          ctx,
		stepper:      stepper,
		title:        title,
		running:      true,
		stepsPerTick: 5,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "tab":
			m.selected = (m.selected + 1) % len(liveColumns)
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.frame++
		if m.running && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerTick; i++ {
		if m.stepper.Phase() == coupling.Finished {
			m.running = false
			return
		}
		if err := m.stepper.Step(m.ctx); err != nil {
			m.err = err
			m.running = false
			return
		}
	}
}

// history returns the last historyCapacity values of the named column.
func (m Model) history(name string) []float64 {
	res := m.stepper.Result()
	col, _ := res.Column(name)
	if len(col) > historyCapacity {
		col = col[len(col)-historyCapacity:]
	}
	return col
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusFailed.Render("FAILED")
	case m.stepper.Phase() == coupling.Finished:
		return StatusPaused.Render("FINISHED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render(AnimatedSpinner(m.frame) + " RUNNING")
}

func (m Model) View() string {
	res := m.stepper.Result()
	last := res.Len() - 1
	clock := m.stepper.Clock()

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	progress := float64(clock.Step()) / float64(clock.Steps)
	s.WriteString(ProgressBar(progress, 30) + fmt.Sprintf(" %d/%d\n\n", clock.Step(), clock.Steps))

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("time", fmt.Sprintf("%.4e s", res.Times[last]))
	row("temperature", fmt.Sprintf("%.1f K", res.Temperature[last]))
	row("pressure", fmt.Sprintf("%.4e Pa", res.Pressure[last]))
	row("N", fmt.Sprintf("%.4e #/cc", res.NumberDensity[last]))
	row("FV", fmt.Sprintf("%.4e ppm", res.VolumeFraction[last]))
	row("residual", fmt.Sprintf("%.4e", res.Residual[last]))
	row("precursor", fmt.Sprintf("%.4e", res.ReactorPrecursor[last]))
	row("steps/frame", fmt.Sprintf("%d", m.stepsPerTick))
	if m.err != nil {
		s.WriteString("\n" + StatusFailed.Render(m.err.Error()) + "\n")
	}

	s.WriteString("\n" + Subtle.Render("N") + " " + SparklineChart(m.history("number_density"), 30) + "\n")
	s.WriteString(KeyHint.Render("\nSP:Pause TAB:Series +/-:Speed\nT:Theme ?:Help Q:Quit"))
	stats := panelStyle().Width(48).Render(s.String())

	name := liveColumns[m.selected]
	chart := ""
	if h := m.history(name); len(h) > 1 {
		chart = asciigraph.Plot(h,
			asciigraph.Height(14),
			asciigraph.Width(60),
			asciigraph.Precision(3),
			asciigraph.Caption(name))
	}
	chartView := lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Padding(1, 2).Render(chart)

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, chartView, stats)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  Tab      - Cycle charted series     ║
║  +/-      - Steps per frame          ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Err is the step error that stopped the run, if any.
func (m Model) Err() error { return m.err }

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
