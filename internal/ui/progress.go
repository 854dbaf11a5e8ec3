package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"vesna/internal/driver"
)

type progressModel struct {
	title        string
	events       <-chan driver.StageEvent
	spinner      spinner.Model
	prog         progress.Model
	items        []fileItem
	index        map[string]int
	stageLabel   string
	resolved     int
	resolveTotal int
	width        int
	done         bool
}

type fileItem struct {
	path   string
	status string
}

type eventMsg driver.StageEvent
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders annotation
// pipeline progress for the given files.
func NewProgressModel(title string, files []string, events <-chan driver.StageEvent) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76 // Default width

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: "queued"})
		index[normKey(file)] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.StageEvent(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	for _, item := range m.items {
		name := truncate(item.path, nameWidth)
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		b.WriteString(fmt.Sprintf("  %s %s", statusStyled, name))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.StageEvent) tea.Cmd {
	if label := stageLabel(ev.Stage); label != "" {
		m.stageLabel = label
	}
	switch ev.Stage {
	case driver.StageParse:
		m.setStatus(ev.Path, "parsed")
	case driver.StageObserve:
		m.setStatus(ev.Path, "observed")
	case driver.StageResolve:
		m.resolved = ev.Done
		m.resolveTotal = ev.Total
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) setStatus(path, status string) {
	if path == "" {
		return
	}
	if idx, ok := m.index[normKey(path)]; ok {
		m.items[idx].status = status
	}
}

// percent складывает шкалу из трёх фаз: разбор и наблюдение дают по 30%,
// резолюция корзин — оставшиеся 40%.
func (m *progressModel) percent() float64 {
	pct := 0.0
	if n := float64(len(m.items)); n > 0 {
		var parsed, observed float64
		for _, it := range m.items {
			switch it.status {
			case "parsed":
				parsed++
			case "observed":
				parsed++
				observed++
			}
		}
		pct += parsed / n * 0.3
		pct += observed / n * 0.3
	}
	if m.resolveTotal > 0 {
		pct += float64(m.resolved) / float64(m.resolveTotal) * 0.4
	}
	if pct > 1.0 {
		pct = 1.0
	}
	return pct
}

// normKey выравнивает пути из разных фаз: walk отдаёт сырые пути, а
// FileSet нормализованные.
func normKey(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

func stageLabel(stage driver.Stage) string {
	switch stage {
	case driver.StageWalk:
		return "scanning"
	case driver.StageParse:
		return "parsing"
	case driver.StageObserve:
		return "observing"
	case driver.StageCollate:
		return "collating"
	case driver.StageResolve:
		return "resolving"
	case driver.StagePatch:
		return "writing"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "observed":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "parsed":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
