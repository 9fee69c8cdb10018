package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sitesearch/internal/domain"
	"sitesearch/internal/retrieval"
)

// SearchPort is the TUI-facing subset of the retrieval engine.
type SearchPort interface {
	Retrieve(ctx context.Context, query string, opts retrieval.Options) []domain.Source
}

// Model is the Bubble Tea model for the interactive search surface.
type Model struct {
	engine    SearchPort
	input     textinput.Model
	viewport  viewport.Model
	sources   []domain.Source
	brand     string
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(engine SearchPort, brand string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{engine: engine, input: ti, viewport: vp, brand: brand, status: "Index ready. Type to search."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 1
		totalFooterLines := 1 // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentSource())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				sources := m.engine.Retrieve(context.Background(), q, retrieval.Options{})
				if len(sources) == 0 {
					m.status = fmt.Sprintf("No results for %q", q)
				} else {
					m.status = fmt.Sprintf("Results for %q", q)
				}
				m.sources = sources
				m.cursor = 0
				m.lastQuery = q
				m.viewport.SetContent(m.renderCurrentSource())
				return m, nil
			}
		case "down":
			if len(m.sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.sources)
				m.viewport.SetContent(m.renderCurrentSource())
				return m, nil
			}
		case "up":
			if len(m.sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.sources)) % len(m.sources)
				m.viewport.SetContent(m.renderCurrentSource())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current source.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.brand + " Search")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	sources := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + sources + "\n" + input + "\n" + status
}

func (m Model) renderCurrentSource() string {
	if len(m.sources) == 0 {
		return "No results yet."
	}
	s := m.sources[m.cursor]
	head := fmt.Sprintf("Source %d/%d  score=%.3f", m.cursor+1, len(m.sources), s.Score)
	title := titleStyle.Render(s.Title)
	url := urlStyle.Render(s.URL)
	return head + "\n\n" + title + "\n" + url + "\n\n" + s.Snippet
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	urlStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
