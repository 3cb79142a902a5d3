package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Darshil999/arxiv-elasticsearch-project/search"
)

// Mode selects which query path a search goes through.
type Mode int

const (
	ModeLexical Mode = iota
	ModeVector
	ModeHybrid
)

func (m Mode) String() string {
	switch m {
	case ModeLexical:
		return "lexical"
	case ModeVector:
		return "vector"
	default:
		return "hybrid"
	}
}

// SearchPort is the TUI-facing subset of the query client.
type SearchPort interface {
	Lexical(ctx context.Context, text string, k int) ([]search.Result, error)
	Vector(ctx context.Context, text string, k int) ([]search.Result, error)
	Hybrid(ctx context.Context, text string, k int, w search.Weights) ([]search.Result, error)
}

// Model is the Bubble Tea model for the interactive query demo.
type Model struct {
	client   SearchPort
	input    textinput.Model
	viewport viewport.Model
	results  []search.Result
	mode     Mode
	topK     int
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model instance.
func New(client SearchPort, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter (Tab cycles mode)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if topK <= 0 {
		topK = 10
	}
	return Model{
		client:   client,
		input:    ti,
		viewport: vp,
		mode:     ModeHybrid,
		topK:     topK,
		status:   "Ready. Type to search.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + mode line, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResults())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.String() == "esc" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			m.mode = (m.mode + 1) % 3
			m.status = "Mode: " + m.mode.String()
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.runQuery(q)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runQuery(q string) {
	ctx := context.Background()
	var (
		results []search.Result
		err     error
	)
	switch m.mode {
	case ModeLexical:
		results, err = m.client.Lexical(ctx, q, m.topK)
	case ModeVector:
		results, err = m.client.Vector(ctx, q, m.topK)
	default:
		results, err = m.client.Hybrid(ctx, q, m.topK, search.DefaultWeights)
	}
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
		return
	}
	m.status = fmt.Sprintf("%d results for %q (%s)", len(results), q, m.mode)
	m.results = results
	m.cursor = 0
}

// View renders the TUI layout and current results.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("arXiv Paper Search")
	mode := modeStyle.Render("mode: " + m.mode.String())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "  " + mode + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderResults() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	var b strings.Builder
	for i, r := range m.results {
		line := fmt.Sprintf("%2d. [%.4f] %s", i+1, r.Score, r.Document.Title)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	sel := m.results[m.cursor].Document
	b.WriteString("\n")
	b.WriteString(detailStyle.Render(fmt.Sprintf("%s | %s\n%s",
		sel.ID, strings.Join(sel.Categories, ", "), sel.Abstract)))
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	modeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	detailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
