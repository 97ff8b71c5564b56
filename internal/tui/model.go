package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"itemmatch/internal/domain"
)

// MatcherPort is the TUI-facing subset of the matcher service.
type MatcherPort interface {
	Search(query string, topK int, minScore float64) []domain.SearchResult
	RecordFeedback(query string, results []domain.SearchResult, userCode string) (domain.FeedbackRecord, error)
}

type stage int

const (
	stageQuery stage = iota
	stageFeedback
)

// Model is the Bubble Tea model for the interactive matcher session.
// It alternates between collecting a query and collecting feedback on the
// suggestions made for that query.
type Model struct {
	service   MatcherPort
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.SearchResult
	stage     stage
	topK      int
	minScore  float64
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(service MatcherPort, topK int, minScore float64) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe the item and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		input:    ti,
		viewport: vp,
		topK:     topK,
		minScore: minScore,
		status:   "Catalog loaded. Type an item description to search.",
	}
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
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResults())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.stage == stageQuery {
				return m.submitQuery(), nil
			}
			return m.submitFeedback(), nil
		case "esc":
			if m.stage == stageFeedback {
				m.stage = stageQuery
				m.input.SetValue("")
				m.input.Placeholder = "Describe the item and press Enter"
				m.status = "Feedback not recorded. Type the next query."
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

func (m Model) submitQuery() Model {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		m.status = "Enter a description to search for."
		return m
	}
	m.lastQuery = q
	m.results = m.service.Search(q, m.topK, m.minScore)
	m.cursor = 0
	m.input.SetValue("")
	m.stage = stageFeedback
	m.input.Placeholder = "Correct item code, 'n/a', 'skip', or Enter for none"
	if len(m.results) == 0 {
		m.status = fmt.Sprintf("No relevant matches for %q. Provide the correct code, or press Enter.", q)
	} else {
		m.status = fmt.Sprintf("%d match(es) for %q. Confirm a code, or press Enter for no feedback.", len(m.results), q)
	}
	m.viewport.SetContent(m.renderResults())
	return m
}

func (m Model) submitFeedback() Model {
	code := strings.TrimSpace(m.input.Value())
	if strings.EqualFold(code, "n/a") {
		// none of the suggestions were right but no replacement code given
		code = ""
	}
	record, err := m.service.RecordFeedback(m.lastQuery, m.results, code)
	if err != nil {
		m.status = "Feedback not recorded this time: " + err.Error()
	} else {
		m.status = "Logged: " + string(record.FeedbackStatus) + ". Type the next query."
	}
	m.stage = stageQuery
	m.input.SetValue("")
	m.input.Placeholder = "Describe the item and press Enter"
	return m
}

// View renders the TUI layout and current results.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Item Matcher")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderResults() string {
	if len(m.results) == 0 {
		return "No matches yet."
	}
	var b strings.Builder
	for i, r := range m.results {
		marker := "  "
		line := fmt.Sprintf("%d. %s  score=%.4f\n   %s", i+1, r.ItemCode, r.Score, r.Description)
		if i == m.cursor {
			line = highlightStyle.Render(line)
			marker = "> "
		}
		b.WriteString(marker + line + "\n")
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
