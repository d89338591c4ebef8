// Command loadermon is a bubbletea TUI that polls a running loader's
// status API and renders the current session state plus a scrolling event
// log. Grounded on the teacher's internal/cli/ui/ui.go Model/Update/View
// shape (tea.Tick-driven polling, a viewport.Model for scrolling log
// content, lipgloss styling) trimmed to the one status table and one
// scrolling event log this system's introspection surface calls for —
// not the full multi-pane hashing dashboard.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"arincloader/internal/session"
)

const pollInterval = 500 * time.Millisecond

var addrFlag = flag.String("addr", "127.0.0.1:8089", "status API address")

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563EB"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))
	logViewport = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)
)

type statusMsg struct {
	snap session.StatusSnapshot
	err  error
}

type eventsMsg struct {
	events []session.StatusSnapshot
	err    error
}

type tickMsg time.Time

type model struct {
	addr     string
	client   *http.Client
	status   session.StatusSnapshot
	statusOk bool
	lastErr  error
	log      viewport.Model
	width    int
	height   int
}

func newModel(addr string) model {
	vp := viewport.New(78, 12)
	vp.SetContent("waiting for events...")
	return model{
		addr:   addr,
		client: &http.Client{Timeout: time.Second},
		log:    vp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.pollStatus(), m.pollEvents(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) pollStatus() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.client.Get("http://" + m.addr + "/status")
		if err != nil {
			return statusMsg{err: err}
		}
		defer resp.Body.Close()
		var snap session.StatusSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{snap: snap}
	}
}

func (m model) pollEvents() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.client.Get("http://" + m.addr + "/events")
		if err != nil {
			return eventsMsg{err: err}
		}
		defer resp.Body.Close()
		var body struct {
			Events []session.StatusSnapshot `json:"events"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return eventsMsg{err: err}
		}
		return eventsMsg{events: body.Events}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.log.Width = msg.Width - 4
		m.log.Height = msg.Height - 10
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.statusOk = false
		} else {
			m.status = msg.snap
			m.statusOk = true
			m.lastErr = nil
		}
		return m, nil

	case eventsMsg:
		if msg.err != nil {
			return m, nil
		}
		var lines []string
		for _, e := range msg.events {
			lines = append(lines, fmt.Sprintf("%s  %-12s %s", e.LastUpdated.Format("15:04:05.000"), e.State, e.LastEvent))
		}
		m.log.SetContent(strings.Join(lines, "\n"))
		m.log.GotoBottom()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.pollStatus(), m.pollEvents(), tick())
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("arincloader monitor") + "\n\n")

	if !m.statusOk {
		if m.lastErr != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("could not reach %s: %v", m.addr, m.lastErr)) + "\n")
		} else {
			b.WriteString("connecting...\n")
		}
		return b.String()
	}

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-22s", label)) + valueStyle.Render(value) + "\n"
	}

	b.WriteString(row("state:", m.status.State))
	b.WriteString(row("authenticated:", fmt.Sprintf("%v", m.status.Authenticated)))
	b.WriteString(row("upload failures:", fmt.Sprintf("%d", m.status.UploadFailureCount)))
	if m.status.LastPartNumber != "" {
		b.WriteString(row("last part number:", m.status.LastPartNumber))
	}
	if m.status.LastDigestHex != "" {
		b.WriteString(row("last digest:", m.status.LastDigestHex))
	}
	b.WriteString("\n")
	b.WriteString(logViewport.Render(m.log.View()))
	b.WriteString("\n\nq to quit\n")
	return b.String()
}

func main() {
	flag.Parse()

	p := tea.NewProgram(newModel(*addrFlag))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "loadermon: %v\n", err)
		os.Exit(1)
	}
}
