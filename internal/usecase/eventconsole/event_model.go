package eventconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"formcfg/internal/bootstrap/logging"
	"formcfg/internal/errs"
	"formcfg/internal/ports"
	"formcfg/internal/usecase/formconfig"
)

const (
	maxAuditLines = 8
	maxDataRunes  = 240
)

const (
	FilterAll     = "all"
	FilterPending = "pending"
	FilterFailed  = "failed"
)

// EventSource is the slice of the form configuration service the console drives.
type EventSource interface {
	ListRecentEvents(ctx context.Context, limit int) ([]ports.Event, error)
	Redeliver(ctx context.Context, eventID uint64) (formconfig.MutationResult, error)
	ReplayPending(ctx context.Context, limit int) (formconfig.ReplayReport, error)
}

type Options struct {
	Filter          string
	Limit           int
	RefreshInterval time.Duration
}

type eventModel struct {
	ctx             context.Context
	source          EventSource
	filter          string
	limit           int
	refreshInterval time.Duration

	events        []ports.Event
	selectedIndex int
	status        string
	auditLogs     []string
}

type eventsLoadedMsg struct {
	items []ports.Event
	err   error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action string
	target string
	result string
	err    error
}

func NewEventModel(ctx context.Context, source EventSource, options Options) tea.Model {
	limit := options.Limit
	if limit <= 0 {
		limit = 50
	}
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &eventModel{
		ctx:             logging.WithAttrs(ctx, slog.String("component", "usecase.eventconsole")),
		source:          source,
		filter:          NormalizeFilter(options.Filter),
		limit:           limit,
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *eventModel) Init() tea.Cmd {
	return tea.Batch(m.loadEventsCmd(), m.tickCmd())
}

func (m *eventModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadEventsCmd(), m.tickCmd())
	case eventsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.events = msg.items
		m.clampSelection()
		if len(m.events) == 0 {
			m.status = "no events"
			return m, nil
		}
		m.status = fmt.Sprintf("refreshed, %d events", len(m.events))
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			m.appendAuditLog(msg.action, msg.target, "failed", msg.err)
		} else {
			m.status = fmt.Sprintf("%s done: %s", msg.action, msg.result)
			m.appendAuditLog(msg.action, msg.target, msg.result, nil)
		}
		return m, m.loadEventsCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadEventsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.events)-1 {
				m.selectedIndex++
			}
			return m, nil
		case "f":
			m.filter = nextFilter(m.filter)
			m.selectedIndex = 0
			m.status = "filter " + m.filter
			return m, m.loadEventsCmd()
		case "r":
			return m, m.redeliverCmd()
		case "p":
			return m, m.replayCmd()
		}
	}
	return m, nil
}

func (m *eventModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	failedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Event Console"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf("filter=%s limit=%d refresh=%s", m.filter, m.limit, m.refreshInterval)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Events"))
	builder.WriteString("\n")
	if len(m.events) == 0 {
		builder.WriteString(dimStyle.Render("- no events"))
		builder.WriteString("\n\n")
	} else {
		for index, event := range m.events {
			line := eventLine(event)
			switch {
			case index == m.selectedIndex:
				builder.WriteString(selectedStyle.Render("> " + line))
			case event.Error != nil:
				builder.WriteString(failedStyle.Render("  " + line))
			default:
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if selected, ok := m.selected(); ok {
		builder.WriteString(fmt.Sprintf("EventID: %d\n", selected.EventID))
		builder.WriteString(fmt.Sprintf("Type: %s\n", selected.Type))
		builder.WriteString(fmt.Sprintf("Target: %s\n", targetLabel(selected)))
		builder.WriteString(fmt.Sprintf("Created: %s\n", selected.CreatedAt.UTC().Format(time.RFC3339)))
		builder.WriteString(fmt.Sprintf("State: %s\n", stateLabel(selected)))
		if selected.Error != nil {
			builder.WriteString(fmt.Sprintf("Error: %s\n", *selected.Error))
		}
		if requestID := selected.Metadata["request_id"]; requestID != "" {
			builder.WriteString(fmt.Sprintf("RequestID: %s\n", requestID))
		}
		builder.WriteString(fmt.Sprintf("Data: %s\n", truncateRunes(string(selected.Data), maxDataRunes)))
		builder.WriteString("\n")
	} else {
		builder.WriteString(dimStyle.Render("- no selection"))
		builder.WriteString("\n\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: up/k down/j move  g refresh  f filter  r redeliver  p replay pending  q quit"))
	return builder.String()
}

func (m *eventModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *eventModel) loadEventsCmd() tea.Cmd {
	filter := m.filter
	return func() tea.Msg {
		items, err := m.source.ListRecentEvents(m.ctx, m.limit)
		if err != nil {
			return eventsLoadedMsg{err: err}
		}
		return eventsLoadedMsg{items: FilterEvents(items, filter)}
	}
}

func (m *eventModel) redeliverCmd() tea.Cmd {
	selected, ok := m.selected()
	if !ok {
		m.status = "no event selected"
		return nil
	}
	target := fmt.Sprintf("event#%d", selected.EventID)
	if selected.Processed {
		m.status = target + " already processed"
		return nil
	}

	return func() tea.Msg {
		result, err := m.source.Redeliver(m.ctx, selected.EventID)
		if err != nil {
			logging.Warn(m.ctx, "redeliver failed", slog.Uint64("event_id", selected.EventID), slog.Any("err", errs.Loggable(err)))
			return actionDoneMsg{action: "redeliver", target: target, err: err}
		}
		return actionDoneMsg{action: "redeliver", target: target, result: fmt.Sprintf("applied id=%d", result.EntityID)}
	}
}

func (m *eventModel) replayCmd() tea.Cmd {
	return func() tea.Msg {
		report, err := m.source.ReplayPending(m.ctx, 0)
		if err != nil {
			return actionDoneMsg{action: "replay", target: "pending", err: err}
		}
		return actionDoneMsg{
			action: "replay",
			target: "pending",
			result: fmt.Sprintf("attempted=%d succeeded=%d failed=%d", report.Attempted, report.Succeeded, report.Failed),
		}
	}
}

func (m *eventModel) selected() (ports.Event, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.events) {
		return ports.Event{}, false
	}
	return m.events[m.selectedIndex], true
}

func (m *eventModel) clampSelection() {
	if m.selectedIndex >= len(m.events) {
		m.selectedIndex = len(m.events) - 1
	}
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
}

func (m *eventModel) appendAuditLog(action string, target string, result string, err error) {
	line := fmt.Sprintf("%s %s %s", time.Now().UTC().Format("15:04:05"), action, target)
	if err != nil {
		line += " error=" + err.Error()
	} else {
		line += " " + result
	}
	m.auditLogs = append(m.auditLogs, line)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[len(m.auditLogs)-maxAuditLines:]
	}
}

// NormalizeFilter maps user input onto a known filter, defaulting to all.
func NormalizeFilter(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case FilterPending:
		return FilterPending
	case FilterFailed:
		return FilterFailed
	default:
		return FilterAll
	}
}

func nextFilter(current string) string {
	switch current {
	case FilterAll:
		return FilterPending
	case FilterPending:
		return FilterFailed
	default:
		return FilterAll
	}
}

// FilterEvents keeps the events matching filter. Failed events are the
// unprocessed ones carrying an error; pending covers every unprocessed event.
func FilterEvents(items []ports.Event, filter string) []ports.Event {
	out := make([]ports.Event, 0, len(items))
	for _, item := range items {
		switch filter {
		case FilterPending:
			if item.Processed {
				continue
			}
		case FilterFailed:
			if item.Processed || item.Error == nil {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func eventLine(event ports.Event) string {
	return fmt.Sprintf("e%d %-16s %-18s %s", event.EventID, event.Type, targetLabel(event), stateLabel(event))
}

func targetLabel(event ports.Event) string {
	id, ok := event.TargetID()
	if !ok {
		return firstNonEmpty(event.TargetKind, "-") + "#-"
	}
	return fmt.Sprintf("%s#%d", event.TargetKind, id)
}

func stateLabel(event ports.Event) string {
	switch {
	case event.Processed:
		return "processed"
	case event.Error != nil:
		return "failed"
	default:
		return "pending"
	}
}

func truncateRunes(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max]) + "..."
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
