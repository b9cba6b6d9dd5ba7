package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jwulff/sentiscribe/internal/export"
	"github.com/jwulff/sentiscribe/internal/ledger"
	"github.com/jwulff/sentiscribe/internal/listener"
	"github.com/jwulff/sentiscribe/internal/sentiment"
	"github.com/jwulff/sentiscribe/internal/transcribe"
	"github.com/jwulff/sentiscribe/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// promptMode tracks what the input line is collecting.
type promptMode int

const (
	promptNone promptMode = iota
	promptUtterance
	promptCSV
	promptText
	promptSQLite
)

func (p promptMode) title() string {
	switch p {
	case promptUtterance:
		return "Say"
	case promptCSV:
		return "Export CSV to"
	case promptText:
		return "Save transcript to"
	case promptSQLite:
		return "Export SQLite to"
	}
	return ""
}

func (p promptMode) ext() string {
	switch p {
	case promptCSV:
		return export.CSVExt
	case promptText:
		return export.TextExt
	case promptSQLite:
		return export.SQLiteExt
	}
	return ""
}

// Options wires the model to a listening loop and the session it fills.
type Options struct {
	Context   context.Context
	Loop      *listener.Loop
	Ledger    *ledger.Ledger
	Events    <-chan listener.Event
	Typed     *transcribe.Typed // nil unless the typed provider is in use
	Provider  string
	ExportDir string
	Logger    *zap.Logger
}

// Model is the root bubbletea model for the sentiscribe TUI.
type Model struct {
	ctx    context.Context
	loop   *listener.Loop
	ledger *ledger.Ledger
	events <-chan listener.Event
	typed  *transcribe.Typed
	logger *zap.Logger
	keys   keyMap
	now    func() time.Time

	provider  string
	exportDir string

	// Listening state
	listening  bool
	statusText string
	lastLabel  sentiment.Label

	// Transcript
	transcript *export.Transcript

	// UI state
	showTrends       bool
	prompt           promptMode
	input            textinput.Model
	width            int
	height           int
	transcriptScroll int
	transcriptLive   bool

	// Messages
	errorMessage   string
	errorTransient bool
	infoMessage    string
}

// New creates a new Model with default state.
func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	input := textinput.New()
	input.CharLimit = 512
	input.PromptStyle = ui.PromptStyle

	return Model{
		ctx:            opts.Context,
		loop:           opts.Loop,
		ledger:         opts.Ledger,
		events:         opts.Events,
		typed:          opts.Typed,
		logger:         opts.Logger,
		keys:           defaultKeyMap(),
		now:            time.Now,
		provider:       opts.Provider,
		exportDir:      opts.ExportDir,
		statusText:     "Idle",
		transcript:     &export.Transcript{},
		input:          input,
		transcriptLive: true,
	}
}

// Init starts waiting for loop events.
func (m Model) Init() tea.Cmd {
	return waitForEventCmd(m.events)
}

// EventForwarder returns a listener OnEvent hook that hands events to the
// model through ch without ever blocking the loop.
func EventForwarder(ch chan<- listener.Event, logger *zap.Logger) func(listener.Event) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ev listener.Event) {
		select {
		case ch <- ev:
		default:
			logger.Warn("ui event channel full, dropping event", zap.Stringer("kind", ev.Kind))
		}
	}
}

// waitForEventCmd reads the next loop event.
func waitForEventCmd(events <-chan listener.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return LoopEventMsg{Event: ev}
	}
}

// startCmd starts the loop, then submits text if there is any.
func startCmd(ctx context.Context, loop *listener.Loop, typed *transcribe.Typed, text string) tea.Cmd {
	return func() tea.Msg {
		err := loop.Start(ctx)
		if text != "" && typed != nil {
			typed.Submit(text)
		}
		return StartResultMsg{Err: err}
	}
}

// exportCmd writes the session in the format the prompt asked for.
func exportCmd(mode promptMode, path string, l *ledger.Ledger, transcript string) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch mode {
		case promptCSV:
			err = export.SaveCSV(path, l)
		case promptText:
			err = export.SaveText(path, transcript)
		case promptSQLite:
			_, err = export.SaveSQLite(path, l)
		}
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient messages.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.handlePromptKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, m.width-len(m.prompt.title())-4)
		return m, nil

	case LoopEventMsg:
		cmd := m.handleEvent(msg.Event)
		// Continue reading loop events
		return m, tea.Batch(cmd, waitForEventCmd(m.events))

	case StartResultMsg:
		if msg.Err != nil && !errors.Is(msg.Err, listener.ErrAlreadyRunning) {
			return m, m.setError(msg.Err.Error(), true)
		}
		m.listening = true
		m.statusText = "Listening"
		return m, nil

	case ExportDoneMsg:
		switch {
		case errors.Is(msg.Err, export.ErrNoData):
			return m, m.setInfo("No data to export.")
		case errors.Is(msg.Err, export.ErrCancelled):
			return m, m.setInfo("Export cancelled.")
		case msg.Err != nil:
			m.logger.Error("export failed", zap.String("path", msg.Path), zap.Error(msg.Err))
			return m, m.setError(msg.Err.Error(), true)
		}
		m.logger.Info("export written", zap.String("path", msg.Path))
		return m, m.setInfo("Export Successful: " + msg.Path)

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		m.infoMessage = ""
		return m, nil
	}

	if m.prompt != promptNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleEvent applies a loop event and returns any resulting command.
func (m *Model) handleEvent(ev listener.Event) tea.Cmd {
	switch ev.Kind {
	case listener.EventStarted:
		m.listening = true
		m.statusText = "Listening"

	case listener.EventRecorded:
		m.transcript.AddRecord(ev.Record)
		m.lastLabel = ev.Record.Sentiment
		if m.transcriptLive {
			m.scrollToBottom()
		}

	case listener.EventClassifyFailed:
		return m.setError("classification failed: "+errorText(ev.Err), true)

	case listener.EventStopPhrase:
		m.statusText = "Stop phrase heard"

	case listener.EventStopped:
		m.listening = false
		m.statusText = "Idle"
		m.transcript.AddStop()
		if m.transcriptLive {
			m.scrollToBottom()
		}
	}
	return nil
}

// handleKey processes key presses outside of a prompt.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.loop != nil {
			m.loop.Stop()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		if m.loop == nil {
			return m, nil
		}
		if m.loop.Running() {
			m.loop.Stop()
			m.statusText = "Stopping..."
			return m, nil
		}
		return m, startCmd(m.ctx, m.loop, nil, "")

	case key.Matches(msg, m.keys.Type):
		if m.typed == nil {
			return m, m.setError("typing is only available with the typed provider", true)
		}
		return m, m.openPrompt(promptUtterance, "")

	case key.Matches(msg, m.keys.Trends):
		m.showTrends = !m.showTrends
		return m, nil

	case key.Matches(msg, m.keys.ExportCSV):
		return m, m.openPrompt(promptCSV, export.DefaultPath(m.exportDir, export.CSVExt, m.now()))

	case key.Matches(msg, m.keys.SaveText):
		return m, m.openPrompt(promptText, export.DefaultPath(m.exportDir, export.TextExt, m.now()))

	case key.Matches(msg, m.keys.ExportSQLite):
		return m, m.openPrompt(promptSQLite, export.DefaultPath(m.exportDir, export.SQLiteExt, m.now()))

	case key.Matches(msg, m.keys.Clear):
		m.transcript.Reset()
		m.transcriptScroll = 0
		m.transcriptLive = true
		return m, m.setInfo("Transcript cleared.")

	case key.Matches(msg, m.keys.Reset):
		if m.ledger != nil {
			m.ledger.Clear()
		}
		m.transcript.Reset()
		m.lastLabel = ""
		m.transcriptScroll = 0
		m.transcriptLive = true
		return m, m.setInfo("Session reset.")

	case key.Matches(msg, m.keys.Up):
		m.transcriptLive = false
		if m.transcriptScroll > 0 {
			m.transcriptScroll--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		maxScroll := m.maxTranscriptScroll()
		m.transcriptScroll++
		if m.transcriptScroll >= maxScroll {
			m.transcriptScroll = maxScroll
			m.transcriptLive = true
		}
		return m, nil
	}

	return m, nil
}

// handlePromptKey routes keys to the input line until it is submitted or
// dismissed.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.loop != nil {
			m.loop.Stop()
		}
		return m, tea.Quit

	case tea.KeyEsc:
		m.closePrompt()
		return m, m.setInfo("Cancelled.")

	case tea.KeyEnter:
		mode := m.prompt
		value := strings.TrimSpace(m.input.Value())
		m.closePrompt()

		if mode == promptUtterance {
			return m.submitUtterance(value)
		}
		path := export.WithExtension(value, mode.ext())
		return m, exportCmd(mode, path, m.ledger, m.transcript.String())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitUtterance(text string) (tea.Model, tea.Cmd) {
	if text == "" {
		return m, nil
	}
	if m.loop != nil && !m.loop.Running() {
		return m, startCmd(m.ctx, m.loop, m.typed, text)
	}
	if !m.typed.Submit(text) {
		return m, m.setError("input queue full, try again", true)
	}
	return m, nil
}

func (m *Model) openPrompt(mode promptMode, value string) tea.Cmd {
	m.prompt = mode
	m.input.Prompt = mode.title() + ": "
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) setError(text string, transient bool) tea.Cmd {
	m.errorMessage = text
	m.errorTransient = transient
	m.infoMessage = ""
	if transient {
		return clearTransientErrorCmd()
	}
	return nil
}

func (m *Model) setInfo(text string) tea.Cmd {
	m.infoMessage = text
	if m.errorTransient {
		m.errorMessage = ""
		m.errorTransient = false
	}
	return clearTransientErrorCmd()
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func (m *Model) scrollToBottom() {
	m.transcriptScroll = m.maxTranscriptScroll()
}

func (m Model) maxTranscriptScroll() int {
	totalLines := m.transcript.Len()
	visible := m.transcriptVisibleLines() - 1 // header
	if totalLines <= visible {
		return 0
	}
	return totalLines - visible
}

func (m Model) transcriptVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + divider(1) + divider(1) + prompt(1) + message(1) + footer(1) + padding
	reserved := 8
	return max(5, m.height-reserved)
}

func (m Model) trendsPanelWidth() int {
	if m.width == 0 {
		return 30
	}
	return max(24, m.width*35/100)
}

func (m Model) transcriptPanelWidth() int {
	if m.width == 0 {
		return 60
	}
	if !m.showTrends {
		return m.width
	}
	return max(30, m.width-m.trendsPanelWidth()-1)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.prompt != promptNone {
		sections = append(sections, m.input.View())
	}

	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	} else if m.infoMessage != "" {
		sections = append(sections, ui.InfoStyle.Render(m.infoMessage))
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("SENTISCRIBE")
	if m.provider == "" {
		return title
	}
	return title + ui.DimStyle.Render(" · "+m.provider)
}

func (m Model) renderStatusBar() string {
	var dot string
	if m.listening {
		dot = ui.ListeningDotStyle.Render("● LISTENING")
	} else {
		dot = ui.IdleDotStyle.Render("○ IDLE")
	}

	badge := ui.DimStyle.Render("no sentiment yet")
	if m.lastLabel != "" {
		badge = ui.SentimentStyle(m.lastLabel).Bold(true).Render(string(m.lastLabel))
	}

	count := 0
	if m.ledger != nil {
		count = m.ledger.Len()
	}
	stats := ui.StatusStyle.Render(fmt.Sprintf("%d recorded · %s", count, m.statusText))

	return dot + "  " + badge + "  " + stats
}

func (m Model) renderMainContent() string {
	contentH := m.transcriptVisibleLines()
	transcriptW := m.transcriptPanelWidth()
	transcriptPanel := m.renderTranscriptPanel(transcriptW, contentH)
	if !m.showTrends {
		return transcriptPanel
	}

	trendsW := m.trendsPanelWidth()
	trendsPanel := m.renderTrendsPanel(trendsW, contentH)

	divider := ui.DividerStyle.Render("│")

	// Join panels side by side
	trendLines := strings.Split(trendsPanel, "\n")
	transcriptLines := strings.Split(transcriptPanel, "\n")

	var rows []string
	for i := 0; i < contentH; i++ {
		tl := strings.Repeat(" ", trendsW)
		if i < len(trendLines) {
			tl = trendLines[i]
		}
		tr := ""
		if i < len(transcriptLines) {
			tr = transcriptLines[i]
		}
		rows = append(rows, tl+divider+tr)
	}

	return strings.Join(rows, "\n")
}

func (m Model) renderTrendsPanel(width, height int) string {
	var counts ledger.Counts
	if m.ledger != nil {
		counts = m.ledger.TrendCounts()
	}
	lines := strings.Split(ui.RenderTrends(counts, width-1), "\n")

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = padRight(truncateToWidth(l, width), width)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTranscriptPanel(width, height int) string {
	var badge string
	if m.transcriptLive {
		badge = ui.LiveBadgeStyle.Render(" LIVE")
	} else {
		badge = ui.ScrollBadgeStyle.Render(" SCROLL")
	}

	var lines []string
	lines = append(lines, ui.PanelTitleStyle.Render("TRANSCRIPT")+badge)

	contentHeight := height - 1 // subtract header line

	entries := m.transcript.Lines()
	if len(entries) == 0 {
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  Press Space to start listening"))
		if m.typed != nil {
			lines = append(lines, ui.DimStyle.Render("  Press i to type what you would say"))
		}
	} else {
		textWidth := max(10, width-2) // -2 for leading indent

		var displayLines []string
		style := lipgloss.NewStyle()
		for _, e := range entries {
			switch {
			case strings.HasPrefix(e, "Sentiment: "):
				style = ui.SentimentStyle(sentiment.Label(strings.TrimPrefix(e, "Sentiment: ")))
			case e == export.StopLine:
				style = ui.DimStyle
			case strings.HasPrefix(e, "Polarity: "):
				// keep the sentiment color for the scores line
			default:
				style = lipgloss.NewStyle()
			}
			for _, wl := range wrapText(e, textWidth) {
				displayLines = append(displayLines, style.Render(wl))
			}
		}

		// Apply scroll
		start := 0
		if m.transcriptLive {
			if len(displayLines) > contentHeight {
				start = len(displayLines) - contentHeight
			}
		} else {
			start = m.transcriptScroll
		}
		if start < 0 {
			start = 0
		}

		end := start + contentHeight
		if end > len(displayLines) {
			end = len(displayLines)
		}

		for i := start; i < end; i++ {
			lines = append(lines, "  "+displayLines[i])
		}
	}

	// Pad to height
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	if m.prompt != promptNone {
		return ui.FooterKeyStyle.Render("Enter") + ui.FooterDescStyle.Render(" Confirm") + "  " +
			ui.FooterKeyStyle.Render("Esc") + ui.FooterDescStyle.Render(" Cancel")
	}

	var parts []string
	for _, b := range m.keys.footerBindings() {
		h := b.Help()
		desc := h.Desc
		if h.Key == m.keys.Toggle.Help().Key && m.listening {
			desc = "Stop"
		}
		if h.Key == m.keys.Type.Help().Key && m.typed == nil {
			continue
		}
		parts = append(parts, ui.FooterKeyStyle.Render(h.Key)+ui.FooterDescStyle.Render(" "+desc))
	}
	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	// Simple truncation for non-styled strings
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
