package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lookaround/lookaround/internal/client"
)

// ScanFunc runs one discovery round, calling onReply as replies arrive.
// client.(*Client).DiscoverFunc satisfies it.
type ScanFunc func(ctx context.Context, onReply func(client.PeerReport)) ([]client.PeerReport, error)

// Messages for the async scan
type startScanMsg struct{}
type peerFoundMsg struct {
	round int
	peer  client.PeerReport
}
type scanDoneMsg struct {
	round int
	peers []client.PeerReport
	err   error
}
type scanTickMsg time.Time

const scanTickInterval = 100 * time.Millisecond

// scanKeyMap defines key bindings for the scan screen
type scanKeyMap struct {
	Rescan key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k scanKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Rescan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k scanKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Rescan, k.Quit}}
}

// ScanModel shows peers as they answer a discovery round and lets the user
// rescan.
type ScanModel struct {
	Scanning  bool
	Peers     []client.PeerReport
	Err       error
	Target    string
	Timeout   time.Duration
	ScanStart time.Time

	Width       int
	Spinner     spinner.Model
	ProgressBar progress.Model
	Help        help.Model
	Keys        scanKeyMap

	scan    ScanFunc
	round   int
	updates chan tea.Msg
	cancel  context.CancelFunc
}

// NewScanModel creates a scan screen that runs scan against target
func NewScanModel(scan ScanFunc, target string, timeout time.Duration) ScanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return ScanModel{
		Target:      target,
		Timeout:     timeout,
		Width:       GetTerminalWidth(),
		Spinner:     s,
		ProgressBar: bar,
		Help:        help.New(),
		Keys: scanKeyMap{
			Rescan: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "rescan"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
		scan: scan,
	}
}

// Init starts the first scan immediately
func (m ScanModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startScanMsg{} },
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			m.stop()
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Rescan) && !m.Scanning:
			return m, func() tea.Msg { return startScanMsg{} }
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width

	case startScanMsg:
		return m.begin()

	case peerFoundMsg:
		if msg.round != m.round {
			return m, nil
		}
		m.Peers = upsertPeer(m.Peers, msg.peer)
		return m, waitForScan(m.updates)

	case scanDoneMsg:
		if msg.round != m.round {
			return m, nil
		}
		m.Scanning = false
		m.Err = msg.err
		if msg.err == nil {
			m.Peers = msg.peers
		}
		m.stop()

	case scanTickMsg:
		if m.Scanning {
			return m, scanTick()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// begin cancels any running round and starts a new one
func (m ScanModel) begin() (ScanModel, tea.Cmd) {
	m.stop()

	m.round++
	m.Scanning = true
	m.Err = nil
	m.Peers = nil
	m.ScanStart = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	updates := make(chan tea.Msg, 16)
	m.updates = updates

	round, scan := m.round, m.scan
	go func() {
		defer close(updates)
		send := func(msg tea.Msg) {
			select {
			case updates <- msg:
			case <-ctx.Done():
			}
		}
		peers, err := scan(ctx, func(p client.PeerReport) {
			send(peerFoundMsg{round: round, peer: p})
		})
		send(scanDoneMsg{round: round, peers: peers, err: err})
	}()

	return m, tea.Batch(waitForScan(updates), scanTick())
}

func (m ScanModel) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func waitForScan(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return nil
		}
		return msg
	}
}

func scanTick() tea.Cmd {
	return tea.Tick(scanTickInterval, func(t time.Time) tea.Msg { return scanTickMsg(t) })
}

// upsertPeer replaces the entry from the same sender or adds a new one
func upsertPeer(peers []client.PeerReport, p client.PeerReport) []client.PeerReport {
	key := p.Addr.String()
	replaced := false
	for i := range peers {
		if peers[i].Addr.String() == key {
			peers[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		peers = append(peers, p)
	}
	client.SortReports(peers)
	return peers
}

// View renders the scan screen
func (m ScanModel) View() string {
	var b strings.Builder

	b.WriteString(HeaderTitleStyle.Render("LOOKAROUND"))
	b.WriteString("\n")
	b.WriteString(HeaderCommandStyle.Render("Discovering peers via " + m.Target))
	b.WriteString("\n\n")

	switch {
	case m.Scanning:
		b.WriteString(fmt.Sprintf("  %s Scanning...\n", m.Spinner.View()))
		b.WriteString("  " + m.ProgressBar.ViewAs(m.elapsedFraction()) + "\n")
	case m.Err != nil:
		b.WriteString(ErrorMessageStyle.Render(fmt.Sprintf("  %s Scan failed: %v", FailureMarker, m.Err)) + "\n")
	default:
		b.WriteString(SuccessTitleStyle.Render(fmt.Sprintf("  %s Scan complete", SuccessMarker)) + "\n")
	}
	b.WriteString("\n")

	for _, line := range strings.Split(RenderReport(m.Peers), "\n") {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.Help.View(m.Keys)))
	b.WriteString("\n")

	return b.String()
}

func (m ScanModel) elapsedFraction() float64 {
	if m.Timeout <= 0 {
		return 0
	}
	f := float64(time.Since(m.ScanStart)) / float64(m.Timeout)
	if f > 1 {
		return 1
	}
	return f
}

// RunScan runs the interactive scan screen until the user quits and returns
// the peers from the last completed round.
func RunScan(scan ScanFunc, target string, timeout time.Duration) ([]client.PeerReport, error) {
	final, err := tea.NewProgram(NewScanModel(scan, target, timeout)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(ScanModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", final)
	}
	return m.Peers, m.Err
}
