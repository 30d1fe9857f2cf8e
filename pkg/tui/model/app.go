package model

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lanternhq/lantern/pkg/core"
	"github.com/lanternhq/lantern/pkg/stream"
)

// App is the root Bubble Tea model.
type App struct {
	// Connection
	manager *stream.Manager
	state   stream.State
	gaveUp  bool

	// Sources
	sources []core.Source
	srcIdx  int

	// Autofollow: persists across source changes, defaults to true.
	follow    bool
	threshold int

	// UI
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	statusMsg string
}

// New creates the TUI app model. Sources may be empty, in which case
// only the default/primary source is shown.
func New(manager *stream.Manager, sources []core.Source, followThreshold int) App {
	if len(sources) == 0 {
		sources = []core.Source{{ID: "", Name: "default"}}
	}
	if followThreshold <= 0 {
		followThreshold = DefaultFollowThreshold
	}
	return App{
		manager:   manager,
		sources:   sources,
		follow:    true,
		threshold: followThreshold,
	}
}

// streamEventMsg wraps a manager notification.
type streamEventMsg stream.Event

// Init connects to the current source and starts the event pump.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.connectCmd(a.currentSource().ID),
		a.waitEvent(),
		tea.SetWindowTitle("Lantern"),
	)
}

func (a App) connectCmd(sourceID string) tea.Cmd {
	mgr := a.manager
	return func() tea.Msg {
		mgr.Connect(sourceID)
		return nil
	}
}

func (a App) waitEvent() tea.Cmd {
	mgr := a.manager
	return func() tea.Msg {
		return streamEventMsg(<-mgr.Events())
	}
}

func (a App) currentSource() core.Source {
	return a.sources[a.srcIdx]
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		vpHeight := max(msg.Height-2, 1) // header + status bar
		if !a.ready {
			a.viewport = viewport.New(msg.Width, vpHeight)
			a.ready = true
		} else {
			a.viewport.Width = msg.Width
			a.viewport.Height = vpHeight
		}
		a.refreshContent()
		if a.follow {
			a.viewport.GotoBottom()
		}
		return a, nil

	case streamEventMsg:
		a.state = a.manager.State()
		if msg.Err != nil {
			a.statusMsg = msg.Err.Error()
		} else if msg.Kind == stream.EventState {
			a.statusMsg = ""
		}
		a.gaveUp = msg.Kind == stream.EventState && msg.Terminal

		if msg.Kind == stream.EventLines && a.ready {
			a.refreshContent()
			// Buffer changed: pin to bottom only while following; a
			// reader scrolled up into history is left alone.
			if a.follow {
				a.viewport.GotoBottom()
			}
		}
		return a, a.waitEvent()

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		a.manager.Close()
		return a, tea.Quit

	case "tab", "]":
		return a.switchSource((a.srcIdx + 1) % len(a.sources))

	case "[":
		return a.switchSource((a.srcIdx + len(a.sources) - 1) % len(a.sources))

	case "r":
		// Explicit reconnect; also restarts after the retry budget
		// is exhausted.
		return a, a.connectCmd(a.currentSource().ID)

	case "G", "end":
		a.viewport.GotoBottom()
		a.follow = true
		return a, nil
	}

	// Everything else (arrows, pgup/pgdn, mouse wheel keys) scrolls
	// the viewport; follow is recomputed from the resulting position.
	if !a.ready {
		return a, nil
	}
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	a.follow = shouldFollow(a.viewport.YOffset, a.viewport.Height, a.viewport.TotalLineCount(), a.threshold)
	return a, cmd
}

// switchSource tears down the current stream session and connects to
// the source at idx. The manager clears the old buffer as part of
// teardown; the viewport empties until the new source produces output.
func (a App) switchSource(idx int) (tea.Model, tea.Cmd) {
	if idx == a.srcIdx && len(a.sources) == 1 {
		return a, nil
	}
	a.srcIdx = idx
	a.statusMsg = ""
	a.gaveUp = false
	if a.ready {
		a.viewport.SetContent("")
		a.viewport.GotoTop()
	}
	return a, a.connectCmd(a.currentSource().ID)
}

// refreshContent re-renders the buffer snapshot into the viewport.
func (a *App) refreshContent() {
	lines := a.manager.Snapshot()
	if len(lines) == 0 {
		a.viewport.SetContent("")
		return
	}
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderLine(l))
	}
	a.viewport.SetContent(b.String())
}
