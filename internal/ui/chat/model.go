// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the chat view model: construction, wiring of the
// message store, send pipeline, bootstrap, voice capture, and session
// tracking, plus the layout bookkeeping shared by update.go and view.go.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cardwise/cardwise-tui/internal/api"
	"github.com/cardwise/cardwise-tui/internal/config"
	"github.com/cardwise/cardwise-tui/internal/model"
	"github.com/cardwise/cardwise-tui/internal/pipeline"
	"github.com/cardwise/cardwise-tui/internal/session"
	"github.com/cardwise/cardwise-tui/internal/storage"
	"github.com/cardwise/cardwise-tui/internal/store"
	"github.com/cardwise/cardwise-tui/internal/ui/components"
	"github.com/cardwise/cardwise-tui/internal/ui/styles"
	"github.com/cardwise/cardwise-tui/internal/voice"
)

// =============================================================================
// STATE
// =============================================================================

// State is the chat view's screen state.
type State int

const (
	// StateLoading is startup: the conversation listing is being fetched.
	StateLoading State = iota
	// StateLanding is the empty landing screen with conversation starters.
	StateLanding
	// StateChat is an open conversation with its transcript.
	StateChat
)

// failStreakThreshold is how many consecutive fetch failures flip the sync
// indicator from stale to failed. A single miss is routine on flaky links
// and does not warrant alarming the user.
const failStreakThreshold = 3

// inputCharLimit caps composer length; the service rejects longer messages.
const inputCharLimit = 4000

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme
	cfg   *config.Config
	keys  KeyMap

	// Dimensions
	width  int
	height int
	ready  bool

	// Collaborators
	client   *api.Client
	store    *store.Store
	pipe     *pipeline.Pipeline
	boot     *pipeline.Bootstrap
	voiceCtl *voice.Controller // nil when no recognizer is available
	tracker  *session.Tracker
	archive  *storage.Archive // nil when archiving is disabled

	// Active conversation
	conversationID string
	title          string
	messages       []*model.Message

	// Components
	header   *components.Header
	status   *components.StatusBar
	toasts   *components.ToastManager
	starters *components.StarterGrid
	sidebar  *components.Sidebar
	msgList  *components.MessageList
	thinking components.Spinner

	viewport viewport.Model
	input    textarea.Model

	// Refresh bookkeeping
	pollInterval time.Duration
	idlePoll     time.Duration
	idle         bool
	failStreak   int
	syncState    components.SyncState
	lastRefresh  time.Time

	// Activity flags
	sending        bool
	recording      bool
	showTimestamps bool
	showHelp       bool
	showSidebar    bool
}

// New creates the chat view model wired to the message service at
// client's base URL.
func New(theme *styles.Theme, client *api.Client, cfg *config.Config) Model {
	st := store.New(client)
	pollInterval := store.DefaultPollInterval
	if cfg.Chat.PollIntervalMs > 0 {
		pollInterval = time.Duration(cfg.Chat.PollIntervalMs) * time.Millisecond
	}
	st.SetPollInterval(pollInterval)

	idlePoll := 15 * time.Second
	if cfg.Chat.IdlePollIntervalMs > 0 {
		idlePoll = time.Duration(cfg.Chat.IdlePollIntervalMs) * time.Millisecond
	}

	pipe := pipeline.New(client, st)
	if cfg.Chat.FollowupRefreshMs >= 0 {
		pipe.SetFollowupDelay(time.Duration(cfg.Chat.FollowupRefreshMs) * time.Millisecond)
	}
	boot := pipeline.NewBootstrap(client, pipe)

	// Voice is best-effort: no recognizer means no affordance, not an error.
	var voiceCtl *voice.Controller
	if cfg.Voice.Enabled {
		if cfg.Voice.Recognizer != "" {
			voiceCtl = voice.NewController(voice.FromCommand(cfg.Voice.Recognizer))
		} else if rec, err := voice.Detect(); err == nil {
			voiceCtl = voice.NewController(rec)
		}
	}

	tracker := session.NewTracker(session.DefaultConfig())
	if cfg.Chat.IdleAfterMins > 0 {
		tracker.SetIdleAfter(time.Duration(cfg.Chat.IdleAfterMins) * time.Minute)
	}
	tracker.SetArchiveEnabled(cfg.Archive.Enabled)
	if cfg.Archive.IntervalSecs > 0 {
		tracker.SetArchiveInterval(time.Duration(cfg.Archive.IntervalSecs) * time.Second)
	}

	var archive *storage.Archive
	if cfg.Archive.Enabled {
		var err error
		if cfg.Archive.Dir != "" {
			archive, err = storage.NewArchiveWithDir(cfg.Archive.Dir)
		} else {
			archive, err = storage.NewArchive()
		}
		if err != nil {
			archive = nil
		}
	}

	input := textarea.New()
	input.Placeholder = "Ask about rates, processors, or proposals..."
	input.CharLimit = inputCharLimit
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.Focus()

	vp := viewport.New(0, 0)

	header := components.NewHeader(theme)
	header.SetServerURL(client.BaseURL())

	status := components.NewStatusBar(theme)
	status.SetSync(components.SyncStale, time.Time{})

	thinking := components.NewThinkingSpinner()

	return Model{
		state:          StateLoading,
		theme:          theme,
		cfg:            cfg,
		keys:           DefaultKeyMap(),
		client:         client,
		store:          st,
		pipe:           pipe,
		boot:           boot,
		voiceCtl:       voiceCtl,
		tracker:        tracker,
		archive:        archive,
		header:         header,
		status:         status,
		toasts:         components.NewToastManager(),
		starters:       components.NewStarterGrid(theme),
		sidebar:        components.NewSidebar(theme),
		msgList:        components.NewMessageList(theme),
		thinking:       thinking,
		viewport:       vp,
		input:          input,
		pollInterval:   pollInterval,
		idlePoll:       idlePoll,
		syncState:      components.SyncStale,
		showTimestamps: cfg.UI.ShowTimestamps,
	}
}

// Init starts the startup fetch, the session clock, and cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		loadConversationsCmd(m.client),
		session.TickCmd(),
	)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current screen state.
func (m Model) State() State {
	return m.state
}

// ConversationID returns the open conversation's ID, empty on the landing
// screen.
func (m Model) ConversationID() string {
	return m.conversationID
}

// Messages returns the rendered transcript.
func (m Model) Messages() []*model.Message {
	return m.messages
}

// Recording reports whether voice capture is active.
func (m Model) Recording() bool {
	return m.recording
}

// Sending reports whether a send is in flight.
func (m Model) Sending() bool {
	return m.sending
}

// VoiceAvailable reports whether a speech recognizer was found.
func (m Model) VoiceAvailable() bool {
	return m.voiceCtl != nil
}

// helpContext maps the screen state to the help overlay filter.
func (m Model) helpContext() HelpContext {
	if m.recording {
		return ContextRecording
	}
	if m.state == StateChat {
		return ContextChat
	}
	return ContextLanding
}

// awaitingReply reports whether the latest message is from the user with no
// assistant response yet. Drives the thinking indicator.
func (m Model) awaitingReply() bool {
	if len(m.messages) == 0 {
		return false
	}
	return m.messages[len(m.messages)-1].Role == model.RoleUser
}

// currentPollInterval returns the active cadence, slowed while idle.
func (m Model) currentPollInterval() time.Duration {
	if m.idle {
		return m.idlePoll
	}
	return m.pollInterval
}

// =============================================================================
// LAYOUT
// =============================================================================

// Fixed chrome heights used to size the transcript viewport. The composer
// is its textarea plus a border; the status bar and thinking line are one
// row each.
const (
	headerHeight   = 4
	composerHeight = 5
	statusHeight   = 1
	activityHeight = 1
)

// setSize propagates new terminal dimensions to every component.
func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.status.SetWidth(width)
	m.starters.SetWidth(width)
	m.input.SetWidth(clamp(width-4, 20, width))

	vpHeight := height - headerHeight - composerHeight - statusHeight - activityHeight
	m.applyBodyLayout(clamp(vpHeight, 3, height))

	m.refreshTranscript(false)
}

// applyBodyLayout sizes the transcript viewport and the sidebar. The
// sidebar, when open, takes a fixed column off the viewport width.
func (m *Model) applyBodyLayout(bodyHeight int) {
	vpWidth := m.width
	if m.showSidebar {
		vpWidth = clamp(m.width-m.sidebar.Width(), 20, m.width)
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = bodyHeight
	m.sidebar.SetHeight(bodyHeight)
	m.msgList.SetWidth(clamp(vpWidth-4, 20, 120))
}

// refreshTranscript re-renders the message list into the viewport.
// When follow is true the viewport snaps to the latest message.
func (m *Model) refreshTranscript(follow bool) {
	if !m.ready {
		return
	}
	m.msgList.SetMessages(m.messages)
	m.msgList.ShowTimestamps = m.showTimestamps
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.msgList.View())
	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}
