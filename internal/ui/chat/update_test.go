// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cardwise/cardwise-tui/internal/config"
	"github.com/cardwise/cardwise-tui/internal/model"
	"github.com/cardwise/cardwise-tui/internal/session"
	"github.com/cardwise/cardwise-tui/internal/ui/components"
	"github.com/cardwise/cardwise-tui/internal/voice"
)

// apply runs one Update cycle and returns the evolved model.
func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	mm, cmd := m.Update(msg)
	next, ok := mm.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want chat.Model", mm)
	}
	return next, cmd
}

// sizedTestModel returns a model that has seen a window size.
func sizedTestModel(t *testing.T) Model {
	t.Helper()
	m := newTestModel(t)
	m, _ = apply(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// openTestConversation drives the model into StateChat via the startup
// listing path.
func openTestConversation(t *testing.T, m Model, id string) Model {
	t.Helper()
	m, _ = apply(t, m, ConversationsLoadedMsg{
		Metas: []model.ConversationMeta{{ID: id, Title: "Rates", IsActive: true}},
	})
	if m.State() != StateChat {
		t.Fatalf("state after listing = %v, want StateChat", m.State())
	}
	return m
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

func TestConversationsLoadedOpensActiveConversation(t *testing.T) {
	m := sizedTestModel(t)
	m, cmd := apply(t, m, ConversationsLoadedMsg{
		Metas: []model.ConversationMeta{
			{ID: "old", Title: "Closed", IsActive: false},
			{ID: "c1", Title: "Rates", IsActive: true},
		},
	})

	if m.ConversationID() != "c1" {
		t.Errorf("conversation = %q, want c1", m.ConversationID())
	}
	if m.State() != StateChat {
		t.Errorf("state = %v, want StateChat", m.State())
	}
	if cmd == nil {
		t.Error("opening a conversation should schedule refresh and polling")
	}
}

func TestConversationsLoadedEmptyShowsLanding(t *testing.T) {
	m := sizedTestModel(t)
	m, _ = apply(t, m, ConversationsLoadedMsg{})

	if m.State() != StateLanding {
		t.Errorf("state = %v, want StateLanding", m.State())
	}
}

func TestConversationsLoadedErrorShowsLandingWithToast(t *testing.T) {
	m := sizedTestModel(t)
	m, _ = apply(t, m, ConversationsLoadedMsg{Err: errors.New("connection refused")})

	if m.State() != StateLanding {
		t.Errorf("state = %v, want StateLanding", m.State())
	}
	if !m.toasts.HasToasts() {
		t.Error("listing failure should surface a toast")
	}
}

func TestBootstrapResultOpensConversation(t *testing.T) {
	m := sizedTestModel(t)
	m.state = StateLanding
	m.sending = true

	m, cmd := apply(t, m, BootstrapResultMsg{ConversationID: "c9", Title: "New Chat"})

	if m.Sending() {
		t.Error("sending flag should clear")
	}
	if m.ConversationID() != "c9" {
		t.Errorf("conversation = %q, want c9", m.ConversationID())
	}
	if m.State() != StateChat {
		t.Errorf("state = %v, want StateChat", m.State())
	}
	if cmd == nil {
		t.Error("bootstrap success should start the poll loop")
	}
}

func TestBootstrapFailureLeavesComposerEmpty(t *testing.T) {
	m := sizedTestModel(t)
	m.state = StateLanding
	m.sending = true

	m, _ = apply(t, m, BootstrapResultMsg{Err: errors.New("boom")})

	if m.State() != StateLanding {
		t.Errorf("state = %v, want StateLanding", m.State())
	}
	if m.input.Value() != "" {
		t.Errorf("composer = %q, want empty: a failed bootstrap may still have created the conversation", m.input.Value())
	}
	if !m.toasts.HasToasts() {
		t.Error("bootstrap failure should surface a toast")
	}
}

// =============================================================================
// REFRESH
// =============================================================================

func TestRefreshResultUpdatesTranscript(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	msgs := []*model.Message{
		model.NewUserMessage("hello"),
		model.NewMessage(model.RoleAssistant, "hi there"),
	}
	m, _ = apply(t, m, RefreshResultMsg{ConversationID: "c1", Messages: msgs})

	if len(m.Messages()) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(m.Messages()))
	}
	if m.syncState != components.SyncFresh {
		t.Errorf("sync = %v, want SyncFresh", m.syncState)
	}
	if m.lastRefresh.IsZero() {
		t.Error("lastRefresh should be stamped")
	}
}

func TestRefreshResultFromStaleConversationDropped(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	m, _ = apply(t, m, RefreshResultMsg{
		ConversationID: "abandoned",
		Messages:       []*model.Message{model.NewUserMessage("ghost")},
	})

	if len(m.Messages()) != 0 {
		t.Error("result tagged for another conversation must not touch the transcript")
	}
}

func TestRefreshFailureStreakFlipsToFailed(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	fetchErr := errors.New("timeout")
	for i := 0; i < failStreakThreshold-1; i++ {
		m, _ = apply(t, m, RefreshResultMsg{ConversationID: "c1", Err: fetchErr})
		if m.syncState == components.SyncFailed {
			t.Fatalf("sync failed after %d misses, threshold is %d", i+1, failStreakThreshold)
		}
	}

	m, _ = apply(t, m, RefreshResultMsg{ConversationID: "c1", Err: fetchErr})
	if m.syncState != components.SyncFailed {
		t.Errorf("sync = %v after %d misses, want SyncFailed", m.syncState, failStreakThreshold)
	}

	// Recovery resets the streak and announces it.
	m, _ = apply(t, m, RefreshResultMsg{ConversationID: "c1", Messages: []*model.Message{}})
	if m.syncState != components.SyncFresh {
		t.Errorf("sync = %v after recovery, want SyncFresh", m.syncState)
	}
	if m.failStreak != 0 {
		t.Errorf("failStreak = %d after recovery, want 0", m.failStreak)
	}
}

func TestPollTickForStaleConversationDies(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	_, cmd := apply(t, m, PollTickMsg{ConversationID: "abandoned"})
	if cmd != nil {
		t.Error("tick for a left conversation must not reschedule")
	}
}

func TestPollTickReschedules(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	_, cmd := apply(t, m, PollTickMsg{ConversationID: "c1"})
	if cmd == nil {
		t.Error("tick for the open conversation should reschedule")
	}
}

// =============================================================================
// SEND
// =============================================================================

func TestSendFailureLeavesComposerEmpty(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	m.sending = true

	m, _ = apply(t, m, SendResultMsg{
		ConversationID: "c1",
		Err:            errors.New("502"),
	})

	if m.Sending() {
		t.Error("sending flag should clear on failure")
	}
	if m.input.Value() != "" {
		t.Errorf("composer = %q, want empty: the service may have accepted the message", m.input.Value())
	}
	if !m.toasts.HasToasts() {
		t.Error("send failure should surface a toast")
	}
}

func TestSendSuccessAdoptsStoreSnapshot(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	m.sending = true

	// Simulate the pipeline's post-send refetch having applied.
	m.store.Apply("c1", []*model.Message{model.NewUserMessage("hi")}, m.store.Epoch())

	m, _ = apply(t, m, SendResultMsg{ConversationID: "c1"})

	if m.Sending() {
		t.Error("sending flag should clear on success")
	}
	if len(m.Messages()) != 1 {
		t.Errorf("transcript length = %d, want the applied snapshot", len(m.Messages()))
	}
	if m.syncState != components.SyncFresh {
		t.Errorf("sync = %v, want SyncFresh", m.syncState)
	}
}

func TestSubmitOnLandingBootstraps(t *testing.T) {
	m := sizedTestModel(t)
	m.state = StateLanding
	m.input.SetValue("compare processors for me")

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if !m.Sending() {
		t.Error("submission should mark a send in flight")
	}
	if m.input.Value() != "" {
		t.Errorf("composer = %q, want cleared", m.input.Value())
	}
	if cmd == nil {
		t.Error("submission should issue the bootstrap command")
	}
}

func TestSubmitBlankIsIgnored(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	m.input.SetValue("   ")

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.Sending() {
		t.Error("blank submission must not start a send")
	}
}

// =============================================================================
// VOICE
// =============================================================================

func TestVoiceResultInsertsTranscript(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	m.recording = true

	m, _ = apply(t, m, VoiceResultMsg{Transcript: "calculate my rates"})

	if m.Recording() {
		t.Error("recording flag should clear")
	}
	if m.input.Value() != "calculate my rates" {
		t.Errorf("composer = %q, want transcript", m.input.Value())
	}
}

func TestVoiceResultAppendsWithSeparator(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	m.input.SetValue("please")
	m.recording = true

	m, _ = apply(t, m, VoiceResultMsg{Transcript: "compare processors"})

	if m.input.Value() != "please compare processors" {
		t.Errorf("composer = %q, want space-joined text", m.input.Value())
	}
}

func TestVoiceFailureShowsToast(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	m.recording = true

	m, _ = apply(t, m, VoiceResultMsg{Err: errors.New("no speech detected")})

	if m.Recording() {
		t.Error("recording flag should clear on failure")
	}
	if !m.toasts.HasToasts() {
		t.Error("capture failure should surface a toast")
	}
}

func TestVoiceSessionPermissionDeniedStaysIdle(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	m, _ = apply(t, m, VoiceSessionMsg{Err: voice.ErrPermissionDenied})

	if m.Recording() {
		t.Error("a denied microphone request must not mark the model recording")
	}
	if !m.toasts.HasToasts() {
		t.Error("permission denial should surface a toast")
	}
}

func TestVoiceToggleWithoutRecognizerWarns(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlV})

	if m.Recording() {
		t.Error("no recognizer means no recording")
	}
	if !m.toasts.HasToasts() {
		t.Error("pressing the voice key without a recognizer should explain why")
	}
}

// =============================================================================
// NAVIGATION AND STATE
// =============================================================================

func TestNewChatKeyReturnsToLanding(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	m.input.SetValue("half-typed")

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})

	if m.State() != StateLanding {
		t.Errorf("state = %v, want StateLanding", m.State())
	}
	if m.ConversationID() != "" {
		t.Errorf("conversation = %q, want empty", m.ConversationID())
	}
	if m.input.Value() != "" {
		t.Error("composer should reset for the new conversation")
	}
}

func TestLandingArrowsWalkStarterGrid(t *testing.T) {
	m := sizedTestModel(t)
	m.state = StateLanding

	first := m.starters.Selected().Title
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})

	if m.starters.Selected().Title == first {
		t.Error("tab should advance the starter selection")
	}
}

func TestLandingEnterWithEmptyComposerChoosesStarter(t *testing.T) {
	m := sizedTestModel(t)
	m.state = StateLanding

	_, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter on the landing grid should emit the starter selection")
	}

	msg := cmd()
	chosen, ok := msg.(StarterChosenMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want StarterChosenMsg", msg)
	}
	if chosen.Starter.Prompt == "" {
		t.Error("chosen starter must carry its prompt")
	}
}

func TestStarterChosenSubmitsPrompt(t *testing.T) {
	m := sizedTestModel(t)
	m.state = StateLanding
	starter := m.starters.Selected()

	m, cmd := apply(t, m, StarterChosenMsg{Starter: starter})

	if !m.Sending() {
		t.Error("starter selection should start a send")
	}
	if cmd == nil {
		t.Error("starter selection should issue the bootstrap command")
	}
}

func TestTimestampToggle(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	before := m.showTimestamps

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})

	if m.showTimestamps == before {
		t.Error("ctrl+t should toggle timestamps")
	}
}

func TestHelpToggle(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if !m.showHelp {
		t.Error("F1 should open help")
	}
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if m.showHelp {
		t.Error("F1 should close help")
	}
}

func TestIdleSlowsThenKeypressRestores(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	m, _ = apply(t, m, session.IdleMsg{})
	if !m.idle {
		t.Fatal("idle notification should slow polling")
	}

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if m.idle {
		t.Error("a keypress should restore the fast cadence")
	}
}

func TestViewRendersWithoutPanic(t *testing.T) {
	m := sizedTestModel(t)

	// Loading, landing, chat, help - every screen must render.
	if m.View() == "" {
		t.Error("loading view should not be empty")
	}

	m.state = StateLanding
	if m.View() == "" {
		t.Error("landing view should not be empty")
	}

	m = openTestConversation(t, m, "c1")
	if m.View() == "" {
		t.Error("chat view should not be empty")
	}

	m.showHelp = true
	if m.View() == "" {
		t.Error("help view should not be empty")
	}
}

// =============================================================================
// SIDEBAR
// =============================================================================

func TestSidebarToggleRequestsListing(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})

	if !m.showSidebar {
		t.Fatal("ctrl+l should open the sidebar")
	}
	if cmd == nil {
		t.Error("opening the sidebar should re-fetch the listing")
	}

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.showSidebar {
		t.Error("ctrl+l should close the sidebar again")
	}
}

func TestSidebarEnterOpensSelectedConversation(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	m, _ = apply(t, m, ConversationsLoadedMsg{
		Metas: []model.ConversationMeta{
			{ID: "c2", Title: "Proposal"},
			{ID: "c1", Title: "Rates", IsActive: true},
		},
	})
	m.showSidebar = true

	m.sidebar.MoveNext() // off c1, onto the other row
	if m.sidebar.Selected().ID == "c1" {
		m.sidebar.MoveNext()
	}

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.showSidebar {
		t.Error("picking a conversation should close the sidebar")
	}
	if m.ConversationID() != "c2" {
		t.Errorf("conversation = %q, want c2", m.ConversationID())
	}
	if cmd == nil {
		t.Error("switching conversations should schedule refresh and polling")
	}
}

func TestSwitchingConversationsClearsComposer(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	m, _ = apply(t, m, ConversationsLoadedMsg{
		Metas: []model.ConversationMeta{
			{ID: "c2", Title: "Proposal"},
			{ID: "c1", Title: "Rates", IsActive: true},
		},
	})
	m.input.SetValue("half-typed question about rates")
	m.showSidebar = true

	m.sidebar.MoveNext()
	if m.sidebar.Selected().ID == "c1" {
		m.sidebar.MoveNext()
	}
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.ConversationID() != "c2" {
		t.Fatalf("conversation = %q, want c2", m.ConversationID())
	}
	if m.input.Value() != "" {
		t.Errorf("composer = %q, want empty: drafts belong to the conversation they were typed in", m.input.Value())
	}
}

func TestSidebarEscCloses(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	m.showSidebar = true

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.showSidebar {
		t.Error("esc should dismiss the sidebar")
	}
	if m.ConversationID() != "c1" {
		t.Error("dismissing the sidebar must not change the conversation")
	}
}

func TestListingRefreshDoesNotSwitchConversation(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	m, _ = apply(t, m, ConversationsLoadedMsg{
		Metas: []model.ConversationMeta{{ID: "c9", Title: "Other", IsActive: true}},
	})

	if m.ConversationID() != "c1" {
		t.Errorf("conversation = %q, a listing refresh must not navigate", m.ConversationID())
	}
}

// =============================================================================
// AUTO-COMPOSE
// =============================================================================

func TestAutoComposeInsertsIntoComposer(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	m, _ = apply(t, m, AutoComposeMsg{Text: "Draft a proposal for Acme Diner"})

	if m.input.Value() != "Draft a proposal for Acme Diner" {
		t.Errorf("composer = %q, want the composed text", m.input.Value())
	}
	if m.Sending() {
		t.Error("insert-only compose must not submit")
	}
}

func TestAutoComposeSubmitSends(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	m, cmd := apply(t, m, AutoComposeMsg{Text: "Compare these rates", Submit: true})

	if !m.Sending() {
		t.Error("submit compose should start a send")
	}
	if cmd == nil {
		t.Error("submit compose should issue the send command")
	}
}

func TestAutoComposeBlankIgnored(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	m, _ = apply(t, m, AutoComposeMsg{Text: "   "})

	if m.input.Value() != "" {
		t.Error("blank compose text should be ignored")
	}
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func TestConfigReloadedAppliesTunables(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")

	cfg := config.Default()
	cfg.Chat.PollIntervalMs = 750
	cfg.Chat.IdlePollIntervalMs = 12000
	cfg.UI.ShowTimestamps = !m.showTimestamps
	want := cfg.UI.ShowTimestamps

	m, _ = apply(t, m, ConfigReloadedMsg{Cfg: cfg})

	if m.pollInterval != 750*time.Millisecond {
		t.Errorf("pollInterval = %v, want 750ms", m.pollInterval)
	}
	if m.idlePoll != 12*time.Second {
		t.Errorf("idlePoll = %v, want 12s", m.idlePoll)
	}
	if m.showTimestamps != want {
		t.Error("timestamp preference should follow the reloaded config")
	}
}

func TestConfigReloadedNilIgnored(t *testing.T) {
	m := sizedTestModel(t)
	m = openTestConversation(t, m, "c1")
	before := m.pollInterval

	m, _ = apply(t, m, ConfigReloadedMsg{})

	if m.pollInterval != before {
		t.Error("a reload without a config must change nothing")
	}
}
