// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"
	"time"
)

func TestNewErrorToast(t *testing.T) {
	toast := NewErrorToast("Failed to send message")

	if toast.Message != "Failed to send message" {
		t.Errorf("Expected message 'Failed to send message', got '%s'", toast.Message)
	}
	if toast.Kind != ToastKindError {
		t.Errorf("Expected ToastKindError, got %d", toast.Kind)
	}
	if toast.Duration != ErrorToastDuration {
		t.Errorf("Expected duration %v, got %v", ErrorToastDuration, toast.Duration)
	}
	if !toast.Dismissible {
		t.Error("Expected toast to be dismissible")
	}
	if toast.ID == 0 {
		t.Error("Expected non-zero toast ID")
	}
}

func TestNewWarningToast(t *testing.T) {
	toast := NewWarningToast("Refresh is running behind")

	if toast.Kind != ToastKindWarning {
		t.Errorf("Expected ToastKindWarning, got %d", toast.Kind)
	}
	if toast.Duration != WarningToastDuration {
		t.Errorf("Expected duration %v, got %v", WarningToastDuration, toast.Duration)
	}
}

func TestToastIsExpired(t *testing.T) {
	toast := NewStatusToast("Test")
	toast.Duration = 10 * time.Millisecond
	toast.CreatedAt = time.Now().Add(-20 * time.Millisecond)

	if !toast.IsExpired() {
		t.Error("Toast should be expired")
	}

	freshToast := NewStatusToast("Fresh")
	if freshToast.IsExpired() {
		t.Error("Fresh toast should not be expired")
	}
}

func TestToastManager(t *testing.T) {
	manager := NewToastManager()

	if manager.HasToasts() {
		t.Error("New manager should have no toasts")
	}

	id := manager.AddError("send failed")
	if id == 0 {
		t.Error("AddError should return a non-zero ID")
	}
	if !manager.HasToasts() {
		t.Error("Manager should have toasts after AddError")
	}

	manager.RemoveToast(id)
	if manager.HasToasts() {
		t.Error("Manager should have no toasts after removal")
	}
}

func TestToastManagerMaxToasts(t *testing.T) {
	manager := NewToastManager()

	for i := 0; i < 10; i++ {
		manager.AddStatus("toast")
	}

	toasts := manager.GetToasts()
	if len(toasts) > 5 {
		t.Errorf("Manager should cap at 5 toasts, got %d", len(toasts))
	}
}

func TestToastManagerTickRemovesExpired(t *testing.T) {
	manager := NewToastManager()

	expired := NewStatusToast("old")
	expired.Duration = time.Millisecond
	expired.CreatedAt = time.Now().Add(-time.Second)
	manager.AddToast(expired)

	manager.AddStatus("fresh")

	remaining := manager.TickToasts()
	if len(remaining) != 1 {
		t.Fatalf("Expected 1 toast after tick, got %d", len(remaining))
	}
	if remaining[0].Message != "fresh" {
		t.Errorf("Expected the fresh toast to survive, got %q", remaining[0].Message)
	}
}

func TestRenderToast(t *testing.T) {
	toast := NewErrorToast("Message could not be delivered")
	rendered := RenderToast(toast, 80)

	if rendered == "" {
		t.Error("RenderToast should produce output")
	}
}

func TestRenderToastStackEmpty(t *testing.T) {
	if out := RenderToastStack(nil, 80, 24); out != "" {
		t.Errorf("Empty stack should render empty, got %q", out)
	}
}
