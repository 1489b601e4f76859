// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cardwise/cardwise-tui/internal/model"
	"github.com/cardwise/cardwise-tui/internal/util"
)

// =============================================================================
// ARCHIVE TYPES
// =============================================================================

// Transcript is the on-disk form of an archived conversation.
type Transcript struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	CreatedAt  time.Time        `json:"createdAt"`
	ArchivedAt time.Time        `json:"archivedAt"`
	Messages   []*model.Message `json:"messages"`
}

// TranscriptMeta contains metadata for listing archived transcripts.
type TranscriptMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	ArchivedAt   time.Time `json:"archivedAt"`
	MessageCount int       `json:"messageCount"`
	Preview      string    `json:"preview"`
}

// =============================================================================
// TRANSCRIPT ARCHIVE
// =============================================================================

// Archive persists conversation transcripts to local disk.
type Archive struct {
	// BaseDir is the directory holding transcript files.
	// Default: ~/.cardwise/transcripts/
	BaseDir string

	// MaxTranscripts limits archived conversations (0 = unlimited).
	MaxTranscripts int
}

// NewArchive creates an archive rooted in the user's home directory.
func NewArchive() (*Archive, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewArchiveWithDir(filepath.Join(homeDir, ".cardwise", "transcripts"))
}

// NewArchiveWithDir creates an archive with a custom directory.
func NewArchiveWithDir(baseDir string) (*Archive, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Archive{
		BaseDir:        baseDir,
		MaxTranscripts: 100,
	}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save archives a conversation's current transcript. Saving the same
// conversation again replaces the previous archive file.
func (a *Archive) Save(conv *model.Conversation) error {
	if conv == nil || conv.ID == "" {
		return ErrNoTranscript
	}

	tr := &Transcript{
		ID:         conv.ID,
		Title:      conv.Title,
		CreatedAt:  conv.CreatedAt,
		ArchivedAt: time.Now(),
		Messages:   conv.Messages,
	}
	if tr.Messages == nil {
		tr.Messages = []*model.Message{}
	}
	if tr.Title == "" {
		tr.Title = model.DefaultTitle
	}

	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return err
	}

	// RELIABILITY: Atomic write with fsync prevents a torn transcript on crash
	if err := util.AtomicWriteFile(a.filePath(conv.ID), data, 0644); err != nil {
		return err
	}

	if a.MaxTranscripts > 0 {
		a.enforceLimit()
	}
	return nil
}

// enforceLimit evicts the oldest transcripts when over the cap.
func (a *Archive) enforceLimit() {
	metas, err := a.List()
	if err != nil || len(metas) <= a.MaxTranscripts {
		return
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].ArchivedAt.Before(metas[j].ArchivedAt)
	})

	excess := len(metas) - a.MaxTranscripts
	for i := 0; i < excess; i++ {
		a.Delete(metas[i].ID)
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves an archived transcript by conversation ID.
func (a *Archive) Load(id string) (*Transcript, error) {
	data, err := os.ReadFile(a.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}

	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns all archived transcripts, most recently archived first.
func (a *Archive) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(a.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TranscriptMeta{}, nil
		}
		return nil, err
	}

	var metas []TranscriptMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		tr, err := a.Load(id)
		if err != nil {
			continue // skip corrupted files
		}

		preview := ""
		for _, msg := range tr.Messages {
			if msg.Role == model.RoleUser {
				preview = util.TruncateRunes(msg.Content, 80)
				break
			}
		}

		metas = append(metas, TranscriptMeta{
			ID:           tr.ID,
			Title:        tr.Title,
			CreatedAt:    tr.CreatedAt,
			ArchivedAt:   tr.ArchivedAt,
			MessageCount: len(tr.Messages),
			Preview:      preview,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].ArchivedAt.After(metas[j].ArchivedAt)
	})
	return metas, nil
}

// Search finds transcripts whose title, preview, or message content matches
// the query (case-insensitive). An empty query returns everything.
func (a *Archive) Search(query string) ([]TranscriptMeta, error) {
	all, err := a.List()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	query = strings.ToLower(query)
	var results []TranscriptMeta

	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
			continue
		}

		tr, err := a.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range tr.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes an archived transcript.
func (a *Archive) Delete(id string) error {
	if err := os.Remove(a.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrTranscriptNotFound
		}
		return err
	}
	return nil
}

// Clear removes every archived transcript.
func (a *Archive) Clear() error {
	entries, err := os.ReadDir(a.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(a.BaseDir, entry.Name()))
		}
	}
	return nil
}

// filePath returns the archive file path for a conversation ID.
func (a *Archive) filePath(id string) string {
	return filepath.Join(a.BaseDir, id+".json")
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrTranscriptNotFound is returned when no archive exists for an ID.
// Check with errors.Is(err, ErrTranscriptNotFound).
var ErrTranscriptNotFound = &ArchiveError{Message: "transcript not found"}

// ErrNoTranscript is returned when asked to archive an empty conversation.
var ErrNoTranscript = &ArchiveError{Message: "no transcript to archive"}

// ArchiveError represents an archive-related error.
type ArchiveError struct {
	Message string
}

func (e *ArchiveError) Error() string {
	return e.Message
}

// Is implements errors.Is support for archive errors.
func (e *ArchiveError) Is(target error) bool {
	t, ok := target.(*ArchiveError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the transcript as a Markdown document.
func (t *Transcript) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + t.Title + "\n\n")
	sb.WriteString("Created: " + t.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range t.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.CreatedAt.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		for _, action := range msg.Actions {
			sb.WriteString("\n\n")
			switch {
			case action.URL != "":
				sb.WriteString("- [" + action.Label + "](" + action.URL + ")")
			case action.Query != "":
				sb.WriteString("- " + action.Label + ": `" + action.Query + "`")
			default:
				sb.WriteString("- " + action.Label)
			}
		}
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// ExportJSON renders the transcript as pretty-printed JSON.
func (t *Transcript) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
