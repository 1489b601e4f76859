// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local transcript archive.
//
// The message service holds the authoritative conversation history; the
// archive is a read-mostly local copy under ~/.cardwise/transcripts/ so
// transcripts survive offline and can be exported to Markdown. One JSON
// file per conversation, written atomically, capped at a configurable
// number of archived conversations with the oldest evicted first.
package storage
