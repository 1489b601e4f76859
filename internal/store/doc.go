// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store implements the client-side message store.
//
// The store holds the rendered view of each conversation's message sequence,
// keyed strictly by conversation id. The backend is the source of truth;
// the store only ever replaces a conversation's view wholesale with a fetch
// result, subject to two guards:
//
//   - Navigation guard: results fetched before the active conversation
//     changed are discarded, so conversation A's messages can never appear
//     under conversation B.
//   - Regression guard: a result carrying fewer messages than the current
//     view for the same conversation is discarded. Polling may race an
//     in-flight send, and the view must never shrink while it catches up.
//
// Assistant replies are produced out-of-band on the backend with no push
// channel, so a fixed-interval poll is the delivery mechanism of record.
// A token bucket (golang.org/x/time/rate) coalesces refresh triggers so an
// invalidation burst after a send does not multiply request volume; explicit
// invalidation always wins over the bucket.
package store
