// Package session orchestrates the on-disk session log store: creating,
// appending to, loading, listing, and deleting JSONL session logs under
// <base>/<encoded-workdir>/<filename>.
//
// The store performs no locking of log files. Concurrent appends against
// the same session ID from independent goroutines may interleave writes;
// single-writer-per-session-id discipline is a caller obligation.
//
// Listing never reads whole files. For every candidate the catalog reads
// only the first physical line (start timestamp) and the last physical
// line (last activity and token usage); a full read happens only for the
// one session a caller actually selects.
package session
