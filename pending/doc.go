// Package pending turns externally delivered completions into blocking calls.
//
// Keyed allows a single outstanding operation per key: the caller registers,
// fires its side effect and parks until whoever observes the outcome calls
// Complete for the same key. Broadcast has no key: every parked caller is
// released together by one Flush.
package pending
