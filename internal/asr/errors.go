package asr

import "errors"

// ErrSegmenterFailed wraps any error surfaced by a Segmenter. It is treated
// identically to "fewer than 2 sentences available": sentence-based
// scrolling is skipped for the current iteration, nothing else mutates.
var ErrSegmenterFailed = errors.New("sentence segmenter failed")

// ErrInvariantViolation marks a programmer-error condition (e.g. a
// committed word's text not found as a prefix of its sentence string). It is
// returned by ProjectSentences after the iteration's words have already been
// committed: the Processor logs it and skips only the sentence-based scroll,
// so those words stay committed and are still emitted. It never crashes a
// long-running session.
var ErrInvariantViolation = errors.New("invariant violation")
