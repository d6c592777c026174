// Package postcard generates invitation images. Generation walks an ordered
// chain of strategies: remote synthesis, local rendering, bundled
// placeholder. Every invocation produces exactly one Outcome; remote-service
// errors never escape as plain errors to callers.
package postcard

import (
	"errors"
	"fmt"
)

// Kind tags the origin of a generated image.
type Kind int

const (
	// KindRemote means the image came from the remote synthesis service.
	KindRemote Kind = iota
	// KindLocal means the image was rendered locally from the prompt text.
	KindLocal
	// KindPlaceholder means the bundled static image was used.
	KindPlaceholder
	// KindFailed means no image could be produced; Outcome.Err holds the reason.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindLocal:
		return "local"
	case KindPlaceholder:
		return "placeholder"
	case KindFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the tagged result of one pipeline invocation. Image is set for
// every kind except KindFailed; Err is set only for KindFailed.
type Outcome struct {
	Kind  Kind
	Image []byte
	Err   error
}

// Request describes one generation invocation. It is constructed fresh per
// broadcast and never mutated.
type Request struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	GuidanceScale  float64
	Steps          int
}

var (
	// ErrQuotaExceeded reports the remote service's payment/quota status. It
	// is an expected condition, not an error: the chain falls through to
	// local rendering without logging a failure.
	ErrQuotaExceeded = errors.New("postcard: remote quota exceeded")

	// ErrStillLoading reports that the remote model was still loading after
	// every allowed attempt.
	ErrStillLoading = errors.New("postcard: remote model still loading")

	// ErrAssetMissing reports that the bundled placeholder could not be read.
	ErrAssetMissing = errors.New("postcard: placeholder asset missing")
)

// StatusError reports a non-success remote status outside the retryable and
// quota cases.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("postcard: unexpected remote status %d: %s", e.Code, e.Detail)
}
