package postcard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// RemoteGenerator is the remote synthesis service boundary.
type RemoteGenerator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// LocalRenderer is the offline rendering boundary.
type LocalRenderer interface {
	Render(req Request) ([]byte, error)
}

// step is one strategy in the generation chain. advance decides whether the
// strategy's failure falls through to the next step or aborts the chain.
type step struct {
	kind     Kind
	generate func(ctx context.Context, req Request) ([]byte, error)
	advance  func(err error) bool
}

// Pipeline walks the ordered strategy chain remote → local render →
// placeholder. The chain policy lives in the step table built by NewPipeline:
// the remote step falls through only on the expected quota status, the local
// renderer falls through on any failure, the placeholder aborts.
type Pipeline struct {
	steps []step
}

// NewPipeline assembles the chain. placeholderPath is the bundled static
// image used as the last resort.
func NewPipeline(remote RemoteGenerator, renderer LocalRenderer, placeholderPath string) *Pipeline {
	return &Pipeline{steps: []step{
		{
			kind:     KindRemote,
			generate: remote.Generate,
			advance:  func(err error) bool { return errors.Is(err, ErrQuotaExceeded) },
		},
		{
			kind: KindLocal,
			generate: func(_ context.Context, req Request) ([]byte, error) {
				return renderer.Render(req)
			},
			advance: func(error) bool { return true },
		},
		{
			kind: KindPlaceholder,
			generate: func(context.Context, Request) ([]byte, error) {
				return readPlaceholder(placeholderPath)
			},
			advance: func(error) bool { return false },
		},
	}}
}

// Generate produces exactly one Outcome. It never returns an error: every
// failure is folded into the Outcome, so callers handle all four variants in
// one place.
func (p *Pipeline) Generate(ctx context.Context, req Request) Outcome {
	for _, s := range p.steps {
		img, err := s.generate(ctx, req)
		if err == nil {
			return Outcome{Kind: s.kind, Image: img}
		}

		if !s.advance(err) {
			slog.Error("postcard generation failed", "stage", s.kind, "error", err)
			return Outcome{Kind: KindFailed, Err: err}
		}

		if errors.Is(err, ErrQuotaExceeded) {
			// Expected condition, not a failure.
			slog.Info("remote generation unavailable, falling back", "stage", s.kind, "reason", err)
		} else {
			slog.Warn("generation stage failed, falling back", "stage", s.kind, "error", err)
		}
	}

	// Unreachable with the standard chain: the last step never advances.
	return Outcome{Kind: KindFailed, Err: errors.New("postcard: strategy chain exhausted")}
}

// readPlaceholder loads the bundled static image.
func readPlaceholder(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetMissing, path)
	}
	return data, nil
}
