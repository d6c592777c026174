// Package prompt builds generation prompts for postcard broadcasts. A single
// Composer instance owns the scenario rotation cursor for the lifetime of the
// process and is shared by every trigger and command handler.
package prompt

import (
	"strings"
	"sync"
)

// Composer combines a base prompt, a rotating scenario and optional user
// extras into one generation prompt.
type Composer struct {
	mu        sync.Mutex
	scenarios []string
	cursor    int
}

// NewComposer creates a Composer over the given scenario rotation. The slice
// may be empty, in which case no scenario segment is ever emitted.
func NewComposer(scenarios []string) *Composer {
	return &Composer{scenarios: scenarios}
}

// Compose returns the full generation prompt. The base prompt always comes
// first; the current scenario (if any) and the trimmed extra (if non-empty)
// follow, each as its own blank-line-separated segment. The rotation cursor
// advances exactly once per call, so back-to-back calls never repeat a
// scenario unless the rotation has length 1. Compose cannot fail.
func (c *Composer) Compose(base, extra string) string {
	parts := []string{strings.TrimSpace(base)}

	if scenario := c.nextScenario(); scenario != "" {
		parts = append(parts, "Сценарий: "+scenario)
	}

	if extra = strings.TrimSpace(extra); extra != "" {
		parts = append(parts, "Дополнительные пожелания: "+extra)
	}

	return strings.Join(parts, "\n\n")
}

// nextScenario returns the current rotation element and advances the cursor.
func (c *Composer) nextScenario() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.scenarios) == 0 {
		return ""
	}
	scenario := c.scenarios[c.cursor%len(c.scenarios)]
	c.cursor = (c.cursor + 1) % len(c.scenarios)
	return scenario
}
