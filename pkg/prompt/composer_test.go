package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose_AllSegments(t *testing.T) {
	c := NewComposer([]string{"бар на крыше"})

	got := c.Compose("  Открытка на пивную среду.  ", "  побольше пены ")

	want := "Открытка на пивную среду.\n\n" +
		"Сценарий: бар на крыше\n\n" +
		"Дополнительные пожелания: побольше пены"
	assert.Equal(t, want, got)
}

func TestCompose_NoScenariosNoExtra(t *testing.T) {
	c := NewComposer(nil)

	got := c.Compose("База", "")
	assert.Equal(t, "База", got)

	got = c.Compose("База", "   ")
	assert.Equal(t, "База", got)
}

func TestCompose_RotationIsModuloCycle(t *testing.T) {
	scenarios := []string{"s1", "s2", "s3", "s4"}
	c := NewComposer(scenarios)

	seen := make(map[string]int)
	for i := 0; i < 2*len(scenarios); i++ {
		out := c.Compose("base", "")
		for _, s := range scenarios {
			if strings.Contains(out, "Сценарий: "+s) {
				seen[s]++
			}
		}
	}

	for _, s := range scenarios {
		assert.Equal(t, 2, seen[s], fmt.Sprintf("scenario %s should appear exactly twice", s))
	}
}

func TestCompose_AdvancesOncePerCall(t *testing.T) {
	c := NewComposer([]string{"a", "b"})

	first := c.Compose("base", "extra that is ignored by rotation")
	second := c.Compose("base", "")

	assert.Contains(t, first, "Сценарий: a")
	assert.Contains(t, second, "Сценарий: b")
}
