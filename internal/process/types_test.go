package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDefaultsFillsUnsetFields(t *testing.T) {
	def := Definition{ID: "x", Name: "x", Command: "sleep"}.WithDefaults()
	assert.Equal(t, DefaultMaxRestarts, def.MaxRestarts)
	assert.Equal(t, DefaultRestartWindowSeconds, def.RestartWindowSeconds)
}

func TestWithDefaultsPreservesExplicitValues(t *testing.T) {
	def := Definition{ID: "x", Name: "x", Command: "sleep", MaxRestarts: 9, RestartWindowSeconds: 120}.WithDefaults()
	assert.Equal(t, 9, def.MaxRestarts)
	assert.Equal(t, 120, def.RestartWindowSeconds)
}

func TestUptimeSecondsZeroWhenNotStarted(t *testing.T) {
	s := State{}
	assert.Zero(t, s.UptimeSeconds())
}
