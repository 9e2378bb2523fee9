package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, ParseDuration("5m", time.Second))
	assert.Equal(t, time.Second, ParseDuration("later", time.Second))
}

func TestWithinWindow(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, WithinWindow(base, base.Add(5*time.Minute), 5*time.Minute))
	assert.False(t, WithinWindow(base, base.Add(5*time.Minute+time.Second), 5*time.Minute))
}
