package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSweeper_Add(t *testing.T) {
	s := NewSweeper("@every 5m", testLogger())
	assert.NoError(t, s.Add("jobs", func() (int, error) { return 0, nil }))

	bad := NewSweeper("not a schedule", testLogger())
	assert.Error(t, bad.Add("jobs", func() (int, error) { return 0, nil }))
}

func TestSweeper_StartStop(t *testing.T) {
	s := NewSweeper("@every 1h", testLogger())
	assert.NoError(t, s.Add("noop", func() (int, error) { return 0, nil }))
	s.Start()
	ctx := s.Stop()
	<-ctx.Done()
}
