package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("exit status 1")
	wrapped := fmt.Errorf("trim: %w", Adapter("ffmpeg trim failed", cause))

	assert.Equal(t, KindAdapter, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "trim: ffmpeg trim failed: exit status 1", wrapped.Error())

	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.True(t, IsNotFound(NotFound("video %s not found", "abc")))
	assert.Equal(t, "video abc not found", NotFound("video %s not found", "abc").Error())
}
