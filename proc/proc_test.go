package proc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTail(t *testing.T) {
	out := "line1\n\nline2\nline3\n  \nline4\n"
	assert.Equal(t, "line3; line4", Tail(out, 2))
	assert.Equal(t, "line1; line2; line3; line4", Tail(out, 10))
	assert.Equal(t, "", Tail("", 3))
}

func TestCommandError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &CommandError{Command: "ffmpeg", ExitCode: 1, Stderr: "Invalid data found", Err: cause}
	assert.Equal(t, "ffmpeg exited with status 1: Invalid data found", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := &CommandError{Command: "ffprobe", ExitCode: 2}
	assert.Equal(t, "ffprobe exited with status 2", bare.Error())
}

func TestExec_MissingBinary(t *testing.T) {
	_, err := Exec{}.Run(context.Background(), "clipapi-no-such-binary")
	assert.Error(t, err)
}
