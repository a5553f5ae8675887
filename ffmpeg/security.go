package ffmpeg

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// SplitCommand splits an argument string the way a shell would, without
// ever invoking one.
func SplitCommand(command string) ([]string, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid command syntax: %w", err)
	}
	return args, nil
}

// SanitizeArgs rejects arguments carrying shell metacharacters. exec never
// interprets them, but configured encoder flags have no reason to contain any.
func SanitizeArgs(args []string) error {
	for _, arg := range args {
		if strings.ContainsAny(arg, "|&;`$()<>") {
			return fmt.Errorf("disallowed character found in argument: %s", arg)
		}
	}
	return nil
}

// ParseExtraArgs splits and sanitizes a configured argument string.
func ParseExtraArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	args, err := SplitCommand(raw)
	if err != nil {
		return nil, err
	}
	if err := SanitizeArgs(args); err != nil {
		return nil, err
	}
	return args, nil
}
