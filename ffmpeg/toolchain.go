// Package ffmpeg drives the ffmpeg and ffprobe binaries for probing,
// thumbnailing, trimming, cutting and audio extraction.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"clipapi/config"
	"clipapi/errs"
	"clipapi/model"
	"clipapi/proc"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

type Toolchain struct {
	ffmpegBin  string
	ffprobeBin string
	encodeArgs []string
	thumbWidth int
	limits     Thresholds
	runner     proc.Runner
	log        *logrus.Logger
}

// New checks that the binaries are reachable and parses FF_ENCODE_ARGS.
func New(cfg *config.Config, log *logrus.Logger) (*Toolchain, error) {
	for _, bin := range []string{cfg.FFBin, cfg.FFProbeBin} {
		if _, err := exec.LookPath(bin); err != nil {
			return nil, fmt.Errorf("binary not found or not in PATH: %s", bin)
		}
	}
	return NewWithRunner(cfg, proc.Exec{}, log)
}

// NewWithRunner builds a Toolchain on top of an arbitrary command runner.
func NewWithRunner(cfg *config.Config, runner proc.Runner, log *logrus.Logger) (*Toolchain, error) {
	encodeArgs, err := ParseExtraArgs(cfg.FFEncodeArgs)
	if err != nil {
		return nil, fmt.Errorf("FF_ENCODE_ARGS: %w", err)
	}
	return &Toolchain{
		ffmpegBin:  cfg.FFBin,
		ffprobeBin: cfg.FFProbeBin,
		encodeArgs: encodeArgs,
		thumbWidth: cfg.ThumbnailWidth,
		limits: Thresholds{
			IdleCPU:  cfg.ThrottleCPU,
			FreeMem:  cfg.ThrottleFreeMem,
			FreeDisk: cfg.ThrottleFreeDisk,
		},
		runner: runner,
		log:    log,
	}, nil
}

func (t *Toolchain) ffmpeg(ctx context.Context, op string, args ...string) error {
	full := append([]string{"-hide_banner", "-nostdin", "-y"}, args...)
	t.log.WithFields(logrus.Fields{"op": op, "args": strings.Join(full, " ")}).Debug("running ffmpeg")

	if _, err := t.runner.Run(ctx, t.ffmpegBin, full...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.Adapter(op+" failed", err)
	}
	return nil
}

func (t *Toolchain) gate(output string) error {
	if err := t.checkResources(filepath.Dir(output)); err != nil {
		return errs.Unavailable("insufficient system resources: %v", err)
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// Thumbnail grabs the frame at the given offset and scales it down to the
// configured width.
func (t *Toolchain) Thumbnail(ctx context.Context, input, output string, at float64) error {
	if at < 0 {
		at = 0
	}
	err := t.ffmpeg(ctx, "thumbnail",
		"-ss", formatSeconds(at),
		"-i", input,
		"-vframes", "1",
		"-q:v", "2",
		output,
	)
	if err != nil {
		return err
	}
	if t.thumbWidth <= 0 {
		return nil
	}

	img, err := imaging.Open(output)
	if err != nil {
		return errs.Adapter("thumbnail is not a readable image", err)
	}
	if img.Bounds().Dx() <= t.thumbWidth {
		return nil
	}
	resized := imaging.Resize(img, t.thumbWidth, 0, imaging.Lanczos)
	if err := imaging.Save(resized, output, imaging.JPEGQuality(85)); err != nil {
		return errs.Adapter("could not save thumbnail", err)
	}
	return nil
}

// Trim re-encodes [start, end) of input into output.
func (t *Toolchain) Trim(ctx context.Context, input, output string, start, end float64) error {
	if start < 0 {
		return errs.Validation("start time must not be negative")
	}
	if end <= start {
		return errs.Validation("end time must be greater than start time")
	}
	if err := t.gate(output); err != nil {
		return err
	}
	return t.encodeRange(ctx, "trim", input, output, start, end)
}

func (t *Toolchain) encodeRange(ctx context.Context, op, input, output string, start, end float64) error {
	args := []string{
		"-ss", formatSeconds(start),
		"-i", input,
		"-t", formatSeconds(end - start),
	}
	args = append(args, t.encodeArgs...)
	args = append(args, output)

	if err := t.ffmpeg(ctx, op, args...); err != nil {
		_ = os.Remove(output)
		return err
	}
	return nil
}

// Cut extracts every segment and joins them in the given order.
func (t *Toolchain) Cut(ctx context.Context, input, output string, segments []model.CutSegment) error {
	if len(segments) == 0 {
		return errs.Validation("at least one segment is required")
	}
	for i, seg := range segments {
		if seg.Start < 0 || seg.End <= seg.Start {
			return errs.Validation("segment %d: invalid range %.3f-%.3f", i, seg.Start, seg.End)
		}
	}
	if err := t.gate(output); err != nil {
		return err
	}

	workDir, err := os.MkdirTemp(filepath.Dir(output), ".cut-*")
	if err != nil {
		return errs.Persistence("could not create work directory", err)
	}
	defer os.RemoveAll(workDir)

	var list strings.Builder
	for i, seg := range segments {
		part := filepath.Join(workDir, fmt.Sprintf("part_%03d.mp4", i))
		if err := t.encodeRange(ctx, "cut segment", input, part, seg.Start, seg.End); err != nil {
			return err
		}
		abs, err := filepath.Abs(part)
		if err != nil {
			return errs.Persistence("could not resolve segment path", err)
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}

	listPath := filepath.Join(workDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return errs.Persistence("could not write concat list", err)
	}

	err = t.ffmpeg(ctx, "concat",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	)
	if err != nil {
		_ = os.Remove(output)
		return err
	}
	return nil
}

// ExtractAudio writes the audio track as 16 kHz mono PCM WAV.
func (t *Toolchain) ExtractAudio(ctx context.Context, input, output string) error {
	if err := t.gate(output); err != nil {
		return err
	}
	err := t.ffmpeg(ctx, "extract audio",
		"-i", input,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		output,
	)
	if err != nil {
		_ = os.Remove(output)
		return err
	}
	return nil
}
