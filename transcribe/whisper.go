// Package transcribe turns extracted audio into timed transcript segments
// using the whisper.cpp command line tool.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipapi/config"
	"clipapi/errs"
	"clipapi/ffmpeg"
	"clipapi/model"
	"clipapi/proc"

	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

type Whisper struct {
	bin       string
	model     string
	extraArgs []string
	runner    proc.Runner
	log       *logrus.Logger
}

func New(cfg *config.Config, log *logrus.Logger) (*Whisper, error) {
	return NewWithRunner(cfg, proc.Exec{}, log)
}

func NewWithRunner(cfg *config.Config, runner proc.Runner, log *logrus.Logger) (*Whisper, error) {
	extra, err := ffmpeg.ParseExtraArgs(cfg.WhisperArgs)
	if err != nil {
		return nil, fmt.Errorf("WHISPER_ARGS: %w", err)
	}
	return &Whisper{
		bin:       cfg.WhisperBin,
		model:     cfg.WhisperModel,
		extraArgs: extra,
		runner:    runner,
		log:       log,
	}, nil
}

// whisperOutput is the subset of whisper.cpp's -oj file that we read.
type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcribe runs whisper on a 16 kHz mono WAV. language may be empty or
// "auto" for detection.
func (w *Whisper) Transcribe(ctx context.Context, audioPath, language string) (*model.Transcript, error) {
	if err := validateAudio(audioPath); err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	args := buildArgs(w.model, audioPath, base, language)
	args = append(args, w.extraArgs...)

	w.log.WithFields(logrus.Fields{"audio": filepath.Base(audioPath), "language": language}).Debug("running whisper")

	jsonPath := base + ".json"
	defer os.Remove(jsonPath)

	if _, err := w.runner.Run(ctx, w.bin, args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Adapter("transcription failed", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, errs.Adapter("whisper completed but its JSON output is missing", err)
	}
	return parseOutput(data, language)
}

func validateAudio(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.Adapter("cannot open extracted audio", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return errs.Adapter("extracted audio is not a valid WAV file", nil)
	}
	if err := dec.FwdToPCM(); err != nil {
		return errs.Adapter("cannot locate audio samples", err)
	}
	if dec.PCMLen() == 0 {
		return errs.Adapter("extracted audio is empty", nil)
	}
	return nil
}

func parseOutput(data []byte, hint string) (*model.Transcript, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errs.Adapter("could not parse whisper output", err)
	}

	tr := &model.Transcript{
		Language: out.Result.Language,
		Segments: make([]model.Segment, 0, len(out.Transcription)),
	}
	if tr.Language == "" {
		tr.Language = normalizeLanguage(hint)
	}

	texts := make([]string, 0, len(out.Transcription))
	for _, item := range out.Transcription {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		tr.Segments = append(tr.Segments, model.Segment{
			Start: float64(item.Offsets.From) / 1000,
			End:   float64(item.Offsets.To) / 1000,
			Text:  text,
		})
		texts = append(texts, text)
	}
	tr.Text = strings.Join(texts, " ")
	return tr, nil
}

// normalizeLanguage maps "auto" and empty language to no CLI override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}

func buildArgs(modelPath, audioPath, outBase, language string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", outBase,
		"-oj",
	}
	if lang := normalizeLanguage(language); lang != "" {
		args = append(args, "-l", lang)
	}
	return args
}
