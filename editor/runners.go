package editor

import (
	"context"
	"errors"
	"fmt"

	"clipapi/errs"
	"clipapi/job"
	"clipapi/model"
	"clipapi/subtitle"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const audioPattern = "*_audio_*.wav"

// EditResult is the result of a finished trim or cut job.
type EditResult struct {
	ResultID    string `json:"result_id"`
	DownloadURL string `json:"download_url"`
}

// CaptionResult is the result of a finished caption job.
type CaptionResult struct {
	CaptionID string          `json:"caption_id"`
	Text      string          `json:"text"`
	Language  string          `json:"language"`
	Segments  []model.Segment `json:"segments"`
	SRTURL    string          `json:"srt_url"`
	VTTURL    string          `json:"vtt_url"`
}

// Trim schedules a job that keeps [start, end) of a video.
func (s *Service) Trim(videoID string, start, end float64) (job.Job, error) {
	params := model.Parameters{StartTime: &start, EndTime: &end}
	return s.dispatch(job.KindTrim, s.editRunner(videoID, model.OperationTrim, params,
		func(ctx context.Context, input, output string) error {
			return s.media.Trim(ctx, input, output, start, end)
		}))
}

// Cut schedules a job that joins the given segments in order.
func (s *Service) Cut(videoID string, segments []model.CutSegment) (job.Job, error) {
	segs := append([]model.CutSegment(nil), segments...)
	params := model.Parameters{Segments: segs}
	return s.dispatch(job.KindCut, s.editRunner(videoID, model.OperationCut, params,
		func(ctx context.Context, input, output string) error {
			return s.media.Cut(ctx, input, output, segs)
		}))
}

// Captions schedules a transcription job. language may be empty for
// detection.
func (s *Service) Captions(videoID, language string) (job.Job, error) {
	return s.dispatch(job.KindCaption, s.captionRunner(videoID, language))
}

func (s *Service) dispatch(kind job.Kind, run job.RunFunc) (job.Job, error) {
	j, err := s.jobs.Dispatch(kind, run)
	switch {
	case err == nil:
		return j, nil
	case errors.Is(err, job.ErrQueueFull), errors.Is(err, job.ErrNotRunning):
		return job.Job{}, errs.Unavailable("%v, try again later", err)
	default:
		return job.Job{}, err
	}
}

// source loads a video record and the path of its original.
func (s *Service) source(ctx context.Context, videoID string) (*model.Video, string, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, "", err
	}
	path, err := s.blobs.Resolve(video.StoredFilename)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, "", errs.NotFound("Video file not found")
		}
		return nil, "", err
	}
	return video, path, nil
}

type editFunc func(ctx context.Context, input, output string) error

func (s *Service) editRunner(videoID, operation string, params model.Parameters, edit editFunc) job.RunFunc {
	return func(ctx context.Context, p *job.Progress) (any, error) {
		log := s.log.WithFields(logrus.Fields{"job_id": p.JobID(), "video_id": videoID, "operation": operation})

		p.Step(0.1, "Loading video...")
		_, input, err := s.source(ctx, videoID)
		if err != nil {
			return nil, err
		}

		verb := "trimmed"
		if operation == model.OperationCut {
			verb = "cut"
		}
		output := fmt.Sprintf("%s_%s_%s.mp4", videoID, verb, uuid.NewString())

		p.Step(0.3, "Processing video...")
		if err := edit(ctx, input, s.blobs.Path(output)); err != nil {
			_ = s.blobs.Remove(output)
			return nil, err
		}

		p.Step(0.9, "Saving result...")
		// Past this point the record is written and the job must complete.
		if err := ctx.Err(); err != nil {
			_ = s.blobs.Remove(output)
			return nil, err
		}
		rec := &model.ProcessedVideo{
			ResultID:        uuid.NewString(),
			OriginalVideoID: videoID,
			Operation:       operation,
			OutputFilename:  output,
			Parameters:      params,
			CreatedAt:       s.now(),
		}
		if err := s.store.InsertProcessed(ctx, rec); err != nil {
			_ = s.blobs.Remove(output)
			return nil, err
		}

		s.mirrorFiles(ctx, log, output)
		log.WithField("result_id", rec.ResultID).Info("edit finished")
		return EditResult{
			ResultID:    rec.ResultID,
			DownloadURL: fmt.Sprintf("/api/video/download/%s", rec.ResultID),
		}, nil
	}
}

func (s *Service) captionRunner(videoID, language string) job.RunFunc {
	return func(ctx context.Context, p *job.Progress) (result any, err error) {
		log := s.log.WithFields(logrus.Fields{"job_id": p.JobID(), "video_id": videoID, "operation": "caption"})

		p.Step(0.1, "Extracting audio...")
		video, input, err := s.source(ctx, videoID)
		if err != nil {
			return nil, err
		}
		if !video.HasAudio {
			return nil, errs.Validation("video has no audio track to transcribe")
		}

		audio := fmt.Sprintf("%s_audio_%s.wav", videoID, uuid.NewString())
		defer func() {
			if err != nil && s.cfg.KeepFailedAudio {
				log.WithField("file", audio).Info("keeping intermediate audio of failed job")
				return
			}
			if rmErr := s.blobs.Remove(audio); rmErr != nil {
				log.WithError(rmErr).Warn("could not remove intermediate audio")
			}
		}()

		if err := s.media.ExtractAudio(ctx, input, s.blobs.Path(audio)); err != nil {
			return nil, err
		}

		p.Step(0.3, "Transcribing audio...")
		transcript, err := s.transcriber.Transcribe(ctx, s.blobs.Path(audio), language)
		if err != nil {
			return nil, err
		}
		lang := transcript.Language
		if lang == "" {
			lang = language
		}

		p.Step(0.8, "Generating subtitle files...")
		captionID := uuid.NewString()
		base := fmt.Sprintf("%s_captions_%s", videoID, captionID)
		srtName, vttName := base+".srt", base+".vtt"

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.writeSubtitle(srtName, subtitle.FormatSRT, transcript.Segments); err != nil {
			_ = s.blobs.Remove(srtName)
			return nil, err
		}
		if err := s.writeSubtitle(vttName, subtitle.FormatVTT, transcript.Segments); err != nil {
			_ = s.blobs.Remove(srtName, vttName)
			return nil, err
		}

		rec := &model.Caption{
			CaptionID:   captionID,
			VideoID:     videoID,
			Text:        transcript.Text,
			Language:    lang,
			Segments:    transcript.Segments,
			SRTFilename: srtName,
			VTTFilename: vttName,
			CreatedAt:   s.now(),
		}
		if err := s.store.InsertCaption(ctx, rec); err != nil {
			_ = s.blobs.Remove(srtName, vttName)
			return nil, err
		}

		s.mirrorFiles(ctx, log, srtName, vttName)
		log.WithField("caption_id", captionID).Info("captions generated")
		return CaptionResult{
			CaptionID: captionID,
			Text:      transcript.Text,
			Language:  lang,
			Segments:  transcript.Segments,
			SRTURL:    fmt.Sprintf("/api/captions/%s/srt", captionID),
			VTTURL:    fmt.Sprintf("/api/captions/%s/vtt", captionID),
		}, nil
	}
}

func (s *Service) writeSubtitle(name, format string, segments []model.Segment) error {
	content, err := subtitle.Render(format, segments)
	if err != nil {
		return errs.Validation("%v", err)
	}
	if err := s.writeFile(s.blobs.Path(name), []byte(content), 0o644); err != nil {
		return errs.Persistence("could not write subtitle file", err)
	}
	return nil
}
