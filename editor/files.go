package editor

import (
	"context"
	"fmt"

	"clipapi/errs"
	"clipapi/model"
	"clipapi/subtitle"
)

// File is a blob ready to be served.
type File struct {
	Path        string
	Name        string
	ContentType string
}

func (s *Service) VideoInfo(ctx context.Context, videoID string) (*model.Video, error) {
	return s.store.GetVideo(ctx, videoID)
}

// ListVideos returns up to LIST_LIMIT videos, newest first.
func (s *Service) ListVideos(ctx context.Context) ([]model.Video, error) {
	return s.store.ListVideos(ctx, s.cfg.ListLimit)
}

func (s *Service) resolve(name, missing string) (string, error) {
	path, err := s.blobs.Resolve(name)
	if errs.IsNotFound(err) {
		return "", errs.NotFound("%s", missing)
	}
	return path, err
}

// VideoStream resolves the original of an uploaded video.
func (s *Service) VideoStream(ctx context.Context, videoID string) (*File, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	path, err := s.resolve(video.StoredFilename, "Video file not found")
	if err != nil {
		return nil, err
	}
	return &File{Path: path, ContentType: "video/mp4"}, nil
}

func (s *Service) Thumbnail(ctx context.Context, videoID string) (*File, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	path, err := s.resolve(video.ThumbnailFilename, "Thumbnail not found")
	if err != nil {
		return nil, err
	}
	return &File{Path: path, ContentType: "image/jpeg"}, nil
}

// Result resolves the output of a finished trim or cut job.
func (s *Service) Result(ctx context.Context, resultID string) (*File, error) {
	rec, err := s.store.GetProcessed(ctx, resultID)
	if err != nil {
		return nil, err
	}
	path, err := s.resolve(rec.OutputFilename, "Video file not found")
	if err != nil {
		return nil, err
	}
	return &File{
		Path:        path,
		Name:        fmt.Sprintf("clipix_edited_%s.mp4", resultID),
		ContentType: "video/mp4",
	}, nil
}

// CaptionFile resolves the SRT or VTT file of a caption record.
func (s *Service) CaptionFile(ctx context.Context, captionID, format string) (*File, error) {
	if format != subtitle.FormatSRT && format != subtitle.FormatVTT {
		return nil, errs.Validation("unsupported subtitle format %q, use srt or vtt", format)
	}
	rec, err := s.store.GetCaption(ctx, captionID)
	if err != nil {
		return nil, err
	}

	name, contentType, missing := rec.SRTFilename, "application/x-subrip", "SRT file not found"
	if format == subtitle.FormatVTT {
		name, contentType, missing = rec.VTTFilename, "text/vtt", "VTT file not found"
	}
	path, err := s.resolve(name, missing)
	if err != nil {
		return nil, err
	}
	return &File{
		Path:        path,
		Name:        fmt.Sprintf("captions_%s.%s", captionID, format),
		ContentType: contentType,
	}, nil
}
