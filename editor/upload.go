package editor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"clipapi/errs"
	"clipapi/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AllowedExtensions are the container formats accepted on upload.
var AllowedExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".flv"}

type UploadResult struct {
	VideoID      string  `json:"video_id"`
	Filename     string  `json:"filename"`
	Duration     float64 `json:"duration"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	FileSize     int64   `json:"file_size"`
	ThumbnailURL string  `json:"thumbnail_url"`
}

func allowedExtension(ext string) bool {
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Upload stores a new original, probes it, grabs a thumbnail from the middle
// of the video and records it. Nothing is left behind when a step fails.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtension(ext) {
		return nil, errs.Validation("Unsupported file type. Allowed: %s", strings.Join(AllowedExtensions, ", "))
	}

	videoID := uuid.NewString()
	stored := videoID + ext
	thumb := videoID + "_thumb.jpg"
	log := s.log.WithFields(logrus.Fields{"video_id": videoID, "filename": filename})

	written, err := s.blobs.Save(stored, r, s.cfg.MaxUploadSize)
	if err != nil {
		return nil, err
	}
	log.WithField("bytes", written).Info("uploading video")

	cleanup := func() {
		if err := s.blobs.Remove(stored, thumb); err != nil {
			log.WithError(err).Warn("could not remove partial upload")
		}
	}

	path := s.blobs.Path(stored)
	info, err := s.media.Probe(ctx, path)
	if err != nil {
		cleanup()
		return nil, err
	}
	if info.FileSize == 0 {
		info.FileSize = written
	}

	if err := s.media.Thumbnail(ctx, path, s.blobs.Path(thumb), info.Duration/2); err != nil {
		cleanup()
		return nil, err
	}

	video := &model.Video{
		VideoID:           videoID,
		Filename:          filename,
		StoredFilename:    stored,
		Duration:          info.Duration,
		Width:             info.Width,
		Height:            info.Height,
		FPS:               info.FPS,
		Codec:             info.Codec,
		HasAudio:          info.HasAudio,
		FileSize:          info.FileSize,
		ThumbnailFilename: thumb,
		UploadedAt:        s.now(),
	}
	if err := s.store.InsertVideo(ctx, video); err != nil {
		cleanup()
		return nil, err
	}

	log.Info("video uploaded successfully")
	return &UploadResult{
		VideoID:      videoID,
		Filename:     filename,
		Duration:     info.Duration,
		Width:        info.Width,
		Height:       info.Height,
		FileSize:     info.FileSize,
		ThumbnailURL: fmt.Sprintf("/api/video/%s/thumbnail", videoID),
	}, nil
}
