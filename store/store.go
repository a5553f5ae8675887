// Package store persists video, processed-video and caption records.
package store

import (
	"context"
	"fmt"

	"clipapi/config"
	"clipapi/model"

	"github.com/sirupsen/logrus"
)

// Store is the metadata store. Records are written once and looked up by
// key. Unknown keys yield an errs.NotFound error.
type Store interface {
	InsertVideo(ctx context.Context, v *model.Video) error
	GetVideo(ctx context.Context, videoID string) (*model.Video, error)
	// ListVideos returns at most limit videos, newest first.
	ListVideos(ctx context.Context, limit int) ([]model.Video, error)

	InsertProcessed(ctx context.Context, p *model.ProcessedVideo) error
	GetProcessed(ctx context.Context, resultID string) (*model.ProcessedVideo, error)

	InsertCaption(ctx context.Context, c *model.Caption) error
	GetCaption(ctx context.Context, captionID string) (*model.Caption, error)

	Ping(ctx context.Context) error
	Close()
}

const (
	tableVideos    = "videos"
	tableProcessed = "processed_videos"
	tableCaptions  = "captions"
)

// Open builds the store selected by STORE_DRIVER.
func Open(ctx context.Context, cfg *config.Config, log *logrus.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case "", "memory":
		log.Warn("using in-memory metadata store; records are lost on restart")
		return NewMemory(), nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set for the postgres store")
		}
		return NewPostgres(ctx, cfg.DatabaseURL)
	case "postgrest":
		if cfg.PostgrestURL == "" {
			return nil, fmt.Errorf("POSTGREST_URL must be set for the postgrest store")
		}
		return NewPostgREST(cfg.PostgrestURL+"/rest/v1", cfg.PostgrestKey)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
