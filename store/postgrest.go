package store

import (
	"context"
	"encoding/json"
	"fmt"

	"clipapi/errs"
	"clipapi/model"

	"github.com/supabase-community/postgrest-go"
)

// PostgREST stores records through a PostgREST (or Supabase) endpoint. The
// tables mirror the JSON shape of the records.
type PostgREST struct {
	client *postgrest.Client
}

func NewPostgREST(url, key string) (*PostgREST, error) {
	headers := map[string]string{}
	if key != "" {
		headers["apikey"] = key
		headers["Authorization"] = fmt.Sprintf("Bearer %s", key)
	}
	client := postgrest.NewClient(url, "", headers)
	if client.ClientError != nil {
		return nil, fmt.Errorf("failed to initialize PostgREST client: %w", client.ClientError)
	}
	return &PostgREST{client: client}, nil
}

func (p *PostgREST) insert(table string, record any) error {
	_, _, err := p.client.From(table).Insert(record, false, "", "minimal", "").Execute()
	if err != nil {
		return errs.Persistence("insert into "+table, err)
	}
	return nil
}

// getOne fetches the row whose column equals value into dst.
func getOne[T any](p *PostgREST, table, column, value, notFound string) (*T, error) {
	body, _, err := p.client.From(table).
		Select("*", "", false).
		Eq(column, value).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, errs.Persistence("query "+table, err)
	}

	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, errs.Persistence("decode "+table, err)
	}
	if len(rows) == 0 {
		return nil, errs.NotFound("%s", notFound)
	}
	return &rows[0], nil
}

func (p *PostgREST) InsertVideo(ctx context.Context, v *model.Video) error {
	return p.insert(tableVideos, v)
}

func (p *PostgREST) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	return getOne[model.Video](p, tableVideos, "video_id", videoID, "Video not found")
}

func (p *PostgREST) ListVideos(ctx context.Context, limit int) ([]model.Video, error) {
	body, _, err := p.client.From(tableVideos).
		Select("*", "", false).
		Order("uploaded_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(clampLimit(limit), "").
		Execute()
	if err != nil {
		return nil, errs.Persistence("list videos", err)
	}

	videos := []model.Video{}
	if err := json.Unmarshal(body, &videos); err != nil {
		return nil, errs.Persistence("decode videos", err)
	}
	return videos, nil
}

func (p *PostgREST) InsertProcessed(ctx context.Context, pv *model.ProcessedVideo) error {
	return p.insert(tableProcessed, pv)
}

func (p *PostgREST) GetProcessed(ctx context.Context, resultID string) (*model.ProcessedVideo, error) {
	return getOne[model.ProcessedVideo](p, tableProcessed, "result_id", resultID, "Processed video not found")
}

func (p *PostgREST) InsertCaption(ctx context.Context, c *model.Caption) error {
	return p.insert(tableCaptions, c)
}

func (p *PostgREST) GetCaption(ctx context.Context, captionID string) (*model.Caption, error) {
	return getOne[model.Caption](p, tableCaptions, "caption_id", captionID, "Captions not found")
}

// Ping issues a one-row select, which fails when the endpoint or the table
// is unreachable.
func (p *PostgREST) Ping(ctx context.Context) error {
	body, _, err := p.client.From(tableVideos).Select("video_id", "", false).Limit(1, "").Execute()
	if err != nil {
		return err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("unexpected PostgREST response: %w", err)
	}
	return nil
}

func (p *PostgREST) Close() {}
