package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"clipapi/errs"
	"clipapi/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	video_id           TEXT PRIMARY KEY,
	filename           TEXT NOT NULL,
	stored_filename    TEXT NOT NULL,
	duration           DOUBLE PRECISION NOT NULL,
	width              INTEGER NOT NULL,
	height             INTEGER NOT NULL,
	fps                DOUBLE PRECISION NOT NULL,
	codec              TEXT NOT NULL,
	has_audio          BOOLEAN NOT NULL,
	file_size          BIGINT NOT NULL,
	thumbnail_filename TEXT NOT NULL,
	uploaded_at        TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS processed_videos (
	result_id         TEXT PRIMARY KEY,
	original_video_id TEXT NOT NULL REFERENCES videos(video_id),
	operation         TEXT NOT NULL,
	output_filename   TEXT NOT NULL,
	parameters        JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS captions (
	caption_id   TEXT PRIMARY KEY,
	video_id     TEXT NOT NULL REFERENCES videos(video_id),
	text         TEXT NOT NULL,
	language     TEXT NOT NULL,
	segments     JSONB NOT NULL,
	srt_filename TEXT NOT NULL,
	vtt_filename TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
`

// Postgres stores records in PostgreSQL through a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects and creates the tables when they are missing.
func NewPostgres(ctx context.Context, dbURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) InsertVideo(ctx context.Context, v *model.Video) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO videos (video_id, filename, stored_filename, duration, width, height,
			fps, codec, has_audio, file_size, thumbnail_filename, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		v.VideoID, v.Filename, v.StoredFilename, v.Duration, v.Width, v.Height,
		v.FPS, v.Codec, v.HasAudio, v.FileSize, v.ThumbnailFilename, v.UploadedAt)
	if err != nil {
		return errs.Persistence("insert video", err)
	}
	return nil
}

const videoColumns = `video_id, filename, stored_filename, duration, width, height,
	fps, codec, has_audio, file_size, thumbnail_filename, uploaded_at`

func scanVideo(row pgx.Row) (*model.Video, error) {
	var v model.Video
	err := row.Scan(&v.VideoID, &v.Filename, &v.StoredFilename, &v.Duration, &v.Width, &v.Height,
		&v.FPS, &v.Codec, &v.HasAudio, &v.FileSize, &v.ThumbnailFilename, &v.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (p *Postgres) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	v, err := scanVideo(p.pool.QueryRow(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE video_id = $1`, videoID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("Video not found")
	}
	if err != nil {
		return nil, errs.Persistence("get video", err)
	}
	return v, nil
}

func (p *Postgres) ListVideos(ctx context.Context, limit int) ([]model.Video, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+videoColumns+` FROM videos ORDER BY uploaded_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, errs.Persistence("list videos", err)
	}
	defer rows.Close()

	videos := []model.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, errs.Persistence("list videos", err)
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("list videos", err)
	}
	return videos, nil
}

func (p *Postgres) InsertProcessed(ctx context.Context, pv *model.ProcessedVideo) error {
	params, err := json.Marshal(pv.Parameters)
	if err != nil {
		return errs.Persistence("encode parameters", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO processed_videos (result_id, original_video_id, operation, output_filename, parameters, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		pv.ResultID, pv.OriginalVideoID, pv.Operation, pv.OutputFilename, params, pv.CreatedAt)
	if err != nil {
		return errs.Persistence("insert processed video", err)
	}
	return nil
}

func (p *Postgres) GetProcessed(ctx context.Context, resultID string) (*model.ProcessedVideo, error) {
	var (
		pv     model.ProcessedVideo
		params []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT result_id, original_video_id, operation, output_filename, parameters, created_at
		FROM processed_videos WHERE result_id = $1`, resultID).
		Scan(&pv.ResultID, &pv.OriginalVideoID, &pv.Operation, &pv.OutputFilename, &params, &pv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("Processed video not found")
	}
	if err != nil {
		return nil, errs.Persistence("get processed video", err)
	}
	if err := json.Unmarshal(params, &pv.Parameters); err != nil {
		return nil, errs.Persistence("decode parameters", err)
	}
	return &pv, nil
}

func (p *Postgres) InsertCaption(ctx context.Context, c *model.Caption) error {
	segments, err := json.Marshal(c.Segments)
	if err != nil {
		return errs.Persistence("encode segments", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO captions (caption_id, video_id, text, language, segments, srt_filename, vtt_filename, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.CaptionID, c.VideoID, c.Text, c.Language, segments, c.SRTFilename, c.VTTFilename, c.CreatedAt)
	if err != nil {
		return errs.Persistence("insert caption", err)
	}
	return nil
}

func (p *Postgres) GetCaption(ctx context.Context, captionID string) (*model.Caption, error) {
	var (
		c        model.Caption
		segments []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT caption_id, video_id, text, language, segments, srt_filename, vtt_filename, created_at
		FROM captions WHERE caption_id = $1`, captionID).
		Scan(&c.CaptionID, &c.VideoID, &c.Text, &c.Language, &segments, &c.SRTFilename, &c.VTTFilename, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("Captions not found")
	}
	if err != nil {
		return nil, errs.Persistence("get caption", err)
	}
	if err := json.Unmarshal(segments, &c.Segments); err != nil {
		return nil, errs.Persistence("decode segments", err)
	}
	return &c, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
