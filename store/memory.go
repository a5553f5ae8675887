package store

import (
	"context"
	"sort"
	"sync"

	"clipapi/errs"
	"clipapi/model"
)

// Memory keeps records in process memory.
type Memory struct {
	mu        sync.RWMutex
	videos    map[string]model.Video
	processed map[string]model.ProcessedVideo
	captions  map[string]model.Caption
}

func NewMemory() *Memory {
	return &Memory{
		videos:    make(map[string]model.Video),
		processed: make(map[string]model.ProcessedVideo),
		captions:  make(map[string]model.Caption),
	}
}

func (m *Memory) InsertVideo(ctx context.Context, v *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[v.VideoID]; ok {
		return errs.Persistence("insert video", errs.Validation("duplicate video_id %s", v.VideoID))
	}
	m.videos[v.VideoID] = *v
	return nil
}

func (m *Memory) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.videos[videoID]
	if !ok {
		return nil, errs.NotFound("Video not found")
	}
	return &v, nil
}

func (m *Memory) ListVideos(ctx context.Context, limit int) ([]model.Video, error) {
	m.mu.RLock()
	out := make([]model.Video, 0, len(m.videos))
	for _, v := range m.videos {
		out = append(out, v)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) InsertProcessed(ctx context.Context, p *model.ProcessedVideo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.processed[p.ResultID]; ok {
		return errs.Persistence("insert processed video", errs.Validation("duplicate result_id %s", p.ResultID))
	}
	cp := *p
	cp.Parameters.Segments = append([]model.CutSegment(nil), p.Parameters.Segments...)
	m.processed[p.ResultID] = cp
	return nil
}

func (m *Memory) GetProcessed(ctx context.Context, resultID string) (*model.ProcessedVideo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.processed[resultID]
	if !ok {
		return nil, errs.NotFound("Processed video not found")
	}
	return &p, nil
}

func (m *Memory) InsertCaption(ctx context.Context, c *model.Caption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.captions[c.CaptionID]; ok {
		return errs.Persistence("insert caption", errs.Validation("duplicate caption_id %s", c.CaptionID))
	}
	cp := *c
	cp.Segments = append([]model.Segment(nil), c.Segments...)
	m.captions[c.CaptionID] = cp
	return nil
}

func (m *Memory) GetCaption(ctx context.Context, captionID string) (*model.Caption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.captions[captionID]
	if !ok {
		return nil, errs.NotFound("Captions not found")
	}
	return &c, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() {}

// Counts reports how many records of each type are held.
func (m *Memory) Counts() (videos, processed, captions int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.videos), len(m.processed), len(m.captions)
}
