package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"clipapi/errs"
	"clipapi/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePostgREST answers the small subset of PostgREST requests the store
// issues: inserts and eq-filtered selects.
type fakePostgREST struct {
	mu      sync.Mutex
	tables  map[string][]map[string]any
	headers http.Header
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headers = r.Header.Clone()

	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	switch r.Method {
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		var row map[string]any
		if err := json.Unmarshal(body, &row); err != nil {
			http.Error(w, `{"code":"400","message":"bad json"}`, http.StatusBadRequest)
			return
		}
		f.tables[table] = append(f.tables[table], row)
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		out := []map[string]any{}
		for _, row := range f.tables[table] {
			match := true
			for key, vals := range r.URL.Query() {
				if key == "select" || key == "limit" || key == "order" {
					continue
				}
				if want := strings.TrimPrefix(vals[0], "eq."); row[key] != want {
					match = false
				}
			}
			if match {
				out = append(out, row)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakePostgREST(t *testing.T) (*PostgREST, *fakePostgREST) {
	t.Helper()
	fake := &fakePostgREST{tables: map[string][]map[string]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	p, err := NewPostgREST(srv.URL+"/rest/v1", "secret")
	require.NoError(t, err)
	return p, fake
}

func TestPostgREST_VideoRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, fake := newFakePostgREST(t)

	v := sampleVideo("vid-1", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, p.InsertVideo(ctx, v))
	assert.Equal(t, "Bearer secret", fake.headers.Get("Authorization"))
	assert.Equal(t, "secret", fake.headers.Get("apikey"))

	got, err := p.GetVideo(ctx, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, v.Filename, got.Filename)
	assert.Equal(t, v.Width, got.Width)
	assert.True(t, v.UploadedAt.Equal(got.UploadedAt))

	_, err = p.GetVideo(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))

	list, err := p.ListVideos(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.NoError(t, p.Ping(ctx))
}

func TestPostgREST_ProcessedAndCaptions(t *testing.T) {
	ctx := context.Background()
	p, _ := newFakePostgREST(t)

	start, end := 2.0, 5.0
	pv := &model.ProcessedVideo{
		ResultID:        "r1",
		OriginalVideoID: "vid-1",
		Operation:       model.OperationTrim,
		OutputFilename:  "vid-1_trimmed_x.mp4",
		Parameters:      model.Parameters{StartTime: &start, EndTime: &end},
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, p.InsertProcessed(ctx, pv))

	got, err := p.GetProcessed(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got.Parameters.StartTime)
	assert.Equal(t, 2.0, *got.Parameters.StartTime)
	assert.Equal(t, 5.0, *got.Parameters.EndTime)

	c := &model.Caption{
		CaptionID: "c1",
		VideoID:   "vid-1",
		Text:      "Hi",
		Language:  "en",
		Segments:  []model.Segment{{Start: 0, End: 1.5, Text: "Hi"}},
	}
	require.NoError(t, p.InsertCaption(ctx, c))
	gotC, err := p.GetCaption(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c.Segments, gotC.Segments)

	_, err = p.GetCaption(ctx, "c2")
	assert.True(t, errs.IsNotFound(err))
}

func TestPostgREST_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"XX000","message":"boom"}`))
	}))
	defer srv.Close()

	p, err := NewPostgREST(srv.URL, "")
	require.NoError(t, err)

	_, err = p.GetVideo(context.Background(), "x")
	assert.Equal(t, errs.KindPersistence, errs.KindOf(err))
	assert.Error(t, p.Ping(context.Background()))
}
