package store

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"clipapi/config"
	"clipapi/errs"
	"clipapi/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVideo(id string, at time.Time) *model.Video {
	return &model.Video{
		VideoID:           id,
		Filename:          "holiday.mp4",
		StoredFilename:    id + ".mp4",
		Duration:          12.5,
		Width:             1280,
		Height:            720,
		FPS:               30,
		Codec:             "h264",
		HasAudio:          true,
		FileSize:          4096,
		ThumbnailFilename: id + "_thumb.jpg",
		UploadedAt:        at,
	}
}

func TestMemory_Videos(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.InsertVideo(ctx, sampleVideo("a", base)))
	require.NoError(t, m.InsertVideo(ctx, sampleVideo("b", base.Add(time.Minute))))

	got, err := m.GetVideo(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "holiday.mp4", got.Filename)

	_, err = m.GetVideo(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))

	err = m.InsertVideo(ctx, sampleVideo("a", base))
	assert.Equal(t, errs.KindPersistence, errs.KindOf(err))

	list, err := m.ListVideos(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].VideoID)
}

func TestMemory_ListVideosLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Now()
	for i := 0; i < 120; i++ {
		require.NoError(t, m.InsertVideo(ctx, sampleVideo(fmt.Sprintf("v%03d", i), base.Add(time.Duration(i)*time.Second))))
	}

	list, err := m.ListVideos(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, list, 100)
	assert.Equal(t, "v119", list[0].VideoID)

	list, err = m.ListVideos(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, list, 5)
}

func TestMemory_ProcessedAndCaptions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	segments := []model.CutSegment{{Start: 0, End: 2}, {Start: 5, End: 7}}
	pv := &model.ProcessedVideo{
		ResultID:        "r1",
		OriginalVideoID: "a",
		Operation:       model.OperationCut,
		OutputFilename:  "a_cut_x.mp4",
		Parameters:      model.Parameters{Segments: segments},
		CreatedAt:       time.Now(),
	}
	require.NoError(t, m.InsertProcessed(ctx, pv))
	segments[0].Start = 99

	got, err := m.GetProcessed(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []model.CutSegment{{Start: 0, End: 2}, {Start: 5, End: 7}}, got.Parameters.Segments)

	_, err = m.GetProcessed(ctx, "nope")
	assert.True(t, errs.IsNotFound(err))

	c := &model.Caption{CaptionID: "c1", VideoID: "a", Text: "Hi", Segments: []model.Segment{{Start: 0, End: 1.5, Text: "Hi"}}}
	require.NoError(t, m.InsertCaption(ctx, c))
	gotC, err := m.GetCaption(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Hi", gotC.Text)

	_, err = m.GetCaption(ctx, "nope")
	assert.True(t, errs.IsNotFound(err))

	v, p, cc := m.Counts()
	assert.Equal(t, 0, v)
	assert.Equal(t, 1, p)
	assert.Equal(t, 1, cc)
	assert.NoError(t, m.Ping(ctx))
}

func TestOpen(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	ctx := context.Background()

	s, err := Open(ctx, &config.Config{StoreDriver: "memory"}, log)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(ctx, &config.Config{StoreDriver: "postgres"}, log)
	assert.Error(t, err)

	_, err = Open(ctx, &config.Config{StoreDriver: "postgrest"}, log)
	assert.Error(t, err)

	_, err = Open(ctx, &config.Config{StoreDriver: "mongo"}, log)
	assert.Error(t, err)

	s, err = Open(ctx, &config.Config{StoreDriver: "postgrest", PostgrestURL: "http://localhost:3000"}, log)
	require.NoError(t, err)
	assert.IsType(t, &PostgREST{}, s)
}
