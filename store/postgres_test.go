package store

import (
	"context"
	"os"
	"testing"
	"time"

	"clipapi/errs"
	"clipapi/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only when CLIPAPI_TEST_DATABASE_URL points at a disposable database.
func TestPostgres_Integration(t *testing.T) {
	dbURL := os.Getenv("CLIPAPI_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("CLIPAPI_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	p, err := NewPostgres(ctx, dbURL)
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Ping(ctx))

	videoID := uuid.NewString()
	v := sampleVideo(videoID, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, p.InsertVideo(ctx, v))

	got, err := p.GetVideo(ctx, videoID)
	require.NoError(t, err)
	assert.Equal(t, v.StoredFilename, got.StoredFilename)

	segments := []model.CutSegment{{Start: 5, End: 7}, {Start: 0, End: 2}}
	resultID := uuid.NewString()
	require.NoError(t, p.InsertProcessed(ctx, &model.ProcessedVideo{
		ResultID:        resultID,
		OriginalVideoID: videoID,
		Operation:       model.OperationCut,
		OutputFilename:  videoID + "_cut.mp4",
		Parameters:      model.Parameters{Segments: segments},
		CreatedAt:       time.Now().UTC(),
	}))
	pv, err := p.GetProcessed(ctx, resultID)
	require.NoError(t, err)
	assert.Equal(t, segments, pv.Parameters.Segments)

	_, err = p.GetCaption(ctx, uuid.NewString())
	assert.True(t, errs.IsNotFound(err))

	list, err := p.ListVideos(ctx, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, list)
}
