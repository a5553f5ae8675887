package ffmpeg

import (
	"context"
	"testing"

	"clipapi/errs"
	"clipapi/proc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProbe = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
     "avg_frame_rate": "30000/1001", "r_frame_rate": "30/1", "duration": "12.000"},
    {"codec_type": "audio", "codec_name": "aac"}
  ],
  "format": {"duration": "12.345000", "size": "1048576"}
}`

func TestProbe(t *testing.T) {
	runner := &fakeRunner{run: func(name string, args []string) (proc.Result, error) {
		return proc.Result{Stdout: sampleProbe}, nil
	}}
	tc := newTestToolchain(t, runner)

	info, err := tc.Probe(context.Background(), "in.mp4")
	require.NoError(t, err)
	assert.Equal(t, "ffprobe", runner.calls[0][0])
	assert.Equal(t, "in.mp4", runner.calls[0][len(runner.calls[0])-1])

	assert.InDelta(t, 12.345, info.Duration, 1e-9)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.InDelta(t, 29.97, info.FPS, 0.01)
	assert.Equal(t, "h264", info.Codec)
	assert.True(t, info.HasAudio)
	assert.Equal(t, int64(1048576), info.FileSize)
}

func TestParseProbe_SilentVideo(t *testing.T) {
	info, err := parseProbe([]byte(`{"streams":[{"codec_type":"video","codec_name":"vp9","width":640,"height":360,"avg_frame_rate":"0/0","r_frame_rate":"25/1","duration":"3.5"}],"format":{}}`))
	require.NoError(t, err)
	assert.False(t, info.HasAudio)
	assert.Equal(t, 25.0, info.FPS)
	assert.Equal(t, 3.5, info.Duration)
}

func TestParseProbe_Errors(t *testing.T) {
	_, err := parseProbe([]byte(`not json`))
	assert.Equal(t, errs.KindAdapter, errs.KindOf(err))

	_, err = parseProbe([]byte(`{"streams":[{"codec_type":"audio"}],"format":{"duration":"1"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no video stream")
}

func TestParseRate(t *testing.T) {
	assert.Equal(t, 25.0, parseRate("25"))
	assert.Equal(t, 30.0, parseRate("30/1"))
	assert.Equal(t, 0.0, parseRate("0/0"))
	assert.Equal(t, 0.0, parseRate(""))
}
