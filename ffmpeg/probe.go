package ffmpeg

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"clipapi/errs"
	"clipapi/model"
)

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// Probe reports duration, geometry, frame rate, codec and audio presence.
func (t *Toolchain) Probe(ctx context.Context, path string) (*model.MediaInfo, error) {
	res, err := t.runner.Run(ctx, t.ffprobeBin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, errs.Adapter("ffprobe failed", err)
	}
	return parseProbe([]byte(res.Stdout))
}

func parseProbe(data []byte) (*model.MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errs.Adapter("could not parse ffprobe output", err)
	}

	info := &model.MediaInfo{}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	info.FileSize, _ = strconv.ParseInt(out.Format.Size, 10, 64)

	foundVideo := false
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Width = s.Width
			info.Height = s.Height
			info.Codec = s.CodecName
			info.FPS = parseRate(s.AvgFrameRate)
			if info.FPS == 0 {
				info.FPS = parseRate(s.RFrameRate)
			}
			if info.Duration == 0 {
				info.Duration, _ = strconv.ParseFloat(s.Duration, 64)
			}
		case "audio":
			info.HasAudio = true
		}
	}

	if !foundVideo {
		return nil, errs.Adapter("no video stream found", nil)
	}
	return info, nil
}

// parseRate turns "30000/1001" or "25" into frames per second.
func parseRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
