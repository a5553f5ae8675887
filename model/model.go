// Package model holds the persisted records of the editing service.
package model

import "time"

// Operation names stored on processed-video records.
const (
	OperationTrim = "trim"
	OperationCut  = "cut"
)

// Video is created once on upload and never modified.
type Video struct {
	VideoID           string    `json:"video_id"`
	Filename          string    `json:"filename"`
	StoredFilename    string    `json:"stored_filename"`
	Duration          float64   `json:"duration"`
	Width             int       `json:"width"`
	Height            int       `json:"height"`
	FPS               float64   `json:"fps"`
	Codec             string    `json:"codec"`
	HasAudio          bool      `json:"has_audio"`
	FileSize          int64     `json:"file_size"`
	ThumbnailFilename string    `json:"thumbnail_filename"`
	UploadedAt        time.Time `json:"uploaded_at"`
}

// MediaInfo is what the media adapter reports about a file.
type MediaInfo struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Codec    string  `json:"codec"`
	HasAudio bool    `json:"has_audio"`
	FileSize int64   `json:"file_size"`
}

// CutSegment is a [Start, End) range in seconds of the source video.
type CutSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Parameters records the arguments of the operation that produced an output.
// Trim sets StartTime/EndTime, cut sets Segments.
type Parameters struct {
	StartTime *float64     `json:"start_time,omitempty"`
	EndTime   *float64     `json:"end_time,omitempty"`
	Segments  []CutSegment `json:"segments,omitempty"`
}

type ProcessedVideo struct {
	ResultID        string     `json:"result_id"`
	OriginalVideoID string     `json:"original_video_id"`
	Operation       string     `json:"operation"`
	OutputFilename  string     `json:"output_filename"`
	Parameters      Parameters `json:"parameters"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Segment is one timed piece of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the transcription adapter's output.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

type Caption struct {
	CaptionID   string    `json:"caption_id"`
	VideoID     string    `json:"video_id"`
	Text        string    `json:"text"`
	Language    string    `json:"language"`
	Segments    []Segment `json:"segments"`
	SRTFilename string    `json:"srt_filename"`
	VTTFilename string    `json:"vtt_filename"`
	CreatedAt   time.Time `json:"created_at"`
}
