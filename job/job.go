package job

import (
	"time"
)

type Kind string

const (
	KindTrim    Kind = "trim"
	KindCut     Kind = "cut"
	KindCaption Kind = "caption"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a snapshot of one tracked operation. Result is set only when
// Status is completed and Error only when Status is failed.
type Job struct {
	ID         string     `json:"job_id"`
	Kind       Kind       `json:"kind"`
	Status     Status     `json:"status"`
	Progress   float64    `json:"progress"`
	Message    string     `json:"message"`
	Result     any        `json:"result"`
	Error      *string    `json:"error"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

var queuedMessages = map[Kind]string{
	KindTrim:    "Trim job queued",
	KindCut:     "Cut job queued",
	KindCaption: "Caption generation queued",
}

var completedMessages = map[Kind]string{
	KindTrim:    "Trim completed",
	KindCut:     "Cut completed",
	KindCaption: "Captions generated successfully",
}

func queuedMessage(k Kind) string {
	if msg, ok := queuedMessages[k]; ok {
		return msg
	}
	return "Job queued"
}

func completedMessage(k Kind) string {
	if msg, ok := completedMessages[k]; ok {
		return msg
	}
	return "Job completed"
}
