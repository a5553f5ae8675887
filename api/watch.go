package api

import (
	"time"

	"clipapi/job"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// handleWatchJob streams job snapshots over a websocket whenever the job
// changes, and closes the connection once the job is terminal.
func (h *Handler) handleWatchJob(c *gin.Context) {
	id := c.Param("job_id")
	current, err := h.svc.Job(id)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).WithField("job_id", id).Warn("failed to upgrade to websocket")
		return
	}
	defer conn.Close()

	// Client messages are ignored; reading detects disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.watchInterval)
	defer ticker.Stop()

	var sent *job.Job
	for {
		if sent == nil || changed(*sent, current) {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(current); err != nil {
				return
			}
			snapshot := current
			sent = &snapshot
		}
		if current.Status.Terminal() {
			closeWatch(conn, websocket.CloseNormalClosure, "job finished")
			return
		}

		select {
		case <-gone:
			return
		case <-ticker.C:
		}

		current, err = h.svc.Job(id)
		if err != nil {
			closeWatch(conn, websocket.CloseGoingAway, "job no longer tracked")
			return
		}
	}
}

func changed(prev, next job.Job) bool {
	return prev.Status != next.Status || prev.Progress != next.Progress || prev.Message != next.Message
}

func closeWatch(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
