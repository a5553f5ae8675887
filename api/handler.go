package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clipapi/config"
	"clipapi/editor"
	"clipapi/job"
	"clipapi/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const serviceName = "clipapi"

type Handler struct {
	svc           *editor.Service
	cfg           *config.Config
	log           *logrus.Logger
	upgrader      websocket.Upgrader
	watchInterval time.Duration
}

func NewHandler(svc *editor.Service, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{
		svc: svc,
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		watchInterval: 500 * time.Millisecond,
	}
}

type TrimRequest struct {
	VideoID   string   `json:"video_id" binding:"required"`
	StartTime *float64 `json:"start_time" binding:"required"`
	EndTime   *float64 `json:"end_time" binding:"required"`
}

type SegmentRequest struct {
	Start *float64 `json:"start" binding:"required"`
	End   *float64 `json:"end" binding:"required"`
}

type CutRequest struct {
	VideoID  string           `json:"video_id" binding:"required"`
	Segments []SegmentRequest `json:"segments" binding:"required,dive"`
}

type CaptionsRequest struct {
	VideoID  string `json:"video_id" binding:"required"`
	Language string `json:"language"`
}

func (h *Handler) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to Clipix API",
		"version": "1.0.0",
		"status":  "running",
	})
}

func (h *Handler) handleHealth(c *gin.Context) {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := h.svc.Health(c.Request.Context()); err != nil {
		h.log.WithError(err).Error("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"service":   serviceName,
			"database":  "disconnected",
			"error":     fmt.Sprintf("Service unhealthy: %v", err),
			"timestamp": now,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"database":  "connected",
		"timestamp": now,
	})
}

func (h *Handler) handleUpload(c *gin.Context) {
	if limit := h.cfg.MaxUploadSize; limit > 0 {
		// Leave room for the multipart envelope around the file.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	res, err := h.svc.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) handleVideoInfo(c *gin.Context) {
	video, err := h.svc.VideoInfo(c.Request.Context(), c.Param("video_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *Handler) handleVideoStream(c *gin.Context) {
	f, err := h.svc.VideoStream(c.Request.Context(), c.Param("video_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	serveFile(c, f)
}

func (h *Handler) handleThumbnail(c *gin.Context) {
	f, err := h.svc.Thumbnail(c.Request.Context(), c.Param("video_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	serveFile(c, f)
}

func (h *Handler) handleListVideos(c *gin.Context) {
	videos, err := h.svc.ListVideos(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if videos == nil {
		videos = []model.Video{}
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos, "count": len(videos)})
}

func (h *Handler) handleTrim(c *gin.Context) {
	var req TrimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	j, err := h.svc.Trim(req.VideoID, *req.StartTime, *req.EndTime)
	h.accepted(c, j, err)
}

func (h *Handler) handleCut(c *gin.Context) {
	var req CutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	segments := make([]model.CutSegment, 0, len(req.Segments))
	for _, s := range req.Segments {
		segments = append(segments, model.CutSegment{Start: *s.Start, End: *s.End})
	}
	j, err := h.svc.Cut(req.VideoID, segments)
	h.accepted(c, j, err)
}

func (h *Handler) handleCaptions(c *gin.Context) {
	var req CaptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	j, err := h.svc.Captions(req.VideoID, strings.TrimSpace(req.Language))
	h.accepted(c, j, err)
}

// accepted answers a dispatch with 202 and the location to poll.
func (h *Handler) accepted(c *gin.Context, j job.Job, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", h.buildURL(c, "/api/job/"+j.ID))
	c.JSON(http.StatusAccepted, gin.H{"job_id": j.ID, "status": j.Status})
}

// buildURL makes path absolute against BASE, or against the request host
// when BASE is unset.
func (h *Handler) buildURL(c *gin.Context, path string) string {
	baseURL := h.cfg.BaseURL
	if baseURL == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, c.Request.Host)
	}
	return strings.TrimSuffix(baseURL, "/") + path
}

func (h *Handler) handleGetJob(c *gin.Context) {
	j, err := h.svc.Job(c.Param("job_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *Handler) handleListJobs(c *gin.Context) {
	jobs := h.svc.Jobs()
	if jobs == nil {
		jobs = []job.Job{}
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) handleCancelJob(c *gin.Context) {
	if err := h.svc.CancelJob(c.Param("job_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job cancellation requested"})
}

func (h *Handler) handleDownloadResult(c *gin.Context) {
	f, err := h.svc.Result(c.Request.Context(), c.Param("result_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	serveFile(c, f)
}

func (h *Handler) handleDownloadCaptions(c *gin.Context) {
	f, err := h.svc.CaptionFile(c.Request.Context(), c.Param("caption_id"), strings.ToLower(c.Param("format")))
	if err != nil {
		respondError(c, err)
		return
	}
	serveFile(c, f)
}

// serveFile sends f inline, or as an attachment when it carries a name.
func serveFile(c *gin.Context, f *editor.File) {
	if f.ContentType != "" {
		c.Header("Content-Type", f.ContentType)
	}
	if f.Name != "" {
		c.FileAttachment(f.Path, f.Name)
		return
	}
	c.File(f.Path)
}
