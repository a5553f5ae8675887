package api

import (
	"clipapi/config"
	"clipapi/editor"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func SetupRouter(svc *editor.Service, cfg *config.Config, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(log), gin.Recovery())
	h := NewHandler(svc, cfg, log)

	api := r.Group("/api")

	// Open for load balancers and uptime checks.
	api.GET("/", h.handleRoot)
	api.GET("/health", h.handleHealth)

	authed := api.Group("")
	authed.Use(AuthMiddleware(cfg))
	{
		authed.POST("/video/upload", h.handleUpload)
		authed.GET("/video/:video_id/info", h.handleVideoInfo)
		authed.GET("/video/:video_id/stream", h.handleVideoStream)
		authed.GET("/video/:video_id/thumbnail", h.handleThumbnail)
		authed.GET("/videos", h.handleListVideos)

		// Editing operations run as jobs and answer 202 immediately.
		authed.POST("/video/trim", h.handleTrim)
		authed.POST("/video/cut", h.handleCut)
		authed.POST("/video/captions", h.handleCaptions)

		authed.GET("/jobs", h.handleListJobs)
		authed.GET("/job/:job_id", h.handleGetJob)
		authed.PATCH("/job/:job_id/cancel", h.handleCancelJob)
		authed.GET("/job/:job_id/watch", h.handleWatchJob)

		authed.GET("/video/download/:result_id", h.handleDownloadResult)
		authed.GET("/results/:result_id/download", h.handleDownloadResult)
		authed.GET("/captions/:caption_id/:format", h.handleDownloadCaptions)
	}
	return r
}
