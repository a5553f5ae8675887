// clipapi/main.go
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"clipapi/api"
	"clipapi/blob"
	"clipapi/config"
	"clipapi/editor"
	"clipapi/ffmpeg"
	"clipapi/job"
	"clipapi/store"
	"clipapi/transcribe"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := config.NewLogger(cfg)
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create a context that is canceled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize storage
	blobs, err := blob.NewLocal(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to prepare data directory: %v", err)
	}
	mirror, err := blob.NewMirror(ctx, cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		log.Fatalf("Failed to initialize S3 mirror: %v", err)
	}
	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to open metadata store: %v", err)
	}
	defer st.Close()

	// 3. Initialize the media and transcription adapters
	media, err := ffmpeg.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize ffmpeg toolchain: %v", err)
	}
	whisper, err := transcribe.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize transcriber: %v", err)
	}

	// 4. Initialize the job manager and the editor
	jobs := job.NewManager(cfg, job.NewRegistry(), log)
	svc := editor.New(editor.Deps{
		Config:      cfg,
		Store:       st,
		Blobs:       blobs,
		Mirror:      mirror,
		Media:       media,
		Transcriber: whisper,
		Jobs:        jobs,
		Log:         log,
	})

	sweeper := job.NewSweeper(cfg.RetentionSchedule, log)
	if err := svc.RegisterSweeps(sweeper); err != nil {
		log.Fatalf("Failed to schedule retention sweeps: %v", err)
	}

	// 5. Set up router and server
	router := api.SetupRouter(svc, cfg, log)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// 6. Start background services and HTTP server
	jobs.Start(ctx)
	sweeper.Start()

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s", err)
		}
	}()

	// 7. Wait for interrupt signal for graceful shutdown
	<-ctx.Done()

	// Restore default behavior on the interrupt signal and notify user of shutdown.
	stop()
	log.Info("Shutting down gracefully, press Ctrl+C again to force")

	// The server has 5 seconds to finish the requests it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	<-sweeper.Stop().Done()
	// Running jobs see the canceled context; queued ones are failed.
	jobs.Wait()

	log.Info("Server exiting")
}
