// clipapi/config/config_test.go
package config_test

import (
	"testing"
	"time"

	"clipapi/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("loads default values correctly", func(t *testing.T) {
		t.Setenv("CLIPAPI_PORT", "")
		t.Setenv("CLIPAPI_MAX_CONCURRENCY", "")
		t.Setenv("CLIPAPI_JOB_TIMEOUT", "")
		t.Setenv("CLIPAPI_MAX_UPLOAD_SIZE", "")
		t.Setenv("CLIPAPI_STORE_DRIVER", "")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 2, cfg.MaxConcurrency)
		assert.Equal(t, 100, cfg.QueueSize)
		assert.Equal(t, "ffmpeg", cfg.FFBin)
		assert.Equal(t, "ffprobe", cfg.FFProbeBin)
		assert.Equal(t, 30*time.Minute, cfg.JobTimeout)
		assert.Equal(t, time.Hour, cfg.JobRetention)
		assert.Equal(t, int64(10*1024*1024*1024), cfg.MaxUploadSize)
		assert.Equal(t, int64(200*1024*1024), cfg.ThrottleFreeMem)
		assert.Equal(t, "memory", cfg.StoreDriver)
		assert.False(t, cfg.KeepFailedAudio)
		assert.Equal(t, "@every 5m", cfg.RetentionSchedule)
	})

	t.Run("overrides defaults with environment variables", func(t *testing.T) {
		t.Setenv("CLIPAPI_PORT", "9999")
		t.Setenv("CLIPAPI_MAX_CONCURRENCY", "8")
		t.Setenv("CLIPAPI_JOB_TIMEOUT", "90s")
		t.Setenv("CLIPAPI_MAX_UPLOAD_SIZE", "50MB")
		t.Setenv("CLIPAPI_KEEP_FAILED_AUDIO", "true")
		t.Setenv("CLIPAPI_STORE_DRIVER", "postgres")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, 8, cfg.MaxConcurrency)
		assert.Equal(t, 90*time.Second, cfg.JobTimeout)
		assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadSize)
		assert.True(t, cfg.KeepFailedAudio)
		assert.Equal(t, "postgres", cfg.StoreDriver)
	})
}

func TestNewLogger(t *testing.T) {
	log := config.NewLogger(&config.Config{LogLevel: "debug", LogFormat: "text"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	log = config.NewLogger(&config.Config{LogLevel: "bogus"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}
