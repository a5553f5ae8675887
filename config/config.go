// clipapi/config/config.go
package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Port       string `mapstructure:"PORT"`
	BaseURL    string `mapstructure:"BASE"`
	AuthEnable bool   `mapstructure:"AUTH_ENABLE"`
	AuthKey    string `mapstructure:"AUTH_KEY"`

	DataDir       string `mapstructure:"DATA_DIR"`
	MaxUploadSize int64  `mapstructure:"MAX_UPLOAD_SIZE"`
	ListLimit     int    `mapstructure:"LIST_LIMIT"`

	FFBin          string `mapstructure:"FF_BIN"`
	FFProbeBin     string `mapstructure:"FFPROBE_BIN"`
	FFEncodeArgs   string `mapstructure:"FF_ENCODE_ARGS"`
	ThumbnailWidth int    `mapstructure:"THUMBNAIL_WIDTH"`

	MaxConcurrency    int           `mapstructure:"MAX_CONCURRENCY"`
	QueueSize         int           `mapstructure:"QUEUE_SIZE"`
	JobTimeout        time.Duration `mapstructure:"JOB_TIMEOUT"`
	JobRetention      time.Duration `mapstructure:"JOB_RETENTION"`
	RetentionSchedule string        `mapstructure:"RETENTION_SCHEDULE"`

	ThrottleCPU      float64 `mapstructure:"THROTTLE_CPU"`
	ThrottleFreeMem  int64   `mapstructure:"THROTTLE_FREEMEM"`
	ThrottleFreeDisk int64   `mapstructure:"THROTTLE_FREEDISK"`

	WhisperBin      string `mapstructure:"WHISPER_BIN"`
	WhisperModel    string `mapstructure:"WHISPER_MODEL"`
	WhisperArgs     string `mapstructure:"WHISPER_ARGS"`
	KeepFailedAudio bool   `mapstructure:"KEEP_FAILED_AUDIO"`

	StoreDriver  string `mapstructure:"STORE_DRIVER"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	PostgrestURL string `mapstructure:"POSTGREST_URL"`
	PostgrestKey string `mapstructure:"POSTGREST_KEY"`

	S3Bucket string `mapstructure:"S3_BUCKET"`
	S3Region string `mapstructure:"S3_REGION"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// stringToDurationHookFunc parses Go duration strings such as "12m3s".
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return time.ParseDuration(data.(string))
	}
}

// stringToByteSizeHookFunc parses human-readable sizes such as "200MB" into int64 bytes.
func stringToByteSizeHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Int64 {
			return data, nil
		}

		var size datasize.ByteSize
		if err := size.UnmarshalText([]byte(data.(string))); err != nil {
			// Not a size string, let the default decoder try.
			return data, nil
		}
		return int64(size.Bytes()), nil
	}
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("PORT", "8080")
	vp.SetDefault("BASE", "")
	vp.SetDefault("AUTH_ENABLE", false)
	vp.SetDefault("AUTH_KEY", "")

	vp.SetDefault("DATA_DIR", "uploads")
	vp.SetDefault("MAX_UPLOAD_SIZE", "10GB")
	vp.SetDefault("LIST_LIMIT", 100)

	vp.SetDefault("FF_BIN", "ffmpeg")
	vp.SetDefault("FFPROBE_BIN", "ffprobe")
	vp.SetDefault("FF_ENCODE_ARGS", "-c:v libx264 -preset veryfast -c:a aac")
	vp.SetDefault("THUMBNAIL_WIDTH", 640)

	vp.SetDefault("MAX_CONCURRENCY", 2)
	vp.SetDefault("QUEUE_SIZE", 100)
	vp.SetDefault("JOB_TIMEOUT", "30m")
	vp.SetDefault("JOB_RETENTION", "1h")
	vp.SetDefault("RETENTION_SCHEDULE", "@every 5m")

	vp.SetDefault("THROTTLE_CPU", 0.0)
	vp.SetDefault("THROTTLE_FREEMEM", "200MB")
	vp.SetDefault("THROTTLE_FREEDISK", "500MB")

	vp.SetDefault("WHISPER_BIN", "whisper-cli")
	vp.SetDefault("WHISPER_MODEL", "models/ggml-base.bin")
	vp.SetDefault("WHISPER_ARGS", "")
	vp.SetDefault("KEEP_FAILED_AUDIO", false)

	vp.SetDefault("STORE_DRIVER", "memory")
	vp.SetDefault("DATABASE_URL", "")
	vp.SetDefault("POSTGREST_URL", "")
	vp.SetDefault("POSTGREST_KEY", "")

	vp.SetDefault("S3_BUCKET", "")
	vp.SetDefault("S3_REGION", "us-east-1")

	vp.SetDefault("LOG_LEVEL", "info")
	vp.SetDefault("LOG_FORMAT", "json")
}

// Load reads configuration from defaults, an optional clipapi_config.yaml,
// a .env file and CLIPAPI_* environment variables, in increasing priority.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	vp := viper.New()
	setDefaults(vp)

	vp.SetConfigName("clipapi_config")
	vp.SetConfigType("yaml")
	vp.AddConfigPath(".")
	vp.AddConfigPath("/etc/clipapi/")

	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	vp.SetEnvPrefix("CLIPAPI")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	var cfg Config
	// The first hook that matches the target type wins.
	err := vp.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			stringToDurationHookFunc(),
			stringToByteSizeHookFunc(),
		),
	))
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
