// Package editor implements the video editing operations: upload, the
// asynchronous trim, cut and caption jobs, and lookups for downloads.
package editor

import (
	"context"
	"os"
	"time"

	"clipapi/blob"
	"clipapi/config"
	"clipapi/job"
	"clipapi/model"
	"clipapi/store"

	"github.com/sirupsen/logrus"
)

// Media is the ffmpeg side of the editor.
type Media interface {
	Probe(ctx context.Context, path string) (*model.MediaInfo, error)
	Thumbnail(ctx context.Context, input, output string, at float64) error
	Trim(ctx context.Context, input, output string, start, end float64) error
	Cut(ctx context.Context, input, output string, segments []model.CutSegment) error
	ExtractAudio(ctx context.Context, input, output string) error
}

// Transcriber turns a 16 kHz mono WAV into timed text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (*model.Transcript, error)
}

type Deps struct {
	Config      *config.Config
	Store       store.Store
	Blobs       *blob.Local
	Mirror      blob.Mirror
	Media       Media
	Transcriber Transcriber
	Jobs        *job.Manager
	Log         *logrus.Logger
}

type Service struct {
	cfg         *config.Config
	store       store.Store
	blobs       *blob.Local
	mirror      blob.Mirror
	media       Media
	transcriber Transcriber
	jobs        *job.Manager
	log         *logrus.Logger
	now         func() time.Time
	writeFile   func(name string, data []byte, perm os.FileMode) error
}

func New(d Deps) *Service {
	mirror := d.Mirror
	if mirror == nil {
		mirror = blob.NopMirror{}
	}
	return &Service{
		cfg:         d.Config,
		store:       d.Store,
		blobs:       d.Blobs,
		mirror:      mirror,
		media:       d.Media,
		transcriber: d.Transcriber,
		jobs:        d.Jobs,
		log:         d.Log,
		now:         func() time.Time { return time.Now().UTC() },
		writeFile:   os.WriteFile,
	}
}

// Job returns a snapshot of a tracked job.
func (s *Service) Job(id string) (job.Job, error) {
	return s.jobs.Get(id)
}

// Jobs returns every tracked job, newest first.
func (s *Service) Jobs() []job.Job {
	return s.jobs.List()
}

func (s *Service) CancelJob(id string) error {
	return s.jobs.Cancel(id)
}

// Health reports whether the metadata store answers.
func (s *Service) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.store.Ping(ctx)
}

// mirrorFiles copies artifacts to the configured mirror. Failures are logged
// and never fail the job.
func (s *Service) mirrorFiles(ctx context.Context, log logrus.FieldLogger, names ...string) {
	for _, name := range names {
		if err := s.mirror.Mirror(ctx, s.blobs.Path(name)); err != nil {
			log.WithError(err).WithField("file", name).Warn("could not mirror artifact")
		}
	}
}

// RegisterSweeps schedules eviction of old finished jobs and of leftover
// intermediate audio.
func (s *Service) RegisterSweeps(sw *job.Sweeper) error {
	retention := s.cfg.JobRetention
	if retention <= 0 {
		retention = time.Hour
	}
	err := sw.Add("jobs", func() (int, error) {
		return s.jobs.Registry().Sweep(time.Now().Add(-retention)), nil
	})
	if err != nil {
		return err
	}
	return sw.Add("audio", func() (int, error) {
		return s.blobs.PurgeStale(audioPattern, retention)
	})
}
