// Package watcher connects filesystem notifications to the normalizer. It
// filters out irrelevant and self-caused events, waits out a quiet period
// per path, and dispatches each stable file exactly once per burst.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/C-Radius/ni-watcher/internal/journal"
	"github.com/C-Radius/ni-watcher/internal/normalize"
)

// Options configures a Service.
type Options struct {
	// Folder is the directory to watch, non-recursive.
	Folder string
	// DebounceWindow is the quiet period after the last event for a path
	// before it is treated as stable.
	DebounceWindow time.Duration
	// SuppressWindow is how long a just-seen path stays in the
	// recently-processed set.
	SuppressWindow time.Duration
	// WatchWrites extends the accepted event kinds to plain writes.
	WatchWrites bool

	Normalizer *normalize.Normalizer
	Journal    journal.Backend
	Logger     zerolog.Logger
}

// Service owns the watch loop. Construct with NewService, then call Run.
type Service struct {
	folder     string
	filter     *Filter
	coalescer  *Coalescer
	normalizer *normalize.Normalizer
	journal    journal.Backend
	logger     zerolog.Logger
}

func NewService(opts Options) (*Service, error) {
	if opts.Normalizer == nil {
		return nil, errors.New("watcher: normalizer is required")
	}
	if opts.Folder == "" {
		return nil, errors.New("watcher: watch folder is required")
	}
	if opts.Journal == nil {
		opts.Journal = journal.NopBackend{}
	}
	s := &Service{
		folder:     opts.Folder,
		filter:     NewFilter(opts.SuppressWindow, opts.WatchWrites),
		normalizer: opts.Normalizer,
		journal:    opts.Journal,
		logger:     opts.Logger,
	}
	s.coalescer = NewCoalescer(opts.DebounceWindow, s.process, opts.Logger)
	return s, nil
}

// Run subscribes to the watch folder and handles events until ctx is
// cancelled. A failed subscription is the only fatal condition; per-file
// failures are logged and the loop keeps going. In-flight normalizations
// are not joined on shutdown.
func (s *Service) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(s.folder); err != nil {
		return fmt.Errorf("watch %s: %w", s.folder, err)
	}
	defer s.coalescer.Stop()

	s.logger.Info().Str("folder", s.folder).Msg("watching folder")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("stopping watch loop")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			s.handleEvent(event)
		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			s.logger.Error().Err(watchErr).Msg("watch error")
		}
	}
}

func (s *Service) handleEvent(event fsnotify.Event) {
	if !s.filter.RelevantOp(event.Op) {
		s.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("event kind dropped")
		return
	}
	if s.filter.ShouldIgnore(event.Name) {
		s.logger.Debug().Str("path", event.Name).Msg("path ignored")
		return
	}
	s.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("event accepted")
	s.coalescer.Observe(event.Name)
}

// process runs one normalization and records the outcome. Called by the
// coalescer on its own goroutine once the path's quiet period has elapsed.
func (s *Service) process(path string, lastObserved time.Time) {
	requestID := uuid.NewString()
	logger := s.logger.With().Str("request_id", requestID).Str("path", path).Logger()
	logger.Info().Time("last_event", lastObserved).Msg("file stable, normalizing")

	started := time.Now()
	result, err := s.normalizer.Normalize(context.Background(), path)
	duration := time.Since(started)

	// Publishing renames over the final name, which the watcher reports
	// as a fresh create. Re-arm suppression for both the source and, when
	// the extension changed, the output name.
	s.filter.Remember(path)
	if err == nil && result.Output != path {
		s.filter.Remember(result.Output)
	}

	entry := journal.Entry{
		ID:          requestID,
		Path:        path,
		Format:      string(s.normalizer.Format()),
		Outcome:     journal.OutcomeOK,
		Attempts:    result.Attempts,
		DurationMS:  duration.Milliseconds(),
		CompletedAt: time.Now().UTC(),
	}
	if err != nil {
		entry.Outcome = journal.OutcomeError
		entry.Error = err.Error()
		logger.Error().Err(err).Dur("duration", duration).Msg("normalization failed")
	} else {
		entry.Output = result.Output
		logger.Info().Str("output", result.Output).Dur("duration", duration).Msg("normalization complete")
	}
	if appendErr := s.journal.Append(entry); appendErr != nil {
		logger.Error().Err(appendErr).Msg("journal append failed")
	}
}
