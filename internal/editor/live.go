package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"code-assistant/internal/assistant"
	"code-assistant/internal/language"
	"code-assistant/internal/shared/telemetry"
)

const (
	// MinAnalyzableChars is the trimmed length code must exceed before it
	// is analyzed at all.
	MinAnalyzableChars = 10

	smallCodeChars  = 2000
	mediumCodeChars = 5000
)

// DelayFor returns the debounce delay for code of n characters: larger
// inputs wait longer.
func DelayFor(n int) time.Duration {
	switch {
	case n <= smallCodeChars:
		return 1500 * time.Millisecond
	case n <= mediumCodeChars:
		return 2 * time.Second
	default:
		return 3 * time.Second
	}
}

// Analyzer is the part of the assistant a live session needs.
type Analyzer interface {
	Analyze(ctx context.Context, code, language string) assistant.Result
}

// Update is one finished analysis. Generation numbers increase in start
// order; Stale is set when a later analysis had already started by the time
// this one finished.
type Update struct {
	Generation uint64
	Code       string
	Language   string
	Result     assistant.Result
	Started    time.Time
	Finished   time.Time
	Stale      bool
}

// Option configures a LiveSession.
type Option func(*LiveSession)

// WithDelays replaces DelayFor.
func WithDelays(fn func(n int) time.Duration) Option {
	return func(s *LiveSession) {
		if fn != nil {
			s.delayFor = fn
		}
	}
}

// WithListener receives every update as it completes.
func WithListener(fn func(Update)) Option {
	return func(s *LiveSession) { s.listener = fn }
}

// LiveSession turns a stream of edits into analyses. In-flight analyses are
// never cancelled: results are published in completion order and the last
// one to finish wins, even if it was started earlier.
type LiveSession struct {
	ctx      context.Context
	analyzer Analyzer
	language string
	delayFor func(n int) time.Duration
	listener func(Update)
	debounce *Debouncer

	mu        sync.Mutex
	started   uint64
	latest    Update
	hasLatest bool
	closed    bool
	inflight  sync.WaitGroup
}

// NewLiveSession analyzes with analyzer in language; an empty language is
// detected from each change.
func NewLiveSession(ctx context.Context, analyzer Analyzer, lang string, opts ...Option) *LiveSession {
	s := &LiveSession{
		ctx:      ctx,
		analyzer: analyzer,
		language: lang,
		delayFor: DelayFor,
		debounce: NewDebouncer(DelayFor(0)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Change records new editor content and reports whether an analysis was
// scheduled. Short content cancels nothing and schedules nothing.
func (s *LiveSession) Change(code string) bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed || len(strings.TrimSpace(code)) <= MinAnalyzableChars {
		return false
	}
	s.debounce.TriggerAfter(s.delayFor(len(code)), func() { s.start(code) })
	return true
}

// Flush starts the pending analysis of code immediately.
func (s *LiveSession) Flush(code string) {
	s.debounce.Stop()
	if len(strings.TrimSpace(code)) > MinAnalyzableChars {
		s.start(code)
	}
}

func (s *LiveSession) start(code string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.started++
	gen := s.started
	s.inflight.Add(1)
	s.mu.Unlock()

	lang := s.language
	if lang == "" {
		lang = language.Detect(code).Language
	}

	go func() {
		defer s.inflight.Done()
		u := Update{Generation: gen, Code: code, Language: lang, Started: time.Now()}
		u.Result = s.analyzer.Analyze(s.ctx, code, lang)
		u.Finished = time.Now()
		s.publish(u)
	}()
}

func (s *LiveSession) publish(u Update) {
	s.mu.Lock()
	u.Stale = u.Generation < s.started
	s.latest = u
	s.hasLatest = true
	listener := s.listener
	s.mu.Unlock()

	if u.Stale {
		telemetry.Info("editor.stale_result", map[string]any{
			"generation": u.Generation,
			"path":       string(u.Result.Path),
		})
	}
	if listener != nil {
		listener(u)
	}
}

// Latest returns the most recently completed update.
func (s *LiveSession) Latest() (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

// Close drops any pending analysis and waits for in-flight ones.
func (s *LiveSession) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.debounce.Stop()
	s.inflight.Wait()
}
