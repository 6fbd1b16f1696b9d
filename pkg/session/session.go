// Package session binds a composer state to an evaluator and a history store.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antibyte/retrocalc/pkg/composer"
	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/antibyte/retrocalc/pkg/history"
	"github.com/antibyte/retrocalc/pkg/logger"
)

// ErrNotReusable is returned when a failed evaluation's result is reused.
var ErrNotReusable = errors.New("history record has no result to reuse")

// View is what a front-end renders.
type View struct {
	Display  string          `json:"display"`
	Previous string          `json:"previous"`
	Marker   composer.Marker `json:"marker"`
}

// Session is one calculator: composer state, evaluator and history.
type Session struct {
	ID    string
	Owner string

	mu        sync.Mutex
	state     composer.State
	evaluator composer.Evaluator
	store     history.Store
	errorText string

	createdAt    time.Time
	lastActivity int64 // UnixNano, atomic
}

// New creates a session. ev and store must not be nil.
func New(id, owner string, ev composer.Evaluator, store history.Store) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Owner:        owner,
		evaluator:    ev,
		store:        store,
		errorText:    configuration.GetString("Calculator", "error_text", composer.ErrorText),
		createdAt:    now,
		lastActivity: now.UnixNano(),
	}
}

func (s *Session) touch() {
	atomic.StoreInt64(&s.lastActivity, time.Now().UnixNano())
}

// LastActivity returns the time of the last call that changed or read state.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, atomic.LoadInt64(&s.lastActivity))
}

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) viewLocked() View {
	v := View{
		Display:  s.state.Display(),
		Previous: s.state.Previous,
		Marker:   s.state.Marker,
	}
	if s.state.Marker == composer.ErrorDisplayed {
		v.Display = s.errorText
	}
	return v
}

// View returns the current view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// State returns the raw composer state.
func (s *Session) State() composer.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Do applies a. Every evaluation attempt is recorded in the history, failed
// ones with the error text as result. A history error is returned after the
// state change has been applied.
func (s *Session) Do(ctx context.Context, a composer.Action) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	next, outcome := composer.Apply(s.state, a, s.evaluator)
	s.state = next
	view := s.viewLocked()

	if outcome == nil {
		return view, nil
	}

	result := outcome.Result
	if outcome.Failed() {
		result = s.errorText
		logger.Debug(logger.AreaComposer, "session %s: %q failed: %v", s.ID, outcome.Expression, outcome.Err)
	}

	if err := s.store.Append(ctx, history.NewRecord(outcome.Expression, result)); err != nil {
		logger.HistoryWarn("session %s: could not record %q: %v", s.ID, outcome.Expression, err)
		return view, err
	}
	return view, nil
}

// ReuseExpression puts the expression of record id back into the buffer.
func (s *Session) ReuseExpression(ctx context.Context, id string) (View, error) {
	return s.reuse(ctx, id, false)
}

// ReuseResult puts the result of record id into the buffer as a result.
func (s *Session) ReuseResult(ctx context.Context, id string) (View, error) {
	return s.reuse(ctx, id, true)
}

func (s *Session) reuse(ctx context.Context, id string, asResult bool) (View, error) {
	record, err := history.Lookup(ctx, s.store, id)
	if err != nil {
		return s.View(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	text := record.Expression
	if asResult {
		if record.Result == s.errorText || record.Result == composer.ErrorText {
			return s.viewLocked(), ErrNotReusable
		}
		text = record.Result
	}
	s.state = composer.SeedFromHistory(text, asResult)
	return s.viewLocked(), nil
}

// History lists the session's records, most recent first.
func (s *Session) History(ctx context.Context) ([]history.Record, error) {
	s.touch()
	return s.store.List(ctx)
}

// ClearHistory removes all records. The composer state is unchanged.
func (s *Session) ClearHistory(ctx context.Context) error {
	s.touch()
	return s.store.Clear(ctx)
}
