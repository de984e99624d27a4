package jobs

import (
	"path/filepath"
	"sync"
)

// Store owns the two job slices. It is the only writer surface: every
// mutation goes through a named transition method, and readers only see
// snapshots. The channel goroutine and the UI loop share one instance.
type Store struct {
	mu     sync.Mutex
	states [2]JobState
	notify func(Kind)
}

func NewStore() *Store { return &Store{} }

// OnChange registers a single observer invoked after every state change.
// The callback runs outside the store lock.
func (s *Store) OnChange(fn func(Kind)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Snapshot returns a copy of one slice; the Result pointer is deep-copied so
// readers can never alias store internals.
func (s *Store) Snapshot(kind Kind) JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[kind]
	if st.Result != nil {
		r := *st.Result
		st.Result = &r
	}
	return st
}

// Begin moves an idle-or-terminal job to requesting with progress and result
// reset. Returns false when a job of this kind is already active.
func (s *Store) Begin(kind Kind) bool {
	s.mu.Lock()
	if !s.states[kind].Phase.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.states[kind] = JobState{Phase: Requesting}
	s.changed(kind)
	return true
}

// MarkRunning records that the backend accepted the start command.
func (s *Store) MarkRunning(kind Kind, status string) {
	s.mu.Lock()
	s.states[kind].Phase = Running
	if status != "" {
		s.states[kind].Status = status
	}
	s.changed(kind)
}

// Revert returns a requesting job to idle, e.g. when the user refuses the
// directory prompt. Silent: status is cleared.
func (s *Store) Revert(kind Kind) {
	s.mu.Lock()
	if s.states[kind].Phase == Requesting {
		s.states[kind] = JobState{}
	}
	s.changed(kind)
}

// Fail moves a job to errored with a status line. Never leaves it stuck in
// requesting.
func (s *Store) Fail(kind Kind, status string) {
	s.mu.Lock()
	s.states[kind].Phase = Errored
	s.states[kind].Status = status
	s.changed(kind)
}

// Clear resets a slice to idle. This is the only way a job leaves done /
// cancelled / errored besides starting a new one.
func (s *Store) Clear(kind Kind) {
	s.mu.Lock()
	s.states[kind] = JobState{}
	s.changed(kind)
}

// ApplyDownloadFrame folds a download-class frame into the download slice.
// When it returns true the job entered finishing and the caller owns
// scheduling Complete after the settle delay.
func (s *Store) ApplyDownloadFrame(f Frame) (finishing bool) {
	s.mu.Lock()
	st := &s.states[Download]

	if f.Progress != nil {
		st.Progress = ClampProgress(*f.Progress)
	}
	if f.Status != "" {
		st.Status = f.Status
	}

	// A cancelled marker wins over everything else carried by the frame,
	// including a simultaneous progress value.
	if cancelled, _, _ := statusMarks(f.Status); cancelled {
		st.Phase = Cancelled
		st.Progress = 0
		st.Result = nil
		s.changed(Download)
		return false
	}

	switch {
	case f.QueueFinished:
		st.Progress = 100
		st.Phase = Finishing
		st.Result = &Result{Path: f.TargetDir}
		finishing = true
	case f.SavedPath != "":
		st.Phase = Finishing
		st.Result = &Result{Path: f.SavedPath, Filename: filepath.Base(f.SavedPath)}
		finishing = true
	default:
		if (f.Progress != nil || f.Status != "") && st.Phase != Finishing && st.Phase != Done {
			st.Phase = Running
		}
	}
	s.changed(Download)
	return finishing
}

// Complete reveals a finished job once the settle delay has elapsed. Only a
// finishing job completes; if a terminal frame arrived in the meantime the
// channel's verdict stands.
func (s *Store) Complete(kind Kind) {
	s.mu.Lock()
	if s.states[kind].Phase != Finishing {
		s.mu.Unlock()
		return
	}
	s.states[kind].Phase = Done
	s.states[kind].Progress = 100
	s.changed(kind)
}

// ApplyCompressionFrame folds a compressor-tagged frame into the compression
// slice. Results accumulate across frames.
func (s *Store) ApplyCompressionFrame(f Frame) {
	s.mu.Lock()
	st := &s.states[Compression]

	if f.Progress != nil {
		st.Progress = ClampProgress(*f.Progress)
	}
	if f.Status != "" {
		st.Status = f.Status
	}

	if r, present := f.result(); present {
		if st.Result == nil {
			st.Result = &Result{}
		}
		st.Result.merge(r)
	}

	cancelled, errored, complete := statusMarks(f.Status)
	switch {
	case cancelled:
		st.Phase = Cancelled
		st.Progress = 0
	case errored:
		st.Phase = Errored
	case complete:
		st.Phase = Done
	default:
		if (f.Progress != nil || f.Status != "") && st.Phase != Done {
			st.Phase = Running
		}
	}
	s.changed(Compression)
}

// changed must be called with the lock held; it releases it.
func (s *Store) changed(kind Kind) {
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn(kind)
	}
}
