package tui

import (
	"time"

	"github.com/sadopc/planr/internal/store"
)

// session is one open time entry. Pauses are local to the UI: the stored
// entry keeps running and is closed with its wall-clock duration.
type session struct {
	entryID int64
	taskID  int64
	subject string

	began    time.Time
	held     time.Duration // finished pauses
	heldFrom time.Time     // start of the current pause, zero when running
}

// timerModel is the stopwatch behind the Timer view.
type timerModel struct {
	store *store.Store
	now   func() time.Time

	cur *session // nil when stopped

	lastInput  time.Time
	idleAfter  time.Duration
	idlePaused bool
}

func newTimerModel(s *store.Store) timerModel {
	return timerModel{
		store:     s,
		now:       time.Now,
		lastInput: time.Now(),
		idleAfter: 5 * time.Minute,
	}
}

func (t timerModel) running() bool { return t.cur != nil }
func (t timerModel) paused() bool  { return t.cur != nil && !t.cur.heldFrom.IsZero() }
func (t timerModel) idle() bool    { return t.idlePaused }

func (t timerModel) taskID() int64 {
	if t.cur == nil {
		return 0
	}
	return t.cur.taskID
}

func (t timerModel) subject() string {
	if t.cur == nil {
		return ""
	}
	return t.cur.subject
}

func (t timerModel) entryID() int64 {
	if t.cur == nil {
		return 0
	}
	return t.cur.entryID
}

// adopt continues an entry left open by an earlier run.
func (t *timerModel) adopt(e *store.TimeEntry, subject string) {
	t.cur = &session{entryID: e.ID, taskID: e.TaskID, subject: subject, began: e.StartTime}
	t.lastInput = t.now()
	t.idlePaused = false
}

func (t *timerModel) start(taskID int64, subject string) error {
	e, err := t.store.StartEntry(taskID)
	if err != nil {
		return err
	}
	t.cur = &session{entryID: e.ID, taskID: taskID, subject: subject, began: t.now()}
	t.lastInput = t.now()
	t.idlePaused = false
	return nil
}

// stop closes the open entry and returns it, or nil when nothing runs.
func (t *timerModel) stop() (*store.TimeEntry, error) {
	if t.cur == nil {
		return nil, nil
	}
	e, err := t.store.StopEntry(t.cur.entryID)
	if err != nil {
		return nil, err
	}
	t.cur = nil
	t.idlePaused = false
	return e, nil
}

func (t *timerModel) pause() {
	if t.cur == nil || !t.cur.heldFrom.IsZero() {
		return
	}
	t.cur.heldFrom = t.now()
}

func (t *timerModel) resume() {
	if !t.paused() {
		return
	}
	t.cur.held += t.now().Sub(t.cur.heldFrom)
	t.cur.heldFrom = time.Time{}
	t.idlePaused = false
	t.lastInput = t.now()
}

func (t *timerModel) toggle() {
	if t.paused() {
		t.resume()
	} else {
		t.pause()
	}
}

// tick pauses a running timer once input has been quiet for idleAfter.
func (t *timerModel) tick() {
	if t.cur == nil || t.paused() {
		return
	}
	if t.now().Sub(t.lastInput) > t.idleAfter {
		t.pause()
		t.idlePaused = true
	}
}

// recordActivity notes user input and wakes an idle-paused timer. A pause
// the user asked for stays.
func (t *timerModel) recordActivity() {
	t.lastInput = t.now()
	if t.idlePaused {
		t.resume()
	}
}

func (t timerModel) currentElapsed() time.Duration {
	if t.cur == nil {
		return 0
	}
	end := t.now()
	if t.paused() {
		end = t.cur.heldFrom
	}
	return end.Sub(t.cur.began) - t.cur.held
}
