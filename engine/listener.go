package engine

import (
	"time"

	"github.com/camden-git/yearbooksync/realtime"
)

// listen consumes the album's change topic until the subscription is closed.
// Events are hints, not diffs: they may arrive duplicated or out of order,
// and nothing beyond table and row id is ever interpreted. Each table kind
// (re)arms a debounce timer; a burst of events collapses into the single
// fetch that runs when the timer fires with no further events.
//
// Class-structure events additionally pass through the self-suppression
// window: if every row in the burst was mutated locally moments ago, the
// optimistic state is assumed correct and the fetch is skipped. Access,
// request and membership events always reconcile; their truth depends on
// other users' actions and cannot be predicted locally.
func (s *Session) listen() {
	defer close(s.done)

	classTimer := newStoppedTimer()
	accessTimer := newStoppedTimer()
	membersTimer := newStoppedTimer()
	defer classTimer.Stop()
	defer accessTimer.Stop()
	defer membersTimer.Stop()

	pendingClassRows := make(map[string]bool)
	sawUnknownClassRow := false

	for {
		select {
		case ev, ok := <-s.sub.Events():
			if !ok {
				return
			}
			switch ev.Table {
			case realtime.TableClasses:
				if ev.RowID == "" {
					sawUnknownClassRow = true
				} else {
					pendingClassRows[ev.RowID] = true
				}
				resetTimer(classTimer, s.cfg.Debounce)
			case realtime.TableAccesses:
				// membership changed: both the roster and the user's own
				// access view may be affected
				resetTimer(accessTimer, s.cfg.Debounce)
				resetTimer(membersTimer, s.cfg.Debounce)
			case realtime.TableRequests:
				resetTimer(accessTimer, s.cfg.Debounce)
			}
		case <-classTimer.C:
			rows := pendingClassRows
			unknown := sawUnknownClassRow
			pendingClassRows = make(map[string]bool)
			sawUnknownClassRow = false
			if !s.classFetchSuppressed(rows, unknown) {
				s.FetchClasses()
			}
		case <-accessTimer.C:
			s.FetchAccessAndRequests()
		case <-membersTimer.C:
			s.FetchMembers()
		}
	}
}

// classFetchSuppressed decides whether a debounced class fetch would only
// stomp fresh optimistic writes. When the burst identifies its rows, every
// one of them must have been mutated locally inside the window; when any row
// is unidentified, the most recent local class mutation decides.
func (s *Session) classFetchSuppressed(rows map[string]bool, sawUnknown bool) bool {
	now := time.Now()
	window := s.cfg.SuppressWindow

	s.mu.Lock()
	defer s.mu.Unlock()

	if sawUnknown || len(rows) == 0 {
		var latest time.Time
		for _, t := range s.lastClassMutation {
			if t.After(latest) {
				latest = t
			}
		}
		return !latest.IsZero() && now.Sub(latest) < window
	}
	for id := range rows {
		t, ok := s.lastClassMutation[id]
		if !ok || now.Sub(t) >= window {
			return false
		}
	}
	return true
}

// newStoppedTimer returns a timer that is armed only by resetTimer.
func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return t
}

// resetTimer re-arms a timer, draining a stale fire first so the old
// deadline never races the new one.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
