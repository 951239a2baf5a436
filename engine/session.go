package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/camden-git/yearbooksync/realtime"
)

const (
	DefaultDebounce       = time.Second
	DefaultSuppressWindow = 3 * time.Second
)

// Config carries the per-session parameters of the sync engine.
type Config struct {
	AlbumID uint
	UserID  uint
	IsAdmin bool // admin sessions additionally track the pending request queue

	// Debounce is the quiescence window that coalesces a burst of change
	// notifications into one reconciliation fetch.
	Debounce time.Duration
	// SuppressWindow is how long after a local class-structure mutation
	// externally-triggered class fetches are skipped. A heuristic, not a
	// guarantee; see the listener.
	SuppressWindow time.Duration

	// OnChange is invoked with a fresh snapshot after every cache change.
	// It is called outside the session's lock and may call back into the
	// session.
	OnChange func(Snapshot)
	// OnNotice is invoked with asynchronously surfaced failures.
	OnNotice func(error)
}

// Snapshot is an immutable copy of the session's cache handed to OnChange.
// Seq increases with every cache change; consumers comparing two snapshots
// can tell which one is fresher.
type Snapshot struct {
	Seq            uint64                   `json:"seq"`
	Classes        []Class                  `json:"classes"`
	AccessByClass  map[string]*Access       `json:"access_by_class"`
	RequestByClass map[string]*JoinRequest  `json:"request_by_class"`
	PendingByClass map[string][]JoinRequest `json:"pending_by_class"`
	MembersByClass map[string][]Member      `json:"members_by_class"`
	SelectedClass  int                      `json:"selected_class"`
}

// Session owns one browser session's local cache of an album and keeps it
// consistent across local optimistic mutations, store confirmations, and
// change notifications from other sessions. All cache access is serialized
// on the session's mutex; there is no other writer.
type Session struct {
	cfg   Config
	store Store
	hub   *realtime.Hub
	views ViewStore // may be nil

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	cache    *albumCache
	selected int
	open     bool
	seq      uint64 // sequence of the latest snapshot, guarded by mu

	emitted atomic.Uint64 // sequence of the latest snapshot handed to OnChange

	classFetchInFlight   atomic.Bool
	accessFetchInFlight  atomic.Bool
	membersFetchInFlight atomic.Bool

	// lastClassMutation holds the monotonic "last local mutation" timestamp
	// per class id; the listener reads it to suppress stale refetches.
	lastClassMutation  map[string]time.Time
	lastRosterMutation time.Time

	sub  *realtime.Subscriber
	done chan struct{}
}

func NewSession(store Store, hub *realtime.Hub, views ViewStore, cfg Config) *Session {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.SuppressWindow <= 0 {
		cfg.SuppressWindow = DefaultSuppressWindow
	}
	return &Session{
		cfg:               cfg,
		store:             store,
		hub:               hub,
		views:             views,
		cache:             newAlbumCache(),
		lastClassMutation: make(map[string]time.Time),
	}
}

// Open subscribes to the album's change topic, restores the persisted view
// state and seeds the cache by scheduling all reconciliation fetchers once.
// The cache may stay empty until the seed fetches return; there is no
// partial bootstrap.
func (s *Session) Open() error {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return nil
	}
	s.open = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	if s.views != nil {
		if idx, err := s.views.GetSelectedClass(s.cfg.UserID, s.cfg.AlbumID); err == nil {
			s.selected = idx // re-clamped once the class list arrives
		}
	}
	s.mu.Unlock()

	s.sub = s.hub.Subscribe(s.cfg.AlbumID)
	s.done = make(chan struct{})
	go s.listen()

	s.FetchClasses()
	s.FetchAccessAndRequests()
	s.FetchMembers()
	return nil
}

// Close tears the session down: unsubscribes from the hub, cancels in-flight
// store calls and waits for the listener to drain. Safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.open = false
	s.mu.Unlock()

	s.cancel()
	s.hub.Unsubscribe(s.sub)
	<-s.done
}

// SelectClass moves the "currently selected class" pointer, clamped into the
// valid range, and persists it best-effort.
func (s *Session) SelectClass(idx int) {
	s.mu.Lock()
	s.selected = idx
	s.clampSelectionLocked()
	idx = s.selected
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.views != nil {
		go s.views.SaveSelectedClass(s.cfg.UserID, s.cfg.AlbumID, idx) //nolint:errcheck // convenience cache
	}
	s.emit(snap)
}

// SelectedClass returns the current selected class index.
func (s *Session) SelectedClass() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Snapshot returns a copy of the current cache state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	c := s.cache.clone()
	s.seq++
	return Snapshot{
		Seq:            s.seq,
		Classes:        c.Classes,
		AccessByClass:  c.AccessByClass,
		RequestByClass: c.RequestByClass,
		PendingByClass: c.PendingByClass,
		MembersByClass: c.MembersByClass,
		SelectedClass:  s.selected,
	}
}

// clampSelectionLocked keeps the selected index inside [0, N-1], or 0 when
// the album has no classes, so a stale index is never dereferenced.
func (s *Session) clampSelectionLocked() {
	if len(s.cache.Classes) == 0 {
		s.selected = 0
		return
	}
	if s.selected < 0 {
		s.selected = 0
	}
	if s.selected > len(s.cache.Classes)-1 {
		s.selected = len(s.cache.Classes) - 1
	}
}

func (s *Session) markClassMutationLocked(classID string) {
	s.lastClassMutation[classID] = time.Now()
}

func (s *Session) markRosterMutationLocked() {
	s.lastRosterMutation = time.Now()
}

// emit hands a snapshot to OnChange unless a fresher one was already
// delivered. Snapshots are produced under the mutex but delivered outside
// it, so an older snapshot can reach emit after a newer one; the sequence
// check drops it. A dropped snapshot is always superseded.
func (s *Session) emit(snap Snapshot) {
	if s.cfg.OnChange == nil {
		return
	}
	for {
		last := s.emitted.Load()
		if snap.Seq <= last {
			return
		}
		if s.emitted.CompareAndSwap(last, snap.Seq) {
			break
		}
	}
	s.cfg.OnChange(snap)
}

func (s *Session) notify(err error) {
	if s.cfg.OnNotice != nil {
		s.cfg.OnNotice(err)
	}
}
