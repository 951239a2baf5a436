package engine

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/camden-git/yearbooksync/realtime"
)

// fakeStore is an in-memory Store with per-method error injection and call
// counting. All state is guarded by one mutex; methods return copies.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int
	classes  []Class
	access   map[string]*Access
	requests map[string]*JoinRequest
	pending  []JoinRequest
	members  []Member

	fail  map[string]error
	calls map[string]int
	gate  chan struct{} // when set, ListClasses blocks until it is closed
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   100,
		access:   map[string]*Access{},
		requests: map[string]*JoinRequest{},
		fail:     map[string]error{},
		calls:    map[string]int{},
	}
}

func (fs *fakeStore) enter(method string) error {
	fs.mu.Lock()
	fs.calls[method]++
	err := fs.fail[method]
	gate := fs.gate
	fs.mu.Unlock()
	if gate != nil && method == "ListClasses" {
		<-gate
	}
	return err
}

func (fs *fakeStore) callCount(method string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.calls[method]
}

func (fs *fakeStore) classCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.classes)
}

func (fs *fakeStore) assignID() string {
	fs.nextID++
	return strconv.Itoa(fs.nextID)
}

func (fs *fakeStore) ListClasses(ctx context.Context, albumID uint) ([]Class, error) {
	if err := fs.enter("ListClasses"); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]Class(nil), fs.classes...), nil
}

func (fs *fakeStore) CreateClass(ctx context.Context, albumID uint, name string) (Class, error) {
	if err := fs.enter("CreateClass"); err != nil {
		return Class{}, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	cls := Class{ID: fs.assignID(), Name: name, SortOrder: len(fs.classes)}
	fs.classes = append(fs.classes, cls)
	return cls, nil
}

func (fs *fakeStore) UpdateClass(ctx context.Context, classID string, patch ClassPatch) (Class, error) {
	if err := fs.enter("UpdateClass"); err != nil {
		return Class{}, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := range fs.classes {
		if fs.classes[i].ID == classID {
			if patch.Name != nil {
				fs.classes[i].Name = *patch.Name
			}
			if patch.SortOrder != nil {
				fs.classes[i].SortOrder = *patch.SortOrder
			}
			return fs.classes[i], nil
		}
	}
	return Class{}, errors.New("no such class")
}

func (fs *fakeStore) DeleteClass(ctx context.Context, classID string) error {
	if err := fs.enter("DeleteClass"); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := range fs.classes {
		if fs.classes[i].ID == classID {
			fs.classes = append(fs.classes[:i], fs.classes[i+1:]...)
			return nil
		}
	}
	return errors.New("no such class")
}

func (fs *fakeStore) GetMyAccessAndRequests(ctx context.Context, albumID, userID uint) (map[string]*Access, map[string]*JoinRequest, error) {
	if err := fs.enter("GetMyAccessAndRequests"); err != nil {
		return nil, nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	access := make(map[string]*Access)
	requests := make(map[string]*JoinRequest)
	for _, cls := range fs.classes {
		access[cls.ID] = nil
		requests[cls.ID] = nil
	}
	for k, v := range fs.access {
		access[k] = v
	}
	for k, v := range fs.requests {
		requests[k] = v
	}
	return access, requests, nil
}

func (fs *fakeStore) ListPendingRequests(ctx context.Context, albumID uint) ([]JoinRequest, error) {
	if err := fs.enter("ListPendingRequests"); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]JoinRequest(nil), fs.pending...), nil
}

func (fs *fakeStore) SubmitJoinRequest(ctx context.Context, albumID uint, req JoinRequest) (JoinRequest, error) {
	if err := fs.enter("SubmitJoinRequest"); err != nil {
		return JoinRequest{}, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	req.ID = fs.assignID()
	fs.pending = append(fs.pending, req)
	fs.requests[requestKey(req.ClassID, req.ClassLabel)] = &req
	return req, nil
}

func (fs *fakeStore) ApproveRequest(ctx context.Context, requestID, classID string) (Access, error) {
	if err := fs.enter("ApproveRequest"); err != nil {
		return Access{}, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := range fs.pending {
		if fs.pending[i].ID == requestID {
			req := fs.pending[i]
			fs.pending = append(fs.pending[:i], fs.pending[i+1:]...)
			access := Access{
				ID:          fs.assignID(),
				ClassID:     classID,
				UserID:      req.UserID,
				Status:      StatusApproved,
				DisplayName: req.StudentName,
			}
			fs.members = append(fs.members, Member{
				AccessID:    access.ID,
				ClassID:     classID,
				UserID:      req.UserID,
				DisplayName: req.StudentName,
			})
			return access, nil
		}
	}
	return Access{}, errors.New("no such request")
}

func (fs *fakeStore) RejectRequest(ctx context.Context, requestID string, reason *string) error {
	if err := fs.enter("RejectRequest"); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := range fs.pending {
		if fs.pending[i].ID == requestID {
			fs.pending = append(fs.pending[:i], fs.pending[i+1:]...)
			return nil
		}
	}
	return errors.New("no such request")
}

func (fs *fakeStore) ListAllMembers(ctx context.Context, albumID uint) ([]Member, error) {
	if err := fs.enter("ListAllMembers"); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]Member(nil), fs.members...), nil
}

func (fs *fakeStore) UpdateMemberProfile(ctx context.Context, accessID string, patch ProfilePatch) error {
	return fs.enter("UpdateMemberProfile")
}

func (fs *fakeStore) RemoveMember(ctx context.Context, accessID string) error {
	if err := fs.enter("RemoveMember"); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := range fs.members {
		if fs.members[i].AccessID == accessID {
			fs.members = append(fs.members[:i], fs.members[i+1:]...)
			return nil
		}
	}
	return errors.New("no such member")
}

func (fs *fakeStore) EnrollOwner(ctx context.Context, albumID uint, classID string, userID uint, displayName string) (Access, error) {
	if err := fs.enter("EnrollOwner"); err != nil {
		return Access{}, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	access := Access{ID: fs.assignID(), ClassID: classID, UserID: userID, Status: StatusApproved, DisplayName: displayName}
	fs.members = append(fs.members, Member{AccessID: access.ID, ClassID: classID, UserID: userID, DisplayName: displayName})
	return access, nil
}

func (fs *fakeStore) SetCapacity(ctx context.Context, albumID uint, limit int) error {
	return fs.enter("SetCapacity")
}

func (fs *fakeStore) CreateOrRotateInviteToken(ctx context.Context, albumID uint, ttlDays int) (InviteToken, error) {
	if err := fs.enter("CreateOrRotateInviteToken"); err != nil {
		return InviteToken{}, err
	}
	return InviteToken{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

var _ Store = (*fakeStore)(nil)

// noticeRecorder collects OnNotice errors.
type noticeRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (nr *noticeRecorder) record(err error) {
	nr.mu.Lock()
	nr.errs = append(nr.errs, err)
	nr.mu.Unlock()
}

func (nr *noticeRecorder) count() int {
	nr.mu.Lock()
	defer nr.mu.Unlock()
	return len(nr.errs)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type testSession struct {
	*Session
	store   *fakeStore
	hub     *realtime.Hub
	notices *noticeRecorder
}

func newTestSession(t *testing.T, store *fakeStore, mutate func(*Config)) *testSession {
	t.Helper()
	hub := realtime.NewHub()
	go hub.Run()

	notices := &noticeRecorder{}
	cfg := Config{
		AlbumID:        1,
		UserID:         9,
		IsAdmin:        true,
		Debounce:       20 * time.Millisecond,
		SuppressWindow: 500 * time.Millisecond,
		OnNotice:       notices.record,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s := NewSession(store, hub, nil, cfg)
	if err := s.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(s.Close)
	return &testSession{Session: s, store: store, hub: hub, notices: notices}
}

func (ts *testSession) waitSeeded(t *testing.T) {
	t.Helper()
	waitFor(t, "seed fetches", func() bool {
		return ts.store.callCount("ListClasses") >= 1 &&
			ts.store.callCount("GetMyAccessAndRequests") >= 1 &&
			ts.store.callCount("ListAllMembers") >= 1 &&
			len(ts.Snapshot().Classes) == ts.store.classCount()
	})
}

func TestOpenSeedsCache(t *testing.T) {
	store := newFakeStore()
	store.classes = []Class{{ID: "1", Name: "1-A"}, {ID: "2", Name: "1-B", SortOrder: 1}}
	store.members = []Member{{AccessID: "10", ClassID: "1", UserID: 9, DisplayName: "Me"}}

	ts := newTestSession(t, store, nil)
	waitFor(t, "seeded snapshot", func() bool {
		snap := ts.Snapshot()
		return len(snap.Classes) == 2 && len(snap.MembersByClass["1"]) == 1
	})

	snap := ts.Snapshot()
	if !snap.MembersByClass["1"][0].IsSelf {
		t.Error("own membership must be flagged IsSelf")
	}
	if snap.Classes[0].MemberCount != 1 {
		t.Errorf("member count not derived: %+v", snap.Classes[0])
	}
}

func TestCloseIsIdempotentAndFinal(t *testing.T) {
	store := newFakeStore()
	ts := newTestSession(t, store, nil)
	ts.waitSeeded(t)

	ts.Close()
	ts.Close()

	if _, err := ts.CreateClass("1-A"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSelectClassClamps(t *testing.T) {
	store := newFakeStore()
	store.classes = []Class{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	ts := newTestSession(t, store, nil)
	ts.waitSeeded(t)

	ts.SelectClass(99)
	if got := ts.SelectedClass(); got != 2 {
		t.Errorf("expected clamp to last class, got %d", got)
	}
	ts.SelectClass(-5)
	if got := ts.SelectedClass(); got != 0 {
		t.Errorf("expected clamp to 0, got %d", got)
	}
}

func TestDeleteLastClassResetsSelection(t *testing.T) {
	store := newFakeStore()
	store.classes = []Class{{ID: "1"}, {ID: "2"}}
	ts := newTestSession(t, store, nil)
	ts.waitSeeded(t)

	ts.SelectClass(1)
	if err := ts.DeleteClass("2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := ts.SelectedClass(); got != 0 {
		t.Errorf("selection must be clamped after delete, got %d", got)
	}
	waitFor(t, "store delete", func() bool { return ts.store.callCount("DeleteClass") == 1 })
}

func TestSnapshotEmittedOnChange(t *testing.T) {
	store := newFakeStore()
	var mu sync.Mutex
	emitted := 0
	ts := newTestSession(t, store, func(cfg *Config) {
		cfg.OnChange = func(Snapshot) {
			mu.Lock()
			emitted++
			mu.Unlock()
		}
	})
	ts.waitSeeded(t)
	mu.Lock()
	before := emitted
	mu.Unlock()

	if _, err := ts.CreateClass("1-A"); err != nil {
		t.Fatalf("create: %v", err)
	}
	waitFor(t, "change emission", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return emitted >= before+2 // the optimistic insert plus the id swap
	})
}

func TestSnapshotSequenceIncreases(t *testing.T) {
	store := newFakeStore()
	ts := newTestSession(t, store, nil)
	ts.waitSeeded(t)

	a := ts.Snapshot()
	b := ts.Snapshot()
	if b.Seq <= a.Seq {
		t.Fatalf("snapshot sequence must increase: %d then %d", a.Seq, b.Seq)
	}
}

func TestStaleSnapshotIsNotDelivered(t *testing.T) {
	store := newFakeStore()
	var mu sync.Mutex
	var seqs []uint64
	ts := newTestSession(t, store, func(cfg *Config) {
		cfg.OnChange = func(snap Snapshot) {
			mu.Lock()
			seqs = append(seqs, snap.Seq)
			mu.Unlock()
		}
	})
	ts.waitSeeded(t)

	base := ts.Snapshot().Seq
	ts.emit(Snapshot{Seq: base + 10})
	ts.emit(Snapshot{Seq: base + 2}) // produced earlier, delivered later

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Fatalf("out-of-order delivery: %v", seqs)
		}
	}
	for _, s := range seqs {
		if s == base+2 {
			t.Fatal("superseded snapshot must be dropped")
		}
	}
}
