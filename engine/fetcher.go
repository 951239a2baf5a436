package engine

import (
	"fmt"
)

// The reconciliation fetchers are the sole mechanism that fully resyncs the
// cache with the backing store. Each is idempotent and self-excluding: the
// in-flight guard turns a second concurrent call into a no-op instead of
// queueing it, so redundant scheduling is always safe.

// FetchClasses refreshes the class list. Fire-and-forget; failures are
// surfaced through OnNotice.
func (s *Session) FetchClasses() {
	if !s.classFetchInFlight.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.classFetchInFlight.Store(false)
		classes, err := s.store.ListClasses(s.ctx, s.cfg.AlbumID)
		if err != nil {
			s.notify(fmt.Errorf("class refresh failed: %w", err))
			return
		}
		s.mu.Lock()
		s.cache.Classes = mergeClasses(s.cache.Classes, classes)
		s.cache.refreshMemberCounts()
		s.clampSelectionLocked()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
	}()
}

// FetchAccessAndRequests refreshes the current user's own access and request
// per class and, for admin sessions, the pending request queue.
func (s *Session) FetchAccessAndRequests() {
	if !s.accessFetchInFlight.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.accessFetchInFlight.Store(false)
		access, requests, err := s.store.GetMyAccessAndRequests(s.ctx, s.cfg.AlbumID, s.cfg.UserID)
		if err != nil {
			s.notify(fmt.Errorf("access refresh failed: %w", err))
			return
		}
		var pending []JoinRequest
		if s.cfg.IsAdmin {
			pending, err = s.store.ListPendingRequests(s.ctx, s.cfg.AlbumID)
			if err != nil {
				s.notify(fmt.Errorf("pending request refresh failed: %w", err))
				return
			}
		}
		s.mu.Lock()
		s.cache.AccessByClass = mergeAccess(s.cache.AccessByClass, access)
		s.cache.RequestByClass = mergeRequests(s.cache.RequestByClass, requests)
		if s.cfg.IsAdmin {
			s.cache.PendingByClass = mergePending(s.cache.PendingByClass, pending)
		}
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
	}()
}

// FetchMembers refreshes every class's roster in one batch read.
func (s *Session) FetchMembers() {
	if !s.membersFetchInFlight.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.membersFetchInFlight.Store(false)
		members, err := s.store.ListAllMembers(s.ctx, s.cfg.AlbumID)
		if err != nil {
			s.notify(fmt.Errorf("member refresh failed: %w", err))
			return
		}
		incoming := make(map[string][]Member)
		for _, m := range members {
			m.IsSelf = m.UserID == s.cfg.UserID
			incoming[m.ClassID] = append(incoming[m.ClassID], m)
		}
		isSelf := func(m Member) bool { return m.UserID == s.cfg.UserID }
		s.mu.Lock()
		s.cache.MembersByClass = mergeMembers(s.cache.MembersByClass, incoming, isSelf)
		s.cache.refreshMemberCounts()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
	}()
}

// mergePending rebuilds the admin pending-queue buckets from the
// authoritative list, keeping buckets keyed by classes the server doesn't
// know about yet.
func mergePending(prev map[string][]JoinRequest, incoming []JoinRequest) map[string][]JoinRequest {
	next := make(map[string][]JoinRequest)
	for _, r := range incoming {
		key := requestKey(r.ClassID, r.ClassLabel)
		next[key] = append(next[key], r)
	}
	for classID, bucket := range prev {
		if IsLocalID(classID) {
			next[classID] = bucket
		}
	}
	return next
}
