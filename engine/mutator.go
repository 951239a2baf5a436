package engine

import (
	"fmt"
	"strings"
)

// Every mutation follows the same contract: validate well-formedness only
// (authorization and business rules belong to the store), apply to the cache
// synchronously so the caller sees the change at zero latency, stamp the
// affected scope's last-local-mutation time, then issue the store call
// asynchronously. On success a create swaps its temporary id for the
// server-assigned one. On failure the affected scope is re-fetched from the
// store and the error is surfaced through OnNotice; mutations of existing
// rows are never hand-reverted, the fetch re-derives truth. The one
// exception is a rejected create: its placeholder carries an id the server
// never issued, so no fetch can remove it, and the failure branch deletes
// the placeholder itself before refetching.

// CreateClass inserts a placeholder class under a temporary id and returns
// that id; it is swapped for the server id once the create is confirmed.
func (s *Session) CreateClass(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	tempID := NewLocalID()

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	s.cache.Classes = append(s.cache.Classes, Class{ID: tempID, Name: name, SortOrder: len(s.cache.Classes)})
	s.markClassMutationLocked(tempID)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	go func() {
		created, err := s.store.CreateClass(s.ctx, s.cfg.AlbumID, name)
		if err != nil {
			s.notify(fmt.Errorf("create class %q failed: %w", name, err))
			s.mu.Lock()
			s.cache.removeClass(tempID)
			delete(s.lastClassMutation, tempID)
			s.clampSelectionLocked()
			snap := s.snapshotLocked()
			s.mu.Unlock()
			s.emit(snap)
			s.FetchClasses()
			return
		}
		s.mu.Lock()
		s.cache.swapID(tempID, created.ID)
		if i := s.cache.classIndex(created.ID); i >= 0 {
			s.cache.Classes[i].Name = created.Name
			s.cache.Classes[i].SortOrder = created.SortOrder
		}
		delete(s.lastClassMutation, tempID)
		s.markClassMutationLocked(created.ID)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
	}()
	return tempID, nil
}

// RenameClass applies the new name locally and sends the update.
func (s *Session) RenameClass(classID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	i := s.cache.classIndex(classID)
	if i < 0 {
		s.mu.Unlock()
		return ErrUnknownClass
	}
	s.cache.Classes[i].Name = name
	s.markClassMutationLocked(classID)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	go func() {
		if _, err := s.store.UpdateClass(s.ctx, classID, ClassPatch{Name: &name}); err != nil {
			s.notify(fmt.Errorf("rename class failed: %w", err))
			s.FetchClasses()
		}
	}()
	return nil
}

// ReorderClass moves the class to position newPos and re-sends only that
// class's new order. Siblings are not renumbered locally; if the store
// renumbers them differently, the next class fetch restores consistency.
func (s *Session) ReorderClass(classID string, newPos int) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	i := s.cache.classIndex(classID)
	if i < 0 {
		s.mu.Unlock()
		return ErrUnknownClass
	}
	if newPos < 0 {
		newPos = 0
	}
	if newPos > len(s.cache.Classes)-1 {
		newPos = len(s.cache.Classes) - 1
	}
	// keep the selection pointing at the same class through the move
	var selectedID string
	if s.selected < len(s.cache.Classes) {
		selectedID = s.cache.Classes[s.selected].ID
	}
	moved := s.cache.Classes[i]
	moved.SortOrder = newPos
	rest := append(append([]Class{}, s.cache.Classes[:i]...), s.cache.Classes[i+1:]...)
	s.cache.Classes = append(rest[:newPos], append([]Class{moved}, rest[newPos:]...)...)
	if selectedID != "" {
		if idx := s.cache.classIndex(selectedID); idx >= 0 {
			s.selected = idx
		}
	}
	s.clampSelectionLocked()
	s.markClassMutationLocked(classID)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	go func() {
		if _, err := s.store.UpdateClass(s.ctx, classID, ClassPatch{SortOrder: &newPos}); err != nil {
			s.notify(fmt.Errorf("reorder class failed: %w", err))
			s.FetchClasses()
		}
	}()
	return nil
}

// DeleteClass removes the class from the ordered list, purges its per-class
// buckets and clamps the selection, all in one step.
func (s *Session) DeleteClass(classID string) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.cache.classIndex(classID) < 0 {
		s.mu.Unlock()
		return ErrUnknownClass
	}
	s.cache.removeClass(classID)
	s.clampSelectionLocked()
	s.markClassMutationLocked(classID)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	go func() {
		if err := s.store.DeleteClass(s.ctx, classID); err != nil {
			s.notify(fmt.Errorf("delete class failed: %w", err))
			// a delete touches every slice of the cache
			s.FetchClasses()
			s.FetchAccessAndRequests()
			s.FetchMembers()
		}
	}()
	return nil
}

// SubmitJoinRequest records the user's own pending request optimistically.
// The target may be an existing class or a free-text label when the class
// doesn't exist yet.
func (s *Session) SubmitJoinRequest(classID, classLabel, studentName string, email, phone *string) (string, error) {
	studentName = strings.TrimSpace(studentName)
	if studentName == "" {
		return "", ErrEmptyDisplayName
	}
	if classID == "" && strings.TrimSpace(classLabel) == "" {
		return "", ErrClassRequired
	}
	tempID := NewLocalID()
	req := JoinRequest{
		ID:          tempID,
		ClassID:     classID,
		ClassLabel:  classLabel,
		UserID:      s.cfg.UserID,
		StudentName: studentName,
		Email:       email,
		Phone:       phone,
		Status:      StatusPending,
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	if classID != "" && s.cache.classIndex(classID) < 0 {
		s.mu.Unlock()
		return "", ErrUnknownClass
	}
	key := requestKey(classID, classLabel)
	stored := req
	s.cache.RequestByClass[key] = &stored
	s.markRosterMutationLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	go func() {
		created, err := s.store.SubmitJoinRequest(s.ctx, s.cfg.AlbumID, req)
		if err != nil {
			s.notify(fmt.Errorf("join request failed: %w", err))
			s.mu.Lock()
			if cur := s.cache.RequestByClass[key]; cur != nil && cur.ID == tempID {
				delete(s.cache.RequestByClass, key)
			}
			snap := s.snapshotLocked()
			s.mu.Unlock()
			s.emit(snap)
			s.FetchAccessAndRequests()
			return
		}
		s.mu.Lock()
		s.cache.swapID(tempID, created.ID)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
	}()
	return tempID, nil
}

// ApproveRequest moves a pending request into membership: the request leaves
// the pending queue, a placeholder member appears on the destination roster,
// and the store performs the authoritative transition (capacity ceiling,
// single-access rule). classID may be empty when the request already carries
// a destination.
func (s *Session) ApproveRequest(requestID, classID string) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	key, idx := s.findPendingLocked(requestID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownRequest
	}
	req := s.cache.PendingByClass[key][idx]
	if classID == "" {
		classID = req.ClassID
	}
	if classID == "" {
		s.mu.Unlock()
		return ErrClassRequired
	}

	bucket := s.cache.PendingByClass[key]
	s.cache.PendingByClass[key] = append(bucket[:idx], bucket[idx+1:]...)

	tempAccessID := NewLocalID()
	member := Member{
		AccessID:    tempAccessID,
		ClassID:     classID,
		UserID:      req.UserID,
		DisplayName: req.StudentName,
		Email:       req.Email,
		IsSelf:      req.UserID == s.cfg.UserID,
	}
	s.cache.MembersByClass[classID] = append(s.cache.MembersByClass[classID], member)
	if member.IsSelf {
		s.cache.AccessByClass[classID] = &Access{
			ID:          tempAccessID,
			ClassID:     classID,
			UserID:      req.UserID,
			Status:      StatusApproved,
			DisplayName: req.StudentName,
			Email:       req.Email,
		}
		delete(s.cache.RequestByClass, requestKey(req.ClassID, req.ClassLabel))
	}
	s.cache.refreshMemberCounts()
	s.markRosterMutationLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	go func() {
		access, err := s.store.ApproveRequest(s.ctx, requestID, classID)
		if err != nil {
			s.notify(fmt.Errorf("approve request failed: %w", err))
			s.dropMemberPlaceholder(tempAccessID)
			s.FetchAccessAndRequests()
			s.FetchMembers()
			return
		}
		s.mu.Lock()
		s.cache.swapID(tempAccessID, access.ID)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
	}()
	return nil
}

// RejectRequest drops a pending request. Terminal, no side effects.
func (s *Session) RejectRequest(requestID string, reason *string) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	key, idx := s.findPendingLocked(requestID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownRequest
	}
	bucket := s.cache.PendingByClass[key]
	s.cache.PendingByClass[key] = append(bucket[:idx], bucket[idx+1:]...)
	s.markRosterMutationLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	go func() {
		if err := s.store.RejectRequest(s.ctx, requestID, reason); err != nil {
			s.notify(fmt.Errorf("reject request failed: %w", err))
			s.FetchAccessAndRequests()
		}
	}()
	return nil
}

// UpdateMemberProfile applies a profile edit to the cached roster entry (and
// the user's own access view when editing themselves) before sending it.
func (s *Session) UpdateMemberProfile(accessID string, patch ProfilePatch) error {
	if patch.DisplayName != nil && strings.TrimSpace(*patch.DisplayName) == "" {
		return ErrEmptyDisplayName
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	classID, idx := s.findMemberLocked(accessID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownMember
	}
	applyMemberPatch(&s.cache.MembersByClass[classID][idx], patch)
	if a := s.cache.AccessByClass[classID]; a != nil && a.ID == accessID {
		applyAccessPatch(a, patch)
	}
	s.markRosterMutationLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	go func() {
		if err := s.store.UpdateMemberProfile(s.ctx, accessID, patch); err != nil {
			s.notify(fmt.Errorf("profile update failed: %w", err))
			s.FetchAccessAndRequests()
			s.FetchMembers()
		}
	}()
	return nil
}

// RemoveMember deletes a membership from the roster (and the user's own
// access view when removing themselves).
func (s *Session) RemoveMember(accessID string) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	classID, idx := s.findMemberLocked(accessID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownMember
	}
	roster := s.cache.MembersByClass[classID]
	s.cache.MembersByClass[classID] = append(roster[:idx], roster[idx+1:]...)
	if a := s.cache.AccessByClass[classID]; a != nil && a.ID == accessID {
		delete(s.cache.AccessByClass, classID)
	}
	s.cache.refreshMemberCounts()
	s.markRosterMutationLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	go func() {
		if err := s.store.RemoveMember(s.ctx, accessID); err != nil {
			s.notify(fmt.Errorf("remove member failed: %w", err))
			s.FetchAccessAndRequests()
			s.FetchMembers()
		}
	}()
	return nil
}

// EnrollOwner enrolls the session's own user directly into a class, the
// owner's shortcut past the join-request flow.
func (s *Session) EnrollOwner(classID, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return ErrEmptyDisplayName
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.cache.classIndex(classID) < 0 {
		s.mu.Unlock()
		return ErrUnknownClass
	}
	tempAccessID := NewLocalID()
	s.cache.AccessByClass[classID] = &Access{
		ID:          tempAccessID,
		ClassID:     classID,
		UserID:      s.cfg.UserID,
		Status:      StatusApproved,
		DisplayName: displayName,
	}
	s.cache.MembersByClass[classID] = append(s.cache.MembersByClass[classID], Member{
		AccessID:    tempAccessID,
		ClassID:     classID,
		UserID:      s.cfg.UserID,
		DisplayName: displayName,
		IsSelf:      true,
	})
	s.cache.refreshMemberCounts()
	s.markRosterMutationLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	go func() {
		access, err := s.store.EnrollOwner(s.ctx, s.cfg.AlbumID, classID, s.cfg.UserID, displayName)
		if err != nil {
			s.notify(fmt.Errorf("owner enrollment failed: %w", err))
			s.dropMemberPlaceholder(tempAccessID)
			s.FetchAccessAndRequests()
			s.FetchMembers()
			return
		}
		s.mu.Lock()
		s.cache.swapID(tempAccessID, access.ID)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
	}()
	return nil
}

// SetCapacity raises the album's approved-membership ceiling. No cache state
// is affected; the store rejects a limit below the current approved count.
func (s *Session) SetCapacity(limit int) error {
	if limit <= 0 {
		return ErrInvalidCapacity
	}
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	go func() {
		if err := s.store.SetCapacity(s.ctx, s.cfg.AlbumID, limit); err != nil {
			s.notify(fmt.Errorf("capacity update failed: %w", err))
		}
	}()
	return nil
}

// dropMemberPlaceholder removes a still-unconfirmed roster placeholder
// after the store rejected the mutation that created it. The self-preserving
// member merge would otherwise re-append the entry on every fetch; its id
// was never issued by the server, so only the creator can take it back out.
func (s *Session) dropMemberPlaceholder(tempAccessID string) {
	s.mu.Lock()
	if classID, idx := s.findMemberLocked(tempAccessID); idx >= 0 {
		roster := s.cache.MembersByClass[classID]
		s.cache.MembersByClass[classID] = append(roster[:idx], roster[idx+1:]...)
	}
	for classID, a := range s.cache.AccessByClass {
		if a != nil && a.ID == tempAccessID {
			delete(s.cache.AccessByClass, classID)
		}
	}
	s.cache.refreshMemberCounts()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)
}

func (s *Session) findPendingLocked(requestID string) (string, int) {
	for key, bucket := range s.cache.PendingByClass {
		for i := range bucket {
			if bucket[i].ID == requestID {
				return key, i
			}
		}
	}
	return "", -1
}

func (s *Session) findMemberLocked(accessID string) (string, int) {
	for classID, roster := range s.cache.MembersByClass {
		for i := range roster {
			if roster[i].AccessID == accessID {
				return classID, i
			}
		}
	}
	return "", -1
}

func applyMemberPatch(m *Member, patch ProfilePatch) {
	if patch.DisplayName != nil {
		m.DisplayName = *patch.DisplayName
	}
	m.Email = patchedField(m.Email, patch.Email)
	m.Message = patchedField(m.Message, patch.Message)
	m.VideoPath = patchedField(m.VideoPath, patch.VideoPath)
}

func applyAccessPatch(a *Access, patch ProfilePatch) {
	if patch.DisplayName != nil {
		a.DisplayName = *patch.DisplayName
	}
	a.Email = patchedField(a.Email, patch.Email)
	a.DateOfBirth = patchedField(a.DateOfBirth, patch.DateOfBirth)
	a.SocialHandle = patchedField(a.SocialHandle, patch.SocialHandle)
	a.Message = patchedField(a.Message, patch.Message)
	a.VideoPath = patchedField(a.VideoPath, patch.VideoPath)
}

// patchedField returns the new value for a nullable profile field: nil patch
// means unchanged, empty string clears the field.
func patchedField(current, patch *string) *string {
	if patch == nil {
		return current
	}
	if *patch == "" {
		return nil
	}
	return patch
}
