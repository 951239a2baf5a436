package engine

// Status values mirrored from the backing store.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Class is the session-side view of one class in the album. MemberCount is
// derived from the cached rosters, not authoritative.
type Class struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SortOrder   int    `json:"sort_order"`
	MemberCount int    `json:"member_count"`
}

// Access is the session-side view of the current user's approved membership
// in one class.
type Access struct {
	ID           string  `json:"id"`
	ClassID      string  `json:"class_id"`
	UserID       uint    `json:"user_id"`
	Status       string  `json:"status"`
	DisplayName  string  `json:"display_name"`
	Email        *string `json:"email,omitempty"`
	DateOfBirth  *string `json:"date_of_birth,omitempty"`
	SocialHandle *string `json:"social_handle,omitempty"`
	Message      *string `json:"message,omitempty"`
	PhotoPath    *string `json:"photo_path,omitempty"`
	VideoPath    *string `json:"video_path,omitempty"`
}

// JoinRequest is the session-side view of a join request. ClassID is empty
// when the requester only supplied a free-text class label.
type JoinRequest struct {
	ID          string  `json:"id"`
	ClassID     string  `json:"class_id,omitempty"`
	ClassLabel  string  `json:"class_label,omitempty"`
	UserID      uint    `json:"user_id"`
	StudentName string  `json:"student_name"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Status      string  `json:"status"`
}

// Member is the roster display projection of a ClassAccess.
type Member struct {
	AccessID    string  `json:"access_id"`
	ClassID     string  `json:"class_id"`
	UserID      uint    `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Email       *string `json:"email,omitempty"`
	Message     *string `json:"message,omitempty"`
	PhotoPath   *string `json:"photo_path,omitempty"`
	VideoPath   *string `json:"video_path,omitempty"`
	IsSelf      bool    `json:"is_self"`
}

// albumCache holds one session's local copy of the album roster state. It is
// only ever touched while holding the owning session's mutex.
type albumCache struct {
	Classes        []Class                 // ordered; the list order is the display order
	AccessByClass  map[string]*Access      // current user's own approved access, keyed by class id
	RequestByClass map[string]*JoinRequest // current user's own pending request, keyed by requestKey
	PendingByClass map[string][]JoinRequest // all pending requests (admin view), keyed by class id
	MembersByClass map[string][]Member
}

func newAlbumCache() *albumCache {
	return &albumCache{
		Classes:        []Class{},
		AccessByClass:  make(map[string]*Access),
		RequestByClass: make(map[string]*JoinRequest),
		PendingByClass: make(map[string][]JoinRequest),
		MembersByClass: make(map[string][]Member),
	}
}

// requestKey is the RequestByClass map key for a request targeting either an
// existing class or a free-text label. Both sides (optimistic writes and
// fetch results) derive the key the same way so merges line up.
func requestKey(classID, label string) string {
	if classID != "" {
		return classID
	}
	return "label:" + label
}

func (c *albumCache) classIndex(classID string) int {
	for i := range c.Classes {
		if c.Classes[i].ID == classID {
			return i
		}
	}
	return -1
}

// removeClass drops the class from the ordered list and purges every
// per-class bucket in one step, so no stale entry survives a delete.
func (c *albumCache) removeClass(classID string) {
	if i := c.classIndex(classID); i >= 0 {
		c.Classes = append(c.Classes[:i], c.Classes[i+1:]...)
	}
	delete(c.AccessByClass, classID)
	delete(c.RequestByClass, classID)
	delete(c.PendingByClass, classID)
	delete(c.MembersByClass, classID)
}

// swapID replaces every reference to a temporary id with the server-assigned
// one: the class list, all per-class map keys, and id fields inside cached
// values (a temp id may name a class or an access). This is the single place
// temp ids are resolved.
func (c *albumCache) swapID(tempID, serverID string) {
	if tempID == serverID || tempID == "" {
		return
	}
	for i := range c.Classes {
		if c.Classes[i].ID == tempID {
			c.Classes[i].ID = serverID
		}
	}
	swapAccessKey(c.AccessByClass, tempID, serverID)
	swapRequestKey(c.RequestByClass, tempID, serverID)
	if bucket, ok := c.PendingByClass[tempID]; ok {
		delete(c.PendingByClass, tempID)
		c.PendingByClass[serverID] = bucket
	}
	if roster, ok := c.MembersByClass[tempID]; ok {
		delete(c.MembersByClass, tempID)
		c.MembersByClass[serverID] = roster
	}
	for _, a := range c.AccessByClass {
		if a == nil {
			continue
		}
		if a.ID == tempID {
			a.ID = serverID
		}
		if a.ClassID == tempID {
			a.ClassID = serverID
		}
	}
	for _, r := range c.RequestByClass {
		if r == nil {
			continue
		}
		if r.ID == tempID {
			r.ID = serverID
		}
		if r.ClassID == tempID {
			r.ClassID = serverID
		}
	}
	for key, bucket := range c.PendingByClass {
		for i := range bucket {
			if bucket[i].ID == tempID {
				bucket[i].ID = serverID
			}
			if bucket[i].ClassID == tempID {
				bucket[i].ClassID = serverID
			}
		}
		c.PendingByClass[key] = bucket
	}
	for key, roster := range c.MembersByClass {
		for i := range roster {
			if roster[i].AccessID == tempID {
				roster[i].AccessID = serverID
			}
			if roster[i].ClassID == tempID {
				roster[i].ClassID = serverID
			}
		}
		c.MembersByClass[key] = roster
	}
}

func swapAccessKey(m map[string]*Access, tempID, serverID string) {
	if v, ok := m[tempID]; ok {
		delete(m, tempID)
		m[serverID] = v
	}
}

func swapRequestKey(m map[string]*JoinRequest, tempID, serverID string) {
	if v, ok := m[tempID]; ok {
		delete(m, tempID)
		m[serverID] = v
	}
}

// refreshMemberCounts recomputes the derived per-class member counts from the
// cached rosters.
func (c *albumCache) refreshMemberCounts() {
	for i := range c.Classes {
		c.Classes[i].MemberCount = len(c.MembersByClass[c.Classes[i].ID])
	}
}

// mergeClasses replaces the class list with the authoritative one, keeping
// any session-local placeholder classes the server cannot know about yet.
func mergeClasses(prev, incoming []Class) []Class {
	next := make([]Class, len(incoming))
	copy(next, incoming)
	for _, cls := range prev {
		if IsLocalID(cls.ID) {
			next = append(next, cls)
		}
	}
	return next
}

// mergeAccess merges an access fetch result into the previous map. The
// incoming map carries an entry for every server-side class (nil when the
// user has no access there); keys absent from the response are classes the
// server doesn't know yet, so their optimistic entries survive.
func mergeAccess(prev, incoming map[string]*Access) map[string]*Access {
	next := make(map[string]*Access, len(prev)+len(incoming))
	for k, v := range prev {
		next[k] = v
	}
	for k, v := range incoming {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = v
	}
	return next
}

// mergeRequests follows the same policy as mergeAccess for class-keyed
// entries. Label-keyed entries (requests targeting a class that didn't exist
// yet) are removed when the server stopped reporting them, unless they are
// still optimistic.
func mergeRequests(prev, incoming map[string]*JoinRequest) map[string]*JoinRequest {
	next := make(map[string]*JoinRequest, len(prev)+len(incoming))
	for k, v := range prev {
		if isLabelKey(k) && v != nil && !IsLocalID(v.ID) {
			if _, ok := incoming[k]; !ok {
				continue // server no longer reports it; it was resolved elsewhere
			}
		}
		next[k] = v
	}
	for k, v := range incoming {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = v
	}
	return next
}

func isLabelKey(key string) bool {
	return len(key) > 6 && key[:6] == "label:"
}

// mergeMembers builds the next roster map from the incoming fetch result.
// For every class where the previous cache held an entry for the session's
// own user that the server response is missing (read lag after a fresh
// approval), that single entry is re-appended, so the user's own membership
// never transiently disappears.
func mergeMembers(prev, incoming map[string][]Member, isSelf func(Member) bool) map[string][]Member {
	next := make(map[string][]Member, len(incoming))
	for classID, roster := range incoming {
		next[classID] = append([]Member(nil), roster...)
	}
	for classID, roster := range prev {
		for _, m := range roster {
			if !isSelf(m) {
				continue
			}
			if !rosterHasSelf(next[classID], isSelf) {
				next[classID] = append(next[classID], m)
			}
		}
	}
	return next
}

func rosterHasSelf(roster []Member, isSelf func(Member) bool) bool {
	for _, m := range roster {
		if isSelf(m) {
			return true
		}
	}
	return false
}

// clone returns a deep copy of the cache safe to hand outside the session's
// mutex. Pointer-typed profile fields are shared; they are treated as
// immutable by convention.
func (c *albumCache) clone() *albumCache {
	next := &albumCache{
		Classes:        append([]Class(nil), c.Classes...),
		AccessByClass:  make(map[string]*Access, len(c.AccessByClass)),
		RequestByClass: make(map[string]*JoinRequest, len(c.RequestByClass)),
		PendingByClass: make(map[string][]JoinRequest, len(c.PendingByClass)),
		MembersByClass: make(map[string][]Member, len(c.MembersByClass)),
	}
	for k, v := range c.AccessByClass {
		if v != nil {
			cp := *v
			next.AccessByClass[k] = &cp
		}
	}
	for k, v := range c.RequestByClass {
		if v != nil {
			cp := *v
			next.RequestByClass[k] = &cp
		}
	}
	for k, v := range c.PendingByClass {
		next.PendingByClass[k] = append([]JoinRequest(nil), v...)
	}
	for k, v := range c.MembersByClass {
		next.MembersByClass[k] = append([]Member(nil), v...)
	}
	return next
}
