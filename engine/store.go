package engine

import (
	"context"
	"time"
)

// ClassPatch carries the fields of a class update; nil means unchanged.
type ClassPatch struct {
	Name      *string
	SortOrder *int
}

// ProfilePatch carries profile edits for a ClassAccess; nil means unchanged,
// an empty string clears the field.
type ProfilePatch struct {
	DisplayName  *string
	Email        *string
	DateOfBirth  *string
	SocialHandle *string
	Message      *string
	VideoPath    *string
}

// InviteToken is the result of rotating an album's invite token.
type InviteToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the backing-store contract the engine consumes. Entity ids are
// strings so they share a keyspace with session-local placeholder ids; an id
// the store has never assigned simply resolves to not-found, which the caller
// handles like any other rejection (re-sync, never patch).
//
// Implementations must enforce the business invariants (capacity ceiling,
// single approved access per user per album); the engine only reflects
// results.
type Store interface {
	ListClasses(ctx context.Context, albumID uint) ([]Class, error)
	CreateClass(ctx context.Context, albumID uint, name string) (Class, error)
	UpdateClass(ctx context.Context, classID string, patch ClassPatch) (Class, error)
	DeleteClass(ctx context.Context, classID string) error

	// GetMyAccessAndRequests returns the user's own access and latest
	// request per class. Both maps carry an entry for every server-side
	// class, nil-valued where the user has none; label-keyed requests (see
	// requestKey) are included when the target class doesn't exist yet.
	GetMyAccessAndRequests(ctx context.Context, albumID, userID uint) (map[string]*Access, map[string]*JoinRequest, error)
	ListPendingRequests(ctx context.Context, albumID uint) ([]JoinRequest, error)
	SubmitJoinRequest(ctx context.Context, albumID uint, req JoinRequest) (JoinRequest, error)
	ApproveRequest(ctx context.Context, requestID, classID string) (Access, error)
	RejectRequest(ctx context.Context, requestID string, reason *string) error

	ListAllMembers(ctx context.Context, albumID uint) ([]Member, error)
	UpdateMemberProfile(ctx context.Context, accessID string, patch ProfilePatch) error
	RemoveMember(ctx context.Context, accessID string) error
	EnrollOwner(ctx context.Context, albumID uint, classID string, userID uint, displayName string) (Access, error)

	SetCapacity(ctx context.Context, albumID uint, limit int) error
	CreateOrRotateInviteToken(ctx context.Context, albumID uint, ttlDays int) (InviteToken, error)
}

// ViewStore persists the user's last selected class per album. Best-effort
// convenience only; errors are ignored by the session.
type ViewStore interface {
	GetSelectedClass(userID, albumID uint) (int, error)
	SaveSelectedClass(userID, albumID uint, idx int) error
}
