package repository

import "errors"

// Business-rule rejections surfaced to callers. Handlers map these onto 409s;
// the sync engine treats them like any other store failure and re-fetches.
var (
	ErrRequestNotPending  = errors.New("join request is not pending")
	ErrDuplicateAccess    = errors.New("user already holds an approved access in this album")
	ErrCapacityExceeded   = errors.New("album capacity ceiling reached")
	ErrCapacityBelowCount = errors.New("capacity limit is below the current approved count")
	ErrClassAlbumMismatch = errors.New("class does not belong to the request's album")
	ErrInviteExpired      = errors.New("invite token is expired")
)
