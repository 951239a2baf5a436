package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/database"
	"github.com/camden-git/yearbooksync/engine"
	"github.com/camden-git/yearbooksync/models"
)

// EngineStore adapts the repositories to the engine.Store contract. Entity
// ids cross the boundary as strings; an id never assigned by the store (for
// example a session-local placeholder) resolves to gorm.ErrRecordNotFound,
// which the engine handles like any other rejection.
type EngineStore struct {
	Albums   *AlbumRepository
	Classes  *ClassRepository
	Accesses *AccessRepository
	Requests *RequestRepository
	Invites  InviteRepository
	SQL      *sql.DB // raw handle for the batch roster query
}

func NewEngineStore(albums *AlbumRepository, classes *ClassRepository, accesses *AccessRepository, requests *RequestRepository, invites InviteRepository, sqlDB *sql.DB) *EngineStore {
	return &EngineStore{
		Albums:   albums,
		Classes:  classes,
		Accesses: accesses,
		Requests: requests,
		Invites:  invites,
		SQL:      sqlDB,
	}
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseID(id string) (uint, error) {
	parsed, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, gorm.ErrRecordNotFound
	}
	return uint(parsed), nil
}

func toEngineClass(c models.Class) engine.Class {
	return engine.Class{
		ID:        idString(c.ID),
		Name:      c.Name,
		SortOrder: c.SortOrder,
	}
}

func toEngineAccess(a *models.ClassAccess) *engine.Access {
	if a == nil {
		return nil
	}
	return &engine.Access{
		ID:           idString(a.ID),
		ClassID:      idString(a.ClassID),
		UserID:       a.UserID,
		Status:       a.Status,
		DisplayName:  a.DisplayName,
		Email:        a.Email,
		DateOfBirth:  a.DateOfBirth,
		SocialHandle: a.SocialHandle,
		Message:      a.Message,
		PhotoPath:    a.PhotoPath,
		VideoPath:    a.VideoPath,
	}
}

func toEngineRequest(r *models.JoinRequest) *engine.JoinRequest {
	if r == nil {
		return nil
	}
	req := &engine.JoinRequest{
		ID:          idString(r.ID),
		UserID:      r.UserID,
		StudentName: r.StudentName,
		Email:       r.Email,
		Phone:       r.Phone,
		Status:      r.Status,
	}
	if r.ClassID != nil {
		req.ClassID = idString(*r.ClassID)
	}
	if r.ClassLabel != nil {
		req.ClassLabel = *r.ClassLabel
	}
	return req
}

// requestMapKey mirrors the engine's request keying: class id when the
// target class exists, otherwise a label key.
func requestMapKey(r *models.JoinRequest) string {
	if r.ClassID != nil {
		return idString(*r.ClassID)
	}
	if r.ClassLabel != nil {
		return "label:" + *r.ClassLabel
	}
	return "label:"
}

func (s *EngineStore) ListClasses(ctx context.Context, albumID uint) ([]engine.Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	classes, err := s.Classes.ListByAlbum(albumID)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Class, len(classes))
	for i, c := range classes {
		out[i] = toEngineClass(c)
	}
	return out, nil
}

func (s *EngineStore) CreateClass(ctx context.Context, albumID uint, name string) (engine.Class, error) {
	if err := ctx.Err(); err != nil {
		return engine.Class{}, err
	}
	class := &models.Class{AlbumID: albumID, Name: name}
	if err := s.Classes.Create(class); err != nil {
		return engine.Class{}, err
	}
	return toEngineClass(*class), nil
}

func (s *EngineStore) UpdateClass(ctx context.Context, classID string, patch engine.ClassPatch) (engine.Class, error) {
	if err := ctx.Err(); err != nil {
		return engine.Class{}, err
	}
	id, err := parseID(classID)
	if err != nil {
		return engine.Class{}, err
	}
	class, err := s.Classes.Update(id, patch.Name, patch.SortOrder)
	if err != nil {
		return engine.Class{}, err
	}
	return toEngineClass(*class), nil
}

func (s *EngineStore) DeleteClass(ctx context.Context, classID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := parseID(classID)
	if err != nil {
		return err
	}
	return s.Classes.Delete(id)
}

func (s *EngineStore) GetMyAccessAndRequests(ctx context.Context, albumID, userID uint) (map[string]*engine.Access, map[string]*engine.JoinRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	classes, err := s.Classes.ListByAlbum(albumID)
	if err != nil {
		return nil, nil, err
	}
	// every server-side class gets an entry, nil when the user has nothing
	// there; the engine's merge relies on this to drop stale entries while
	// keeping optimistic ones for classes the server doesn't know yet
	access := make(map[string]*engine.Access, len(classes))
	requests := make(map[string]*engine.JoinRequest, len(classes))
	for _, c := range classes {
		access[idString(c.ID)] = nil
		requests[idString(c.ID)] = nil
	}

	accesses, err := s.Accesses.ListByAlbumAndUser(albumID, userID)
	if err != nil {
		return nil, nil, err
	}
	for i := range accesses {
		access[idString(accesses[i].ClassID)] = toEngineAccess(&accesses[i])
	}

	own, err := s.Requests.ListByAlbumAndUser(albumID, userID)
	if err != nil {
		return nil, nil, err
	}
	for i := range own {
		requests[requestMapKey(&own[i])] = toEngineRequest(&own[i])
	}
	return access, requests, nil
}

func (s *EngineStore) ListPendingRequests(ctx context.Context, albumID uint) ([]engine.JoinRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pending, err := s.Requests.ListPending(albumID)
	if err != nil {
		return nil, err
	}
	out := make([]engine.JoinRequest, len(pending))
	for i := range pending {
		out[i] = *toEngineRequest(&pending[i])
	}
	return out, nil
}

func (s *EngineStore) SubmitJoinRequest(ctx context.Context, albumID uint, req engine.JoinRequest) (engine.JoinRequest, error) {
	if err := ctx.Err(); err != nil {
		return engine.JoinRequest{}, err
	}
	model := &models.JoinRequest{
		AlbumID:     albumID,
		UserID:      req.UserID,
		StudentName: req.StudentName,
		Email:       req.Email,
		Phone:       req.Phone,
	}
	if req.ClassID != "" {
		id, err := parseID(req.ClassID)
		if err != nil {
			return engine.JoinRequest{}, err
		}
		model.ClassID = &id
	} else if req.ClassLabel != "" {
		label := req.ClassLabel
		model.ClassLabel = &label
	}
	if err := s.Requests.Create(model); err != nil {
		return engine.JoinRequest{}, err
	}
	return *toEngineRequest(model), nil
}

func (s *EngineStore) ApproveRequest(ctx context.Context, requestID, classID string) (engine.Access, error) {
	if err := ctx.Err(); err != nil {
		return engine.Access{}, err
	}
	reqID, err := parseID(requestID)
	if err != nil {
		return engine.Access{}, err
	}
	clsID, err := parseID(classID)
	if err != nil {
		return engine.Access{}, err
	}
	access, err := s.Accesses.ApproveRequest(reqID, clsID)
	if err != nil {
		return engine.Access{}, err
	}
	return *toEngineAccess(access), nil
}

func (s *EngineStore) RejectRequest(ctx context.Context, requestID string, reason *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := parseID(requestID)
	if err != nil {
		return err
	}
	return s.Requests.Reject(id, reason)
}

func (s *EngineStore) ListAllMembers(ctx context.Context, albumID uint) ([]engine.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	album, err := s.Albums.GetByID(albumID)
	if err != nil {
		return nil, err
	}
	members, err := database.ListAlbumMembers(s.SQL, int64(albumID), album.MemberSortOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to load album %d roster: %w", albumID, err)
	}
	out := make([]engine.Member, len(members))
	for i, m := range members {
		out[i] = engine.Member{
			AccessID:    strconv.FormatInt(m.AccessID, 10),
			ClassID:     strconv.FormatInt(m.ClassID, 10),
			UserID:      uint(m.UserID),
			DisplayName: m.DisplayName,
			Email:       m.Email,
			Message:     m.Message,
			PhotoPath:   m.PhotoPath,
			VideoPath:   m.VideoPath,
		}
	}
	return out, nil
}

func (s *EngineStore) UpdateMemberProfile(ctx context.Context, accessID string, patch engine.ProfilePatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := parseID(accessID)
	if err != nil {
		return err
	}
	return s.Accesses.UpdateProfile(id, patch.DisplayName, patch.Email, patch.DateOfBirth, patch.SocialHandle, patch.Message, patch.VideoPath)
}

func (s *EngineStore) RemoveMember(ctx context.Context, accessID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := parseID(accessID)
	if err != nil {
		return err
	}
	return s.Accesses.Delete(id)
}

func (s *EngineStore) EnrollOwner(ctx context.Context, albumID uint, classID string, userID uint, displayName string) (engine.Access, error) {
	if err := ctx.Err(); err != nil {
		return engine.Access{}, err
	}
	clsID, err := parseID(classID)
	if err != nil {
		return engine.Access{}, err
	}
	access, err := s.Accesses.EnrollOwner(albumID, clsID, userID, displayName)
	if err != nil {
		return engine.Access{}, err
	}
	return *toEngineAccess(access), nil
}

func (s *EngineStore) SetCapacity(ctx context.Context, albumID uint, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Albums.SetCapacity(albumID, limit)
}

func (s *EngineStore) CreateOrRotateInviteToken(ctx context.Context, albumID uint, ttlDays int) (engine.InviteToken, error) {
	if err := ctx.Err(); err != nil {
		return engine.InviteToken{}, err
	}
	token, err := s.Invites.CreateOrRotate(albumID, 0, ttlDays)
	if err != nil {
		return engine.InviteToken{}, err
	}
	return engine.InviteToken{Token: token.Token, ExpiresAt: token.ExpiresAt}, nil
}
