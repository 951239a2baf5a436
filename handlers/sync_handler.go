package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/camden-git/yearbooksync/config"
	"github.com/camden-git/yearbooksync/engine"
	"github.com/camden-git/yearbooksync/permissions"
	"github.com/camden-git/yearbooksync/realtime"
	"github.com/camden-git/yearbooksync/repository"
)

// SyncHandler hosts one engine session per websocket connection. The session
// keeps an optimistically-updated copy of the album roster and streams a full
// snapshot to the client whenever it changes; mutation commands arrive as
// JSON messages on the same connection.
type SyncHandler struct {
	Store  engine.Store
	Hub    *realtime.Hub
	Views  engine.ViewStore
	Albums repository.AlbumRepositoryInterface
	Cfg    config.Config

	upgrader websocket.Upgrader
}

func NewSyncHandler(store engine.Store, hub *realtime.Hub, views engine.ViewStore, albums repository.AlbumRepositoryInterface, cfg config.Config) *SyncHandler {
	return &SyncHandler{
		Store:  store,
		Hub:    hub,
		Views:  views,
		Albums: albums,
		Cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == cfg.AllowedOrigin
			},
		},
	}
}

// syncCommand is one inbound client message.
type syncCommand struct {
	Op string `json:"op"`

	Name        string  `json:"name,omitempty"`
	ClassID     string  `json:"class_id,omitempty"`
	ClassLabel  string  `json:"class_label,omitempty"`
	Position    int     `json:"position,omitempty"`
	Index       int     `json:"index,omitempty"`
	RequestID   string  `json:"request_id,omitempty"`
	AccessID    string  `json:"access_id,omitempty"`
	StudentName string  `json:"student_name,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Social      *string `json:"social_handle,omitempty"`
	Message     *string `json:"message,omitempty"`
	VideoPath   *string `json:"video_path,omitempty"`
	Reason      *string `json:"reason,omitempty"`
	Limit       int     `json:"limit,omitempty"`
}

// syncMessage is one outbound server message.
type syncMessage struct {
	Type     string           `json:"type"` // "snapshot", "notice", "ack" or "error"
	Snapshot *engine.Snapshot `json:"snapshot,omitempty"`
	Detail   string           `json:"detail,omitempty"`
	LocalID  string           `json:"local_id,omitempty"` // placeholder id assigned by an optimistic create
}

func (sh *SyncHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}
	album, err := sh.Albums.GetByID(albumID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}

	isAdmin := album.OwnerUserID == user.ID ||
		user.HasAlbumPermission(albumID, permissions.AlbumManageRequests)

	conn, err := sh.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Sync upgrade failed for album %d user %d: %v", albumID, user.ID, err)
		return
	}

	// outbound messages are produced by the session's goroutines as well as
	// the read loop, so they funnel through one writer
	outbound := make(chan syncMessage, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbound {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()
	send := func(msg syncMessage) {
		select {
		case outbound <- msg:
		default:
			// the client is not draining; the next snapshot supersedes
			// whatever was dropped
		}
	}

	session := engine.NewSession(sh.Store, sh.Hub, sh.Views, engine.Config{
		AlbumID:        albumID,
		UserID:         user.ID,
		IsAdmin:        isAdmin,
		Debounce:       sh.Cfg.Debounce,
		SuppressWindow: sh.Cfg.SuppressWindow,
		OnChange: func(snap engine.Snapshot) {
			send(syncMessage{Type: "snapshot", Snapshot: &snap})
		},
		OnNotice: func(err error) {
			send(syncMessage{Type: "notice", Detail: err.Error()})
		},
	})
	if err := session.Open(); err != nil {
		log.Printf("Sync session open failed for album %d user %d: %v", albumID, user.ID, err)
		conn.Close()
		return
	}

	for {
		var cmd syncCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		sh.dispatch(session, cmd, send)
	}

	session.Close()
	close(outbound)
	<-writerDone
	conn.Close()
}

func (sh *SyncHandler) dispatch(s *engine.Session, cmd syncCommand, send func(syncMessage)) {
	var err error
	var localID string

	switch cmd.Op {
	case "create_class":
		localID, err = s.CreateClass(cmd.Name)
	case "rename_class":
		err = s.RenameClass(cmd.ClassID, cmd.Name)
	case "reorder_class":
		err = s.ReorderClass(cmd.ClassID, cmd.Position)
	case "delete_class":
		err = s.DeleteClass(cmd.ClassID)
	case "select_class":
		s.SelectClass(cmd.Index)
	case "submit_request":
		localID, err = s.SubmitJoinRequest(cmd.ClassID, cmd.ClassLabel, cmd.StudentName, cmd.Email, cmd.Phone)
	case "approve_request":
		err = s.ApproveRequest(cmd.RequestID, cmd.ClassID)
	case "reject_request":
		err = s.RejectRequest(cmd.RequestID, cmd.Reason)
	case "update_profile":
		err = s.UpdateMemberProfile(cmd.AccessID, engine.ProfilePatch{
			DisplayName:  cmd.DisplayName,
			Email:        cmd.Email,
			DateOfBirth:  cmd.DateOfBirth,
			SocialHandle: cmd.Social,
			Message:      cmd.Message,
			VideoPath:    cmd.VideoPath,
		})
	case "remove_member":
		err = s.RemoveMember(cmd.AccessID)
	case "enroll_owner":
		name := ""
		if cmd.DisplayName != nil {
			name = *cmd.DisplayName
		}
		err = s.EnrollOwner(cmd.ClassID, name)
	case "set_capacity":
		err = s.SetCapacity(cmd.Limit)
	case "refresh":
		s.FetchClasses()
		s.FetchAccessAndRequests()
		s.FetchMembers()
	default:
		send(syncMessage{Type: "error", Detail: "unknown op: " + cmd.Op})
		return
	}

	if err != nil {
		send(syncMessage{Type: "error", Detail: err.Error()})
		return
	}
	if localID != "" {
		send(syncMessage{Type: "ack", LocalID: localID})
	}
}
