package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/yearbooksync/models"
	"github.com/camden-git/yearbooksync/repository"
)

type RequestHandler struct {
	Requests repository.RequestRepositoryInterface
	Accesses repository.AccessRepositoryInterface
	Invites  repository.InviteRepository
}

// SubmitJoinRequest files a join request against the album behind an invite
// token. The requester either picks an existing class by id or writes a free
// text class label for one that doesn't exist yet.
func (rh *RequestHandler) SubmitJoinRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	invite, err := rh.Invites.GetValidByToken(chi.URLParam(r, "token"))
	if err != nil {
		writeRepositoryError(w, err)
		return
	}

	var req struct {
		ClassID     *uint   `json:"class_id"`
		ClassLabel  *string `json:"class_label"`
		StudentName string  `json:"student_name"`
		Email       *string `json:"email"`
		Phone       *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.StudentName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "student_name is required"})
		return
	}
	if req.ClassID == nil && (req.ClassLabel == nil || *req.ClassLabel == "") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Either class_id or class_label is required"})
		return
	}

	request := &models.JoinRequest{
		AlbumID:     invite.AlbumID,
		ClassID:     req.ClassID,
		ClassLabel:  req.ClassLabel,
		UserID:      user.ID,
		StudentName: req.StudentName,
		Email:       req.Email,
		Phone:       req.Phone,
	}
	if err := rh.Requests.Create(request); err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (rh *RequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}
	pending, err := rh.Requests.ListPending(albumID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

// ApproveRequest approves a pending join request into a concrete class. The
// target class must already exist; label-only requests need a class created
// first.
func (rh *RequestHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.ParseUint(chi.URLParam(r, "requestID"), 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request_id", "Request ID must be a number")
		return
	}

	var req struct {
		ClassID uint `json:"class_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.ClassID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "class_id is required"})
		return
	}

	access, err := rh.Accesses.ApproveRequest(uint(requestID), req.ClassID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, access)
}

func (rh *RequestHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.ParseUint(chi.URLParam(r, "requestID"), 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request_id", "Request ID must be a number")
		return
	}

	var req struct {
		Reason *string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := rh.Requests.Reject(uint(requestID), req.Reason); err != nil {
		writeRepositoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
