package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/yearbooksync/database"
	"github.com/camden-git/yearbooksync/repository"
)

type MemberHandler struct {
	DB       *sql.DB
	Albums   repository.AlbumRepositoryInterface
	Accesses repository.AccessRepositoryInterface
}

// ListMembers returns the album's full approved roster grouped by class
// order, sorted per the album's member sort setting.
func (mh *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}
	album, err := mh.Albums.GetByID(albumID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	members, err := database.ListAlbumMembers(mh.DB, int64(albumID), album.MemberSortOrder)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to load album roster")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func accessIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "accessID"), 10, 32)
	return uint(id), err
}

// UpdateProfile edits a member's profile fields. Omitted fields stay as they
// are; fields sent as empty strings are cleared.
func (mh *MemberHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	accessID, err := accessIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_access_id", "Access ID must be a number")
		return
	}

	var req struct {
		DisplayName  *string `json:"display_name"`
		Email        *string `json:"email"`
		DateOfBirth  *string `json:"date_of_birth"`
		SocialHandle *string `json:"social_handle"`
		Message      *string `json:"message"`
		VideoPath    *string `json:"video_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.DisplayName != nil && *req.DisplayName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "display_name cannot be empty"})
		return
	}

	if err := mh.Accesses.UpdateProfile(accessID, req.DisplayName, req.Email, req.DateOfBirth, req.SocialHandle, req.Message, req.VideoPath); err != nil {
		writeRepositoryError(w, err)
		return
	}
	access, err := mh.Accesses.GetByID(accessID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, access)
}

func (mh *MemberHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	accessID, err := accessIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_access_id", "Access ID must be a number")
		return
	}
	if err := mh.Accesses.Delete(accessID); err != nil {
		writeRepositoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
