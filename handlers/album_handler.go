package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/yearbooksync/config"
	"github.com/camden-git/yearbooksync/database"
	"github.com/camden-git/yearbooksync/models"
	"github.com/camden-git/yearbooksync/repository"
)

type AlbumHandler struct {
	Albums  repository.AlbumRepositoryInterface
	Invites repository.InviteRepository
	Cfg     config.Config
}

func albumIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "albumID"), 10, 32)
	return uint(id), err
}

func (ah *AlbumHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req struct {
		Name           string  `json:"name"`
		Slug           string  `json:"slug"`
		Description    *string `json:"description"`
		SchoolName     *string `json:"school_name"`
		GraduationYear *int    `json:"graduation_year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	if req.Name == "" || req.Slug == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: name and slug"})
		return
	}
	if strings.ContainsAny(req.Slug, " /\\?%*:|\"<>") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid slug format. Use URL-safe characters without spaces."})
		return
	}

	album := &models.Album{
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		SchoolName:     req.SchoolName,
		GraduationYear: req.GraduationYear,
		OwnerUserID:    user.ID,
	}
	if err := ah.Albums.Create(album); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Album slug already exists"})
			return
		}
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

func (ah *AlbumHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}
	albums, err := ah.Albums.ListByOwner(user.ID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (ah *AlbumHandler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}
	album, err := ah.Albums.GetByID(albumID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (ah *AlbumHandler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}

	var req struct {
		Name           string  `json:"name"`
		Description    *string `json:"description"`
		SchoolName     *string `json:"school_name"`
		GraduationYear *int    `json:"graduation_year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := ah.Albums.Update(albumID, req.Name, req.Description, req.SchoolName, req.GraduationYear); err != nil {
		writeRepositoryError(w, err)
		return
	}
	album, err := ah.Albums.GetByID(albumID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (ah *AlbumHandler) SetCapacity(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}

	var req struct {
		Limit int `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Limit <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive number"})
		return
	}

	if err := ah.Albums.SetCapacity(albumID, req.Limit); err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"limit": req.Limit})
}

func (ah *AlbumHandler) UpdateSortOrder(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}

	var req struct {
		SortOrder string `json:"sort_order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if !database.IsValidMemberSortOrder(req.SortOrder) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unknown sort order: " + req.SortOrder})
		return
	}

	if err := ah.Albums.UpdateMemberSortOrder(albumID, req.SortOrder); err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sort_order": req.SortOrder})
}

func (ah *AlbumHandler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}
	if err := ah.Albums.Delete(albumID); err != nil {
		writeRepositoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RotateInvite creates the album's invite token or replaces the current one.
func (ah *AlbumHandler) RotateInvite(w http.ResponseWriter, r *http.Request) {
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

	token, err := ah.Invites.CreateOrRotate(albumID, user.ID, ah.Cfg.InviteTTLDays)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

func (ah *AlbumHandler) GetInvite(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}
	token, err := ah.Invites.GetByAlbum(albumID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}
