package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/yearbooksync/models"
	"github.com/camden-git/yearbooksync/repository"
)

type ClassHandler struct {
	Classes repository.ClassRepositoryInterface
}

func classIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "classID"), 10, 32)
	return uint(id), err
}

func (ch *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}
	classes, err := ch.Classes.ListByAlbum(albumID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (ch *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Class name is required"})
		return
	}

	class := &models.Class{AlbumID: albumID, Name: req.Name}
	if err := ch.Classes.Create(class); err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, class)
}

// UpdateClass renames a class, moves it to a new position, or both. Omitted
// fields are left as they are.
func (ch *ClassHandler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	classID, err := classIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_class_id", "Class ID must be a number")
		return
	}

	var req struct {
		Name      *string `json:"name"`
		SortOrder *int    `json:"sort_order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Name == nil && req.SortOrder == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Nothing to update"})
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Class name cannot be empty"})
		return
	}

	class, err := ch.Classes.Update(classID, req.Name, req.SortOrder)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (ch *ClassHandler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	classID, err := classIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_class_id", "Class ID must be a number")
		return
	}
	if err := ch.Classes.Delete(classID); err != nil {
		writeRepositoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
