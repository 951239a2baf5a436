package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/yearbooksync/permissions"
	"github.com/camden-git/yearbooksync/repository"
)

// WritePermissionGroups writes the static permission catalog. Frontends use
// it to render grant pickers without hardcoding keys.
func WritePermissionGroups(w http.ResponseWriter) {
	if err := json.NewEncoder(w).Encode(permissions.DefinedPermissionGroups); err != nil {
		log.Printf("Error encoding permission groups: %v", err)
	}
}

// AlbumPermissionHandler manages per-user permission grants scoped to one album.
type AlbumPermissionHandler struct {
	Users repository.UserRepository
}

func grantUserIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 32)
	return uint(id), err
}

// SetGrants replaces the target user's permission list for the album. Every key
// must exist in the catalog and carry album scope.
func (ph *AlbumPermissionHandler) SetGrants(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid album ID"})
		return
	}
	userID, err := grantUserIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid user ID"})
		return
	}

	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}
	defs := permissions.GetAllPermissionDefinitions()
	for _, key := range req.Permissions {
		def, ok := defs[key]
		if !ok || def.Scope != permissions.ScopeAlbum {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Unknown album permission: %s", key)})
			return
		}
	}

	if _, err := ph.Users.GetByID(userID); err != nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	if err := ph.Users.SetUserAlbumPermissions(userID, albumID, req.Permissions); err != nil {
		log.Printf("Error setting album permissions for user %d on album %d: %v", userID, albumID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to set permissions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "album_id": albumID, "permissions": req.Permissions})
}

// GetGrants returns the target user's permission list for the album. A user
// with no grant row gets an empty list, not a 404.
func (ph *AlbumPermissionHandler) GetGrants(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid album ID"})
		return
	}
	userID, err := grantUserIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid user ID"})
		return
	}

	grant, err := ph.Users.GetUserAlbumPermission(userID, albumID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "album_id": albumID, "permissions": []string{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "album_id": albumID, "permissions": grant.Permissions})
}

// DeleteGrants removes the target user's grant row for the album.
func (ph *AlbumPermissionHandler) DeleteGrants(w http.ResponseWriter, r *http.Request) {
	albumID, err := albumIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid album ID"})
		return
	}
	userID, err := grantUserIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid user ID"})
		return
	}

	if err := ph.Users.DeleteUserAlbumPermission(userID, albumID); err != nil {
		log.Printf("Error deleting album permissions for user %d on album %d: %v", userID, albumID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to delete permissions")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
