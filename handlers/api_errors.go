package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/camden-git/yearbooksync/repository"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

// writeRepositoryError maps repository errors onto the standardized error
// response. Business rule violations become 409s so clients can surface them
// without a re-sync; unknown errors stay generic.
func writeRepositoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		WriteAPIError(w, http.StatusNotFound, "not_found", "The requested resource does not exist")
	case errors.Is(err, repository.ErrRequestNotPending):
		WriteAPIError(w, http.StatusConflict, "request_not_pending", err.Error())
	case errors.Is(err, repository.ErrDuplicateAccess):
		WriteAPIError(w, http.StatusConflict, "duplicate_access", err.Error())
	case errors.Is(err, repository.ErrCapacityExceeded):
		WriteAPIError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, repository.ErrCapacityBelowCount):
		WriteAPIError(w, http.StatusConflict, "capacity_below_count", err.Error())
	case errors.Is(err, repository.ErrClassAlbumMismatch):
		WriteAPIError(w, http.StatusConflict, "class_album_mismatch", err.Error())
	case errors.Is(err, repository.ErrInviteExpired):
		WriteAPIError(w, http.StatusForbidden, "invite_expired", err.Error())
	default:
		log.Printf("Unhandled repository error: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
	}
}
