package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/camden-git/yearbooksync/models"
	"github.com/camden-git/yearbooksync/repository"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// UserContextKey is the key used to store the user object in the request context.
	UserContextKey ContextKey = "user"
)

// AuthMiddleware creates a middleware handler for JWT authentication.
// It verifies the token and, if valid, fetches the user and adds them to the request context.
func AuthMiddleware(jwtSecret []byte, userRepo repository.UserRepository, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				http.Error(w, "Authorization header format must be Bearer {token}", http.StatusUnauthorized)
				return
			}
			tokenString = parts[1]
		} else {
			// websocket clients can't set headers, so the sync endpoint
			// passes the token as a query parameter instead
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 32)
		if err != nil {
			http.Error(w, "Invalid user ID in token", http.StatusUnauthorized)
			return
		}

		user, err := userRepo.GetByID(uint(userID))
		if err != nil {
			// the user may have been deleted after the token was issued
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext retrieves the authenticated user placed by AuthMiddleware.
func userFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// RequireGlobalPermission is a middleware that checks if the authenticated user has
// a specific global permission. It should be used after AuthMiddleware.
func RequireGlobalPermission(requiredPermission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r)
		if !ok {
			http.Error(w, "User not found in context", http.StatusInternalServerError)
			return
		}

		if !user.HasGlobalPermission(requiredPermission) {
			http.Error(w, fmt.Sprintf("Forbidden: requires global permission '%s'", requiredPermission), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAlbumPermission checks that the authenticated user may perform an
// album-scoped action. Album owners always pass; other users need the named
// permission granted for the album in the {albumID} route parameter.
func RequireAlbumPermission(albumRepo repository.AlbumRepositoryInterface, requiredPermission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r)
		if !ok {
			http.Error(w, "User not found in context", http.StatusInternalServerError)
			return
		}

		albumID, err := strconv.ParseUint(chi.URLParam(r, "albumID"), 10, 32)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_album_id", "Album ID must be a number")
			return
		}

		if !checkAlbumGrant(w, albumRepo, user, uint(albumID), requiredPermission) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkAlbumGrant applies the owner-or-grant rule and writes the failure
// response itself. Returns true when the user may proceed.
func checkAlbumGrant(w http.ResponseWriter, albumRepo repository.AlbumRepositoryInterface, user *models.User, albumID uint, requiredPermission string) bool {
	album, err := albumRepo.GetByID(albumID)
	if err != nil {
		writeRepositoryError(w, err)
		return false
	}
	if album.OwnerUserID != user.ID && !user.HasAlbumPermission(albumID, requiredPermission) {
		http.Error(w, fmt.Sprintf("Forbidden: requires album permission '%s'", requiredPermission), http.StatusForbidden)
		return false
	}
	return true
}

// RequireClassPermission guards routes addressed by a {classID} rather than
// an album id: the class resolves to its album, then the owner-or-grant
// rule applies.
func RequireClassPermission(albumRepo repository.AlbumRepositoryInterface, classRepo repository.ClassRepositoryInterface, requiredPermission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r)
		if !ok {
			http.Error(w, "User not found in context", http.StatusInternalServerError)
			return
		}
		classID, err := strconv.ParseUint(chi.URLParam(r, "classID"), 10, 32)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_class_id", "Class ID must be a number")
			return
		}
		class, err := classRepo.GetByID(uint(classID))
		if err != nil {
			writeRepositoryError(w, err)
			return
		}
		if !checkAlbumGrant(w, albumRepo, user, class.AlbumID, requiredPermission) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRequestPermission guards routes addressed by a {requestID},
// resolving the join request to its album first.
func RequireRequestPermission(albumRepo repository.AlbumRepositoryInterface, requestRepo repository.RequestRepositoryInterface, requiredPermission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r)
		if !ok {
			http.Error(w, "User not found in context", http.StatusInternalServerError)
			return
		}
		requestID, err := strconv.ParseUint(chi.URLParam(r, "requestID"), 10, 32)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_request_id", "Request ID must be a number")
			return
		}
		req, err := requestRepo.GetByID(uint(requestID))
		if err != nil {
			writeRepositoryError(w, err)
			return
		}
		if !checkAlbumGrant(w, albumRepo, user, req.AlbumID, requiredPermission) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMemberPermission guards routes addressed by an {accessID}. Members
// always pass for their own roster entry; anyone else resolves through the
// owner-or-grant rule on the entry's album.
func RequireMemberPermission(albumRepo repository.AlbumRepositoryInterface, accessRepo repository.AccessRepositoryInterface, requiredPermission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r)
		if !ok {
			http.Error(w, "User not found in context", http.StatusInternalServerError)
			return
		}
		accessID, err := strconv.ParseUint(chi.URLParam(r, "accessID"), 10, 32)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_access_id", "Access ID must be a number")
			return
		}
		access, err := accessRepo.GetByID(uint(accessID))
		if err != nil {
			writeRepositoryError(w, err)
			return
		}
		if access.UserID != user.ID && !checkAlbumGrant(w, albumRepo, user, access.AlbumID, requiredPermission) {
			return
		}
		next.ServeHTTP(w, r)
	})
}
