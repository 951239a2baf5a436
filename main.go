package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/camden-git/yearbooksync/config"
	"github.com/camden-git/yearbooksync/database"
	"github.com/camden-git/yearbooksync/handlers"
	"github.com/camden-git/yearbooksync/permissions"
	"github.com/camden-git/yearbooksync/realtime"
	"github.com/camden-git/yearbooksync/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	gormDB, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(gormDB); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to obtain raw database handle: %v", err)
	}
	defer sqlDB.Close()

	hub := realtime.NewHub()
	go hub.Run()

	albumRepo := repository.NewAlbumRepository(gormDB)
	classRepo := repository.NewClassRepository(gormDB, hub)
	accessRepo := repository.NewAccessRepository(gormDB, hub)
	requestRepo := repository.NewRequestRepository(gormDB, hub)
	inviteRepo := repository.NewGormInviteRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)
	viewRepo := repository.NewGormViewStateRepository(gormDB)

	engineStore := repository.NewEngineStore(albumRepo, classRepo, accessRepo, requestRepo, inviteRepo, sqlDB)

	jwtSecret := []byte(cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(userRepo, jwtSecret)
	albumHandler := &handlers.AlbumHandler{Albums: albumRepo, Invites: inviteRepo, Cfg: cfg}
	classHandler := &handlers.ClassHandler{Classes: classRepo}
	requestHandler := &handlers.RequestHandler{Requests: requestRepo, Accesses: accessRepo, Invites: inviteRepo}
	memberHandler := &handlers.MemberHandler{DB: sqlDB, Albums: albumRepo, Accesses: accessRepo}
	syncHandler := handlers.NewSyncHandler(engineStore, hub, viewRepo, albumRepo, cfg)
	albumPermHandler := &handlers.AlbumPermissionHandler{Users: userRepo}

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Sync debounce: %v, suppress window: %v", cfg.Debounce, cfg.SuppressWindow)

	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	authed := func(h http.HandlerFunc) http.Handler {
		return handlers.AuthMiddleware(jwtSecret, userRepo, h)
	}
	albumScoped := func(perm string, h http.HandlerFunc) http.Handler {
		return handlers.AuthMiddleware(jwtSecret, userRepo,
			handlers.RequireAlbumPermission(albumRepo, perm, h))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Method("GET", "/auth/me", authed(authHandler.CurrentUser))

		r.Method("GET", "/permissions", authed(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			handlers.WritePermissionGroups(w)
		}))

		// join requests enter through an invite token, not an album id
		r.Method("POST", "/join/{token}", authed(requestHandler.SubmitJoinRequest))

		r.Route("/albums", func(r chi.Router) {
			r.Method("POST", "/", authed(albumHandler.CreateAlbum))
			r.Method("GET", "/", authed(albumHandler.ListAlbums))

			r.Route("/{albumID}", func(r chi.Router) {
				r.Method("GET", "/", albumScoped(permissions.AlbumView, albumHandler.GetAlbum))
				r.Method("PUT", "/", albumScoped(permissions.AlbumManageSettings, albumHandler.UpdateAlbum))
				r.Method("DELETE", "/", albumScoped(permissions.AlbumManageSettings, albumHandler.DeleteAlbum))
				r.Method("PUT", "/capacity", albumScoped(permissions.AlbumManageSettings, albumHandler.SetCapacity))
				r.Method("PUT", "/sort_order", albumScoped(permissions.AlbumManageSettings, albumHandler.UpdateSortOrder))
				r.Method("POST", "/invite", albumScoped(permissions.AlbumManageSettings, albumHandler.RotateInvite))
				r.Method("GET", "/invite", albumScoped(permissions.AlbumManageSettings, albumHandler.GetInvite))

				r.Method("GET", "/classes", albumScoped(permissions.AlbumView, classHandler.ListClasses))
				r.Method("POST", "/classes", albumScoped(permissions.AlbumManageClasses, classHandler.CreateClass))

				r.Method("GET", "/requests", albumScoped(permissions.AlbumManageRequests, requestHandler.ListPending))
				r.Method("GET", "/members", albumScoped(permissions.AlbumView, memberHandler.ListMembers))

				r.Route("/permissions/{userID}", func(r chi.Router) {
					r.Method("GET", "/", albumScoped(permissions.AlbumManageSettings, albumPermHandler.GetGrants))
					r.Method("PUT", "/", albumScoped(permissions.AlbumManageSettings, albumPermHandler.SetGrants))
					r.Method("DELETE", "/", albumScoped(permissions.AlbumManageSettings, albumPermHandler.DeleteGrants))
				})

				r.Method("GET", "/sync", albumScoped(permissions.AlbumView, syncHandler.Serve))
			})
		})

		// entity-addressed routes resolve their target back to its album
		// before the permission check
		classScoped := func(perm string, h http.HandlerFunc) http.Handler {
			return handlers.AuthMiddleware(jwtSecret, userRepo,
				handlers.RequireClassPermission(albumRepo, classRepo, perm, h))
		}
		requestScoped := func(perm string, h http.HandlerFunc) http.Handler {
			return handlers.AuthMiddleware(jwtSecret, userRepo,
				handlers.RequireRequestPermission(albumRepo, requestRepo, perm, h))
		}
		memberScoped := func(perm string, h http.HandlerFunc) http.Handler {
			return handlers.AuthMiddleware(jwtSecret, userRepo,
				handlers.RequireMemberPermission(albumRepo, accessRepo, perm, h))
		}

		r.Route("/classes/{classID}", func(r chi.Router) {
			r.Method("PUT", "/", classScoped(permissions.AlbumManageClasses, classHandler.UpdateClass))
			r.Method("DELETE", "/", classScoped(permissions.AlbumManageClasses, classHandler.DeleteClass))
		})

		r.Route("/requests/{requestID}", func(r chi.Router) {
			r.Method("POST", "/approve", requestScoped(permissions.AlbumManageRequests, requestHandler.ApproveRequest))
			r.Method("POST", "/reject", requestScoped(permissions.AlbumManageRequests, requestHandler.RejectRequest))
		})

		r.Route("/members/{accessID}", func(r chi.Router) {
			r.Method("PUT", "/", memberScoped(permissions.AlbumManageMembers, memberHandler.UpdateProfile))
			r.Method("DELETE", "/", memberScoped(permissions.AlbumManageMembers, memberHandler.RemoveMember))
		})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("FATAL: Server error: %v", err)
	}
}
