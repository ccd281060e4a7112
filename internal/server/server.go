// Package server wires the stores, services and handlers into one HTTP
// surface.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hmansour/medilabel/internal/audit"
	"github.com/hmansour/medilabel/internal/backup"
	"github.com/hmansour/medilabel/internal/basket"
	"github.com/hmansour/medilabel/internal/config"
	"github.com/hmansour/medilabel/internal/gateway"
	"github.com/hmansour/medilabel/internal/group"
	"github.com/hmansour/medilabel/internal/handler"
	"github.com/hmansour/medilabel/internal/label"
	"github.com/hmansour/medilabel/internal/metrics"
	"github.com/hmansour/medilabel/internal/middleware"
	"github.com/hmansour/medilabel/internal/printing"
	"github.com/hmansour/medilabel/internal/store"
	ws "github.com/hmansour/medilabel/internal/websocket"
)

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH    *handler.AuthHandler
	basketH  *handler.BasketHandler
	patientH *handler.PatientHandler
	drugH    *handler.DrugHandler
	groupH   *handler.GroupHandler
	auditH   *handler.AuditHandler
	printH   *handler.PrintHandler
	adminH   *handler.AdminHandler

	sessions      *store.SessionStore
	basketStore   *basket.Store
	backupManager *backup.Manager
	loginLimiter  *middleware.LoginLimiter
	registry      *prometheus.Registry
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func New(db *sql.DB, gw *gateway.Client, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger)

	snapshotStore := store.NewSnapshotStore(db)
	auditStore := store.NewAuditStore(db)
	backupStore := store.NewBackupStore(db)
	sessionStore := store.NewSessionStore(db, cfg.SessionTTL)

	basketStore := basket.NewStore(snapshotStore, logger)
	if err := basketStore.Load(); err != nil {
		return nil, err
	}

	groupEngine := group.NewEngine(gw, logger)
	generator := label.NewGenerator(cfg.PharmacyName)
	recorder := audit.NewRecorder(auditStore, logger)
	printer := printing.NewOrchestrator(basketStore, generator, recorder, logger)

	backupMgr := backup.NewManager(db, backupStore, hub, backup.Config{
		Dir:        cfg.BackupDir,
		Passphrase: cfg.BackupPassphrase,
		Keep:       cfg.BackupKeep,
		DailyAt:    cfg.BackupAt,
	}, logger)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	return &Server{
		db:  db,
		hub: hub,

		authH:    handler.NewAuthHandler(gw, sessionStore, logger),
		basketH:  handler.NewBasketHandler(basketStore, groupEngine, hub, logger),
		patientH: handler.NewPatientHandler(gw, sessionStore, logger),
		drugH:    handler.NewDrugHandler(gw, basketStore, hub, logger),
		groupH:   handler.NewGroupHandler(gw, logger),
		auditH:   handler.NewAuditHandler(auditStore, logger),
		printH:   handler.NewPrintHandler(printer, m, hub, logger),
		adminH:   handler.NewAdminHandler(gw, auditStore, backupStore, backupMgr, logger),

		sessions:      sessionStore,
		basketStore:   basketStore,
		backupManager: backupMgr,
		loginLimiter:  middleware.NewLoginLimiter(cfg.LoginRateInterval, cfg.LoginRateBurst),
		registry:      registry,
		metrics:       m,
		logger:        logger,
	}, nil
}

// SessionStore exposes the session store for the cleanup loop.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessions
}

func (s *Server) LoginLimiter() *middleware.LoginLimiter {
	return s.loginLimiter
}

func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.With(s.loginLimiter.Limit).Post("/login", s.authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessions))

			r.Post("/logout", s.authH.Logout)
			r.Get("/me", s.authH.Me)

			r.Route("/basket", func(r chi.Router) {
				r.Get("/", s.basketH.Get)
				r.Post("/items", s.basketH.AddItem)
				r.Post("/groups/{groupID}", s.basketH.AddGroup)
				r.Put("/items/{itemID}/quantity", s.basketH.UpdateQuantity)
				r.Put("/items/{itemID}/expiry", s.basketH.SetExpiry)
				r.Delete("/items/{itemID}", s.basketH.Remove)
				r.Delete("/", s.basketH.Clear)
				r.Post("/duplicate", s.basketH.Duplicate)
				r.Post("/reset-expiry", s.basketH.ResetExpiry)
			})

			r.Post("/print", s.printH.Print)

			r.Route("/audit", func(r chi.Router) {
				r.Get("/", s.auditH.List)
				r.Get("/export", s.auditH.Export)
				r.With(middleware.RequireAdmin).Delete("/", s.auditH.Clear)
			})

			r.Route("/patients", func(r chi.Router) {
				r.Get("/", s.patientH.List)
				r.Get("/search", s.patientH.Search)
				r.Post("/select", s.patientH.Select)
				r.Post("/clear", s.patientH.ClearActive)
				r.Post("/", s.patientH.Create)
				r.Put("/{patientID}/{year}", s.patientH.Update)
				r.Delete("/{patientID}/{year}", s.patientH.Delete)
			})

			r.Route("/medications", func(r chi.Router) {
				r.Get("/", s.drugH.List)
				r.With(middleware.RequireDrugManager).Post("/custom", s.drugH.AddCustom)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", s.groupH.List)
				r.Get("/{groupID}", s.groupH.Details)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/", s.groupH.Create)
					r.Put("/{groupID}", s.groupH.Update)
					r.Delete("/{groupID}", s.groupH.Delete)
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/users", s.adminH.Users)
				r.Post("/users", s.adminH.CreateUser)
				r.Put("/users/{userID}", s.adminH.UpdateUser)
				r.Delete("/users/{userID}", s.adminH.DeleteUser)
				r.Get("/statistics", s.adminH.Statistics)
				r.Get("/recent-activity", s.adminH.RecentActivity)
				r.Get("/backups", s.adminH.ListBackups)
				r.Post("/backups", s.adminH.RunBackup)
			})
		})
	})

	r.Get("/ws", ws.Handler(s.hub, s.logger))

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
