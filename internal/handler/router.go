package handler

import (
	"github.com/gorilla/mux"

	"github.com/Dan9191/credit-analytics/internal/config"
	"github.com/Dan9191/credit-analytics/internal/middleware"
)

// NewRouter wires the public and JWT-protected routes
func NewRouter(h *Handler, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/login", h.Login).Methods("POST")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/datasets/generate", h.GenerateDataset).Methods("POST")
	authRouter.HandleFunc("/datasets/upload", h.UploadDataset).Methods("POST")
	authRouter.HandleFunc("/datasets/current", h.CurrentDataset).Methods("GET")
	authRouter.HandleFunc("/analytics/kpis", h.KPIs).Methods("POST")
	authRouter.HandleFunc("/analytics/charts", h.ListCharts).Methods("GET")
	authRouter.HandleFunc("/analytics/charts/{kind}", h.Chart).Methods("POST")
	authRouter.HandleFunc("/analytics/correlations", h.Correlations).Methods("POST")
	authRouter.HandleFunc("/key-rate", h.KeyRate).Methods("GET")
	return r
}
