package routes

import (
	"database/sql"

	"github.com/gorilla/mux"

	"confique.app/backend/handlers"
	"confique.app/backend/middleware"
)

func CreateNotificationRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	router.Handle("/notifications", middleware.RequireAuth(handlers.GetNotifications(db))).Methods("GET")

	// Hit by an external scheduler, not by end users.
	router.HandleFunc("/cron/cleanup", handlers.CleanupNotifications(db)).Methods("GET")

	return router
}
