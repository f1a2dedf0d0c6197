package routes

import (
	"database/sql"

	"github.com/gorilla/mux"

	"confique.app/backend/handlers"
	"confique.app/backend/middleware"
)

func CreateUserRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	admin := middleware.RequireAdmin(db)

	router.HandleFunc("/users/signup", handlers.Signup(db)).Methods("POST")
	router.HandleFunc("/users/login", handlers.Login(db)).Methods("POST")
	router.Handle("/users/me", middleware.RequireAuth(handlers.Me(db))).Methods("GET")

	router.Handle("/users/register-event/{eventId}", middleware.RequireAuth(handlers.RegisterForEvent(db))).Methods("POST")
	router.Handle("/users/my-events-registrations", middleware.RequireAuth(handlers.MyEventsRegistrations(db))).Methods("GET")
	router.Handle("/users/my-events/registration-counts", middleware.RequireAuth(handlers.MyRegistrationCounts(db))).Methods("GET")
	router.Handle("/users/export-registrations/{eventId}", middleware.RequireAuth(handlers.ExportRegistrations(db))).Methods("GET")

	router.Handle("/users/admin/pending-events", admin(handlers.GetPendingEvents(db))).Methods("GET")
	router.Handle("/users/admin/approve-event/{id}", admin(handlers.ApproveEvent(db))).Methods("PUT")
	router.Handle("/users/admin/reject-event/{id}", admin(handlers.RejectEvent(db))).Methods("DELETE")

	return router
}
