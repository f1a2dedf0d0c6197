package routes

import (
	"database/sql"

	"github.com/gorilla/mux"

	"confique.app/backend/handlers"
	"confique.app/backend/middleware"
)

func CreatePostRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	router.HandleFunc("/posts", handlers.GetPosts(db)).Methods("GET")
	router.Handle("/posts", middleware.RequireAuth(handlers.CreatePost(db))).Methods("POST")
	router.HandleFunc("/posts/{id}", handlers.GetPost(db)).Methods("GET")
	router.Handle("/posts/{id}", middleware.RequireAuth(handlers.UpdatePost(db))).Methods("PUT")
	router.Handle("/posts/{id}", middleware.RequireAuth(handlers.DeletePost(db))).Methods("DELETE")

	router.Handle("/posts/{id}/comments", middleware.RequireAuth(handlers.CreateComment(db))).Methods("POST")
	router.HandleFunc("/posts/{id}/comments", handlers.GetPostComments(db)).Methods("GET")
	router.Handle("/posts/{id}/like", middleware.RequireAuth(handlers.LikePost(db))).Methods("PUT")
	router.Handle("/posts/{id}/unlike", middleware.RequireAuth(handlers.UnlikePost(db))).Methods("PUT")
	router.Handle("/posts/{id}/report", middleware.RequireAuth(handlers.ReportPost(db))).Methods("POST")

	return router
}
