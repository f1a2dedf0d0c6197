package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"confique.app/backend/database"
	"confique.app/backend/middleware"
	"confique.app/backend/models"
)

func likeCount(db *sql.DB, postID string) int {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&n); err != nil {
		log.Println("likeCount error:", err)
	}
	return n
}

// LikePost records a like. Liking a post twice is a conflict; the
// UNIQUE(post_id, user_id) index backs the check under concurrency.
func LikePost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := mux.Vars(r)["id"]
		userID := middleware.UserID(r)

		p, err := loadPost(db, postID)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Post not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("LikePost error:", err)
			}
			return
		}

		var exists bool
		err = db.QueryRow(`SELECT EXISTS(SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`,
			postID, userID).Scan(&exists)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("LikePost check error:", err)
			return
		}
		if exists {
			http.Error(w, "Post already liked", http.StatusConflict)
			return
		}

		_, err = db.Exec(`INSERT INTO likes (id, post_id, user_id, created_at) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), postID, userID, time.Now().UTC())
		if err != nil {
			if database.IsUniqueViolation(err) {
				http.Error(w, "Post already liked", http.StatusConflict)
				return
			}
			http.Error(w, "Failed to like post", http.StatusInternalServerError)
			log.Println("LikePost insert error:", err)
			return
		}

		if p.AuthorID != userID {
			var likerName string
			if err := db.QueryRow(`SELECT name FROM users WHERE id = $1`, userID).Scan(&likerName); err != nil {
				likerName = "Someone"
			}
			notify(db, models.Notification{
				Type:        models.NotifLike,
				RecipientID: p.AuthorID,
				PostID:      p.ID,
				Message:     fmt.Sprintf("%s liked %q", likerName, p.Title),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"liked":      true,
			"like_count": likeCount(db, postID),
		})
	}
}

// UnlikePost removes a like. Unliking a post that was never liked is a
// bad request.
func UnlikePost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := mux.Vars(r)["id"]
		userID := middleware.UserID(r)

		result, err := db.Exec(`DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
		if err != nil {
			http.Error(w, "Failed to unlike post", http.StatusInternalServerError)
			log.Println("UnlikePost error:", err)
			return
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			http.Error(w, "Post not liked", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"liked":      false,
			"like_count": likeCount(db, postID),
		})
	}
}

// CreateComment appends a comment to a post's thread, snapshotting the
// commenter's name and avatar.
func CreateComment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := mux.Vars(r)["id"]
		userID := middleware.UserID(r)

		p, err := loadPost(db, postID)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Post not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("CreateComment error:", err)
			}
			return
		}

		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			http.Error(w, "Comment text is required", http.StatusBadRequest)
			return
		}

		var userName, userAvatar string
		err = db.QueryRow(`SELECT name, COALESCE(avatar, '') FROM users WHERE id = $1`, userID).
			Scan(&userName, &userAvatar)
		if err != nil {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}

		comment := models.Comment{
			ID:         uuid.NewString(),
			PostID:     postID,
			UserID:     userID,
			UserName:   userName,
			UserAvatar: userAvatar,
			Text:       req.Text,
			CreatedAt:  time.Now().UTC(),
		}

		_, err = db.Exec(`
			INSERT INTO comments (id, post_id, user_id, user_name, user_avatar, text, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			comment.ID, comment.PostID, comment.UserID, comment.UserName,
			comment.UserAvatar, comment.Text, comment.CreatedAt)
		if err != nil {
			http.Error(w, "Failed to create comment", http.StatusInternalServerError)
			log.Println("CreateComment insert error:", err)
			return
		}

		if p.AuthorID != userID {
			notify(db, models.Notification{
				Type:        models.NotifComment,
				RecipientID: p.AuthorID,
				PostID:      p.ID,
				Message:     fmt.Sprintf("%s commented on %q", userName, p.Title),
			})
		}

		var commentCount int
		db.QueryRow(`SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&commentCount)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"comment":       comment,
			"comment_count": commentCount,
		})
	}
}

// GetPostComments lists a post's comments in thread order.
func GetPostComments(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := mux.Vars(r)["id"]

		rows, err := db.Query(`
			SELECT id, post_id, user_id, user_name, COALESCE(user_avatar, ''), text, created_at
			FROM comments
			WHERE post_id = $1
			ORDER BY created_at ASC`,
			postID)
		if err != nil {
			http.Error(w, "Failed to fetch comments", http.StatusInternalServerError)
			log.Println("GetPostComments error:", err)
			return
		}
		defer rows.Close()

		comments := []models.Comment{}
		for rows.Next() {
			var c models.Comment
			if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.UserName,
				&c.UserAvatar, &c.Text, &c.CreatedAt); err != nil {
				http.Error(w, "Error scanning comments", http.StatusInternalServerError)
				log.Println("GetPostComments scan error:", err)
				return
			}
			comments = append(comments, c)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(comments)
	}
}

// ReportPost files a report against a post. The post itself is never
// mutated; the report lands as an admin-facing notification carrying the
// reporter, the post and the reason.
func ReportPost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := mux.Vars(r)["id"]
		userID := middleware.UserID(r)

		p, err := loadPost(db, postID)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Post not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("ReportPost error:", err)
			}
			return
		}

		var req struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Reason) == "" {
			http.Error(w, "Report reason is required", http.StatusBadRequest)
			return
		}

		var reporterName string
		if err := db.QueryRow(`SELECT name FROM users WHERE id = $1`, userID).Scan(&reporterName); err != nil {
			reporterName = "Someone"
		}

		notify(db, models.Notification{
			Type:         models.NotifReport,
			ReporterID:   userID,
			PostID:       p.ID,
			ReportReason: req.Reason,
			Message:      fmt.Sprintf("%s reported %q: %s", reporterName, p.Title, req.Reason),
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "Report submitted",
		})
	}
}
