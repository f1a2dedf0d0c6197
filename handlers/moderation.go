package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"confique.app/backend/models"
	"confique.app/backend/services"
)

// GetPendingEvents lists event-type posts waiting for approval, oldest
// first so the queue drains in submission order.
func GetPendingEvents(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query(`
			SELECT `+postColumns+`
			FROM posts p
			WHERE p.status = $1 AND p.type IN ('event', 'culturalEvent')
			ORDER BY p.created_at ASC`,
			models.StatusPending)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("GetPendingEvents error:", err)
			return
		}
		defer rows.Close()

		pending := []models.Post{}
		for rows.Next() {
			var p models.Post
			if err := scanPost(rows, &p); err != nil {
				http.Error(w, "Error scanning posts", http.StatusInternalServerError)
				log.Println("GetPendingEvents scan error:", err)
				return
			}
			pending = append(pending, p)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating posts", http.StatusInternalServerError)
			log.Println("GetPendingEvents rows error:", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(pending)
	}
}

// ApproveEvent moves a pending event to approved. Only event-type posts
// go through moderation; anything else is a bad request.
func ApproveEvent(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		p, err := loadPost(db, id)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Event not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("ApproveEvent error:", err)
			}
			return
		}

		if !models.IsEventType(p.Type) {
			http.Error(w, "Only events require approval", http.StatusBadRequest)
			return
		}
		if p.Status != models.StatusPending {
			http.Error(w, "Event is not pending approval", http.StatusBadRequest)
			return
		}

		_, err = db.Exec(`UPDATE posts SET status = $1 WHERE id = $2`, models.StatusApproved, id)
		if err != nil {
			http.Error(w, "Failed to approve event", http.StatusInternalServerError)
			log.Println("ApproveEvent update error:", err)
			return
		}

		notify(db, models.Notification{
			Type:        models.NotifSuccess,
			RecipientID: p.AuthorID,
			PostID:      p.ID,
			Message:     fmt.Sprintf("Your event %q has been approved and is now live", p.Title),
		})

		p.Status = models.StatusApproved
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

// RejectEvent removes a pending or approved event entirely; rejection is
// deletion, not a status. The owner is notified before the cascade runs
// so the notice is not swept away with the post's other notifications.
func RejectEvent(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		p, err := loadPost(db, id)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Event not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("RejectEvent error:", err)
			}
			return
		}

		if !models.IsEventType(p.Type) {
			http.Error(w, "Only events can be rejected", http.StatusBadRequest)
			return
		}

		// No PostID on purpose: the cascade below deletes notifications
		// referencing the post.
		notify(db, models.Notification{
			Type:        models.NotifWarning,
			RecipientID: p.AuthorID,
			Message:     fmt.Sprintf("Your event %q was rejected and has been removed", p.Title),
		})

		if err := deletePostCascade(db, id); err != nil {
			http.Error(w, "Failed to reject event", http.StatusInternalServerError)
			log.Println("RejectEvent cascade error:", err)
			return
		}

		go services.PurgeImages(p.ImageRefs())

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": "Event rejected and removed",
		})
	}
}
