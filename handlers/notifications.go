package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"confique.app/backend/middleware"
	"confique.app/backend/models"
)

// Listing keeps roughly the last five days; the retention sweep removes
// anything older than sixty.
const (
	notificationWindow    = 5 * 24 * time.Hour
	notificationRetention = 60 * 24 * time.Hour
)

// notify stores a workflow notification. Failures are logged and
// swallowed so they never fail the caller's primary operation.
func notify(db *sql.DB, n models.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT INTO notifications (id, message, type, recipient_id, reporter_id,
		                           post_id, report_reason, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.Message, n.Type, n.RecipientID, n.ReporterID,
		n.PostID, n.ReportReason, n.IsRead, n.CreatedAt)
	if err != nil {
		log.Printf("notify: failed to store %s notification: %v", n.Type, err)
	}
}

// GetNotifications returns the caller's recent notifications, newest
// first, capped at 50 and windowed to the last five days. Admins also
// see report notifications, which have no recipient.
func GetNotifications(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)
		cutoff := time.Now().Add(-notificationWindow).UTC()

		query := `
			SELECT id, message, type, COALESCE(recipient_id, ''), COALESCE(reporter_id, ''),
			       COALESCE(post_id, ''), COALESCE(report_reason, ''), is_read, created_at
			FROM notifications
			WHERE created_at >= $1 AND `
		if middleware.IsAdmin(db, userID) {
			query += `(recipient_id = $2 OR type = 'report')`
		} else {
			query += `recipient_id = $2`
		}
		query += ` ORDER BY created_at DESC LIMIT 50`

		rows, err := db.Query(query, cutoff, userID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("GetNotifications error:", err)
			return
		}
		defer rows.Close()

		notifications := []models.Notification{}
		for rows.Next() {
			var n models.Notification
			if err := rows.Scan(&n.ID, &n.Message, &n.Type, &n.RecipientID, &n.ReporterID,
				&n.PostID, &n.ReportReason, &n.IsRead, &n.CreatedAt); err != nil {
				http.Error(w, "Error scanning notifications", http.StatusInternalServerError)
				log.Println("GetNotifications scan error:", err)
				return
			}
			notifications = append(notifications, n)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating notifications", http.StatusInternalServerError)
			log.Println("GetNotifications rows error:", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(notifications)
	}
}

// RunNotificationCleanup deletes notifications past the retention
// period. Shared by the HTTP trigger and the cmd/cleanup job binary.
func RunNotificationCleanup(db *sql.DB) (int64, error) {
	cutoff := time.Now().Add(-notificationRetention).UTC()
	result, err := db.Exec(`DELETE FROM notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CleanupNotifications is the endpoint an external scheduler hits to run
// the retention sweep.
func CleanupNotifications(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := RunNotificationCleanup(db)
		if err != nil {
			http.Error(w, "Cleanup failed", http.StatusInternalServerError)
			log.Println("CleanupNotifications error:", err)
			return
		}

		log.Printf("Notification cleanup removed %d records", deleted)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int64{
			"deleted": deleted,
		})
	}
}
