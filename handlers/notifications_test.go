package handlers_test

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confique.app/backend/models"
)

func insertNotification(t *testing.T, db *sql.DB, id, recipientID, notifType string, age time.Duration) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO notifications (id, message, type, recipient_id, reporter_id,
		                           post_id, report_reason, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, "msg "+id, notifType, recipientID, "", "", "", false,
		time.Now().Add(-age).UTC())
	require.NoError(t, err)
}

func TestNotificationWindow(t *testing.T) {
	db, h := newTestServer(t)
	token, userID := signup(t, h, "Alice", "alice@campus.edu")

	insertNotification(t, db, "fresh", userID, models.NotifInfo, time.Hour)
	insertNotification(t, db, "stale", userID, models.NotifInfo, 10*24*time.Hour)

	w := doJSON(t, h, http.MethodGet, "/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var notifications []models.Notification
	decodeJSON(t, w, &notifications)
	require.Len(t, notifications, 1)
	assert.Equal(t, "fresh", notifications[0].ID)
}

func TestNotificationCapAndOrder(t *testing.T) {
	db, h := newTestServer(t)
	token, userID := signup(t, h, "Alice", "alice@campus.edu")

	for i := 0; i < 55; i++ {
		insertNotification(t, db, fmt.Sprintf("n%03d", i), userID, models.NotifInfo,
			time.Duration(i)*time.Minute)
	}

	w := doJSON(t, h, http.MethodGet, "/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var notifications []models.Notification
	decodeJSON(t, w, &notifications)
	require.Len(t, notifications, 50)
	// Newest first: n000 is the most recent.
	assert.Equal(t, "n000", notifications[0].ID)
	assert.Equal(t, "n049", notifications[49].ID)
}

func TestNotificationVisibility(t *testing.T) {
	db, h := newTestServer(t)
	aliceToken, aliceID := signup(t, h, "Alice", "alice@campus.edu")
	adminToken, adminID := signup(t, h, "Root", "root@campus.edu")
	makeAdmin(t, db, adminID)

	insertNotification(t, db, "for-alice", aliceID, models.NotifInfo, time.Hour)
	insertNotification(t, db, "a-report", "", models.NotifReport, time.Hour)

	// Alice sees her own notification, not the report.
	w := doJSON(t, h, http.MethodGet, "/notifications", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var own []models.Notification
	decodeJSON(t, w, &own)
	require.Len(t, own, 1)
	assert.Equal(t, "for-alice", own[0].ID)

	// The admin sees the recipient-less report.
	w = doJSON(t, h, http.MethodGet, "/notifications", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var adminView []models.Notification
	decodeJSON(t, w, &adminView)
	require.Len(t, adminView, 1)
	assert.Equal(t, "a-report", adminView[0].ID)
}

func TestNotificationCleanup(t *testing.T) {
	db, h := newTestServer(t)
	_, userID := signup(t, h, "Alice", "alice@campus.edu")

	insertNotification(t, db, "ancient", userID, models.NotifInfo, 70*24*time.Hour)
	insertNotification(t, db, "recent", userID, models.NotifInfo, 30*24*time.Hour)

	w := doJSON(t, h, http.MethodGet, "/cron/cleanup", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]int64
	decodeJSON(t, w, &resp)
	assert.Equal(t, int64(1), resp["deleted"])

	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM notifications WHERE id = $1`, "ancient"))
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM notifications WHERE id = $1`, "recent"))
}
