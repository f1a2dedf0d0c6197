package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confique.app/backend/models"
)

func TestCreateConfessionApprovedImmediately(t *testing.T) {
	_, h := newTestServer(t)
	token, _ := signup(t, h, "Alice", "alice@campus.edu")

	p := createPost(t, h, token, map[string]any{
		"type":  "confession",
		"title": "Midnight thoughts",
		"body":  "The library coffee machine is haunted",
	})

	assert.Equal(t, models.StatusApproved, p.Status)
	assert.Nil(t, p.Event)
	assert.Nil(t, p.Cultural)
}

func TestCreateEventStartsPending(t *testing.T) {
	_, h := newTestServer(t)
	token, _ := signup(t, h, "Alice", "alice@campus.edu")

	p := createPost(t, h, token, map[string]any{
		"type":  "event",
		"title": "Hackathon",
		"body":  "24h of code",
		"event": map[string]any{
			"location":          "Main Hall",
			"price":             0,
			"registration_open": true,
		},
	})

	assert.Equal(t, models.StatusPending, p.Status)
	require.NotNil(t, p.Event)
	assert.Equal(t, "Main Hall", p.Event.Location)
}

func TestPendingEventHiddenFromNonAdmins(t *testing.T) {
	db, h := newTestServer(t)
	token, _ := signup(t, h, "Alice", "alice@campus.edu")
	adminToken, adminID := signup(t, h, "Root", "root@campus.edu")
	makeAdmin(t, db, adminID)

	createPost(t, h, token, map[string]any{
		"type": "event", "title": "Hackathon", "body": "24h of code",
	})
	createPost(t, h, token, map[string]any{
		"type": "news", "title": "Campus reopens", "body": "Gates open Monday",
	})

	// Anonymous listing sees only the news post.
	w := doJSON(t, h, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var visible []models.Post
	decodeJSON(t, w, &visible)
	require.Len(t, visible, 1)
	assert.Equal(t, "news", visible[0].Type)

	// Admin listing sees both.
	w = doJSON(t, h, http.MethodGet, "/posts", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Post
	decodeJSON(t, w, &all)
	assert.Len(t, all, 2)
}

func TestGetPendingEventByIDNotFoundForStrangers(t *testing.T) {
	_, h := newTestServer(t)
	token, _ := signup(t, h, "Alice", "alice@campus.edu")
	otherToken, _ := signup(t, h, "Bob", "bob@campus.edu")

	p := createPost(t, h, token, map[string]any{
		"type": "event", "title": "Hackathon", "body": "24h of code",
	})

	w := doJSON(t, h, http.MethodGet, "/posts/"+p.ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The owner can still see their own pending event.
	w = doJSON(t, h, http.MethodGet, "/posts/"+p.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateClearsForeignVariantFields(t *testing.T) {
	_, h := newTestServer(t)
	token, _ := signup(t, h, "Alice", "alice@campus.edu")

	p := createPost(t, h, token, map[string]any{
		"type": "event", "title": "Hackathon", "body": "24h of code",
		"event": map[string]any{"location": "Main Hall", "price": 100},
	})

	w := doJSON(t, h, http.MethodPut, "/posts/"+p.ID, token, map[string]any{
		"type": "confession", "title": "Actually a confession", "body": "Never mind the event",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Post
	decodeJSON(t, w, &updated)
	assert.Equal(t, "confession", updated.Type)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Nil(t, updated.Event, "event payload must not survive a type change")

	w = doJSON(t, h, http.MethodGet, "/posts/"+p.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.Post
	decodeJSON(t, w, &fetched)
	assert.Nil(t, fetched.Event)
	assert.Nil(t, fetched.Cultural)
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	_, h := newTestServer(t)
	token, _ := signup(t, h, "Alice", "alice@campus.edu")
	otherToken, _ := signup(t, h, "Bob", "bob@campus.edu")

	p := createPost(t, h, token, map[string]any{
		"type": "confession", "title": "Mine", "body": "Hands off",
	})

	w := doJSON(t, h, http.MethodPut, "/posts/"+p.ID, otherToken, map[string]any{
		"type": "confession", "title": "Hijacked", "body": "Hehe",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, h, http.MethodDelete, "/posts/"+p.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeletePostCascades(t *testing.T) {
	db, h := newTestServer(t)
	ownerToken, _ := signup(t, h, "Alice", "alice@campus.edu")
	guestToken, _ := signup(t, h, "Bob", "bob@campus.edu")

	p := createPost(t, h, ownerToken, map[string]any{
		"type": "event", "title": "Hackathon", "body": "24h of code",
		"event": map[string]any{"registration_open": true},
	})
	approvePost(t, db, p.ID)

	w := doJSON(t, h, http.MethodPost, "/users/register-event/"+p.ID, guestToken, map[string]any{
		"name": "Bob", "email": "bob@campus.edu", "phone": "555-0101",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, h, http.MethodPut, "/posts/"+p.ID+"/like", guestToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, h, http.MethodPost, "/posts/"+p.ID+"/comments", guestToken, map[string]string{"text": "see you there"})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Greater(t, countRows(t, db, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, p.ID), 0)
	require.Greater(t, countRows(t, db, `SELECT COUNT(*) FROM notifications WHERE post_id = $1`, p.ID), 0)

	w = doJSON(t, h, http.MethodDelete, "/posts/"+p.ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM posts WHERE id = $1`, p.ID))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, p.ID))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM notifications WHERE post_id = $1`, p.ID))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, p.ID))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, p.ID))
}

func TestCreatePostValidation(t *testing.T) {
	_, h := newTestServer(t)
	token, _ := signup(t, h, "Alice", "alice@campus.edu")

	w := doJSON(t, h, http.MethodPost, "/posts", token, map[string]any{
		"type": "poetry", "title": "x", "body": "y",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/posts", token, map[string]any{
		"type": "confession", "body": "missing title",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/posts", "", map[string]any{
		"type": "confession", "title": "t", "body": "b",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
