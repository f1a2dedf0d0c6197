package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"confique.app/backend/middleware"
	"confique.app/backend/models"
	"confique.app/backend/services"
)

const postColumns = `p.id, p.type, p.title, p.body, p.images, p.author_id, p.author_name,
	COALESCE(p.author_avatar, ''), p.status,
	COALESCE(p.event_details, ''), COALESCE(p.cultural_details, ''), p.created_at`

// visiblePredicate hides unapproved event-type posts from non-admin reads.
const visiblePredicate = `(p.type NOT IN ('event', 'culturalEvent') OR p.status = 'approved')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner, p *models.Post) error {
	var images, eventJSON, culturalJSON string
	if err := row.Scan(
		&p.ID, &p.Type, &p.Title, &p.Body, &images,
		&p.AuthorID, &p.AuthorName, &p.AuthorAvatar, &p.Status,
		&eventJSON, &culturalJSON, &p.CreatedAt,
	); err != nil {
		return err
	}

	p.Images = []string{}
	if images != "" {
		if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
			return err
		}
	}
	if eventJSON != "" {
		p.Event = &models.EventDetails{}
		if err := json.Unmarshal([]byte(eventJSON), p.Event); err != nil {
			return err
		}
	}
	if culturalJSON != "" {
		p.Cultural = &models.CulturalEventDetails{}
		if err := json.Unmarshal([]byte(culturalJSON), p.Cultural); err != nil {
			return err
		}
	}
	return nil
}

func loadPost(db *sql.DB, id string) (*models.Post, error) {
	row := db.QueryRow(`SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id)
	var p models.Post
	if err := scanPost(row, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func marshalDetails(p *models.Post) (event, cultural interface{}, err error) {
	if p.Event != nil {
		b, err := json.Marshal(p.Event)
		if err != nil {
			return nil, nil, err
		}
		event = string(b)
	}
	if p.Cultural != nil {
		b, err := json.Marshal(p.Cultural)
		if err != nil {
			return nil, nil, err
		}
		cultural = string(b)
	}
	return event, cultural, nil
}

type postRequest struct {
	Type     string                       `json:"type"`
	Title    string                       `json:"title"`
	Body     string                       `json:"body"`
	Images   []string                     `json:"images"`
	Event    *models.EventDetails         `json:"event"`
	Cultural *models.CulturalEventDetails `json:"cultural"`
}

// GetPosts lists posts newest first. Anonymous and non-admin callers see
// only approved event-type content; admins see everything. Like and
// comment counts are computed live, never stored.
func GetPosts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, _ := middleware.ParseBearer(r)
		admin := middleware.IsAdmin(db, callerID)

		query := `
			SELECT ` + postColumns + `,
			       (SELECT COUNT(*) FROM likes WHERE post_id = p.id) AS like_count,
			       (SELECT COUNT(*) FROM comments WHERE post_id = p.id) AS comment_count,
			       EXISTS(SELECT 1 FROM likes WHERE post_id = p.id AND user_id = $1) AS is_liked
			FROM posts p`
		if !admin {
			query += ` WHERE ` + visiblePredicate
		}
		query += ` ORDER BY p.created_at DESC`

		rows, err := db.Query(query, callerID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("GetPosts error:", err)
			return
		}
		defer rows.Close()

		posts := []models.Post{}
		for rows.Next() {
			var p models.Post
			var images, eventJSON, culturalJSON string
			if err := rows.Scan(
				&p.ID, &p.Type, &p.Title, &p.Body, &images,
				&p.AuthorID, &p.AuthorName, &p.AuthorAvatar, &p.Status,
				&eventJSON, &culturalJSON, &p.CreatedAt,
				&p.LikeCount, &p.CommentCount, &p.IsLikedByUser,
			); err != nil {
				http.Error(w, "Error scanning posts", http.StatusInternalServerError)
				log.Println("GetPosts scan error:", err)
				return
			}
			p.Images = []string{}
			if images != "" {
				json.Unmarshal([]byte(images), &p.Images)
			}
			if eventJSON != "" {
				p.Event = &models.EventDetails{}
				json.Unmarshal([]byte(eventJSON), p.Event)
			}
			if culturalJSON != "" {
				p.Cultural = &models.CulturalEventDetails{}
				json.Unmarshal([]byte(culturalJSON), p.Cultural)
			}
			posts = append(posts, p)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating posts", http.StatusInternalServerError)
			log.Println("GetPosts rows error:", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(posts)
	}
}

// GetPost returns one post by id, applying the same visibility rule as
// the listing.
func GetPost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		callerID, _ := middleware.ParseBearer(r)

		p, err := loadPost(db, id)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Post not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("GetPost error:", err)
			}
			return
		}

		if models.IsEventType(p.Type) && p.Status != models.StatusApproved && !middleware.IsAdmin(db, callerID) && p.AuthorID != callerID {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}

		db.QueryRow(`SELECT COUNT(*) FROM likes WHERE post_id = $1`, id).Scan(&p.LikeCount)
		db.QueryRow(`SELECT COUNT(*) FROM comments WHERE post_id = $1`, id).Scan(&p.CommentCount)
		if callerID != "" {
			db.QueryRow(`SELECT EXISTS(SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`,
				id, callerID).Scan(&p.IsLikedByUser)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

// CreatePost submits new content. Event-type posts start at pending and
// stay invisible until approved; everything else is approved immediately.
func CreatePost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)

		var req postRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if !models.ValidType(req.Type) {
			http.Error(w, "Invalid post type", http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			http.Error(w, "Title is required", http.StatusBadRequest)
			return
		}
		if req.Body == "" {
			http.Error(w, "Body is required", http.StatusBadRequest)
			return
		}

		var authorName, authorAvatar string
		err := db.QueryRow(`SELECT name, COALESCE(avatar, '') FROM users WHERE id = $1`, userID).
			Scan(&authorName, &authorAvatar)
		if err != nil {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}

		p := models.Post{
			ID:           uuid.NewString(),
			Type:         req.Type,
			Title:        req.Title,
			Body:         req.Body,
			Images:       req.Images,
			AuthorID:     userID,
			AuthorName:   authorName,
			AuthorAvatar: authorAvatar,
			CreatedAt:    time.Now().UTC(),
			Event:        req.Event,
			Cultural:     req.Cultural,
		}
		p.Normalize()
		p.Status = p.InitialStatus()

		images, err := json.Marshal(p.Images)
		if err != nil {
			http.Error(w, "Failed to create post", http.StatusInternalServerError)
			return
		}
		eventJSON, culturalJSON, err := marshalDetails(&p)
		if err != nil {
			http.Error(w, "Failed to create post", http.StatusInternalServerError)
			return
		}

		_, err = db.Exec(`
			INSERT INTO posts (id, type, title, body, images, author_id, author_name,
			                   author_avatar, status, event_details, cultural_details, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, p.Type, p.Title, p.Body, string(images), p.AuthorID, p.AuthorName,
			p.AuthorAvatar, p.Status, eventJSON, culturalJSON, p.CreatedAt)
		if err != nil {
			http.Error(w, "Failed to create post", http.StatusInternalServerError)
			log.Println("CreatePost error:", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	}
}

// UpdatePost edits a post. Only the owner or an admin may edit. The
// variant payload is rebuilt from the declared type, so fields belonging
// to another type are cleared. Changing the type re-derives the
// moderation status.
func UpdatePost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		userID := middleware.UserID(r)

		existing, err := loadPost(db, id)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Post not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("UpdatePost error:", err)
			}
			return
		}

		if existing.AuthorID != userID && !middleware.IsAdmin(db, userID) {
			http.Error(w, "Not allowed to edit this post", http.StatusForbidden)
			return
		}

		var req postRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !models.ValidType(req.Type) {
			http.Error(w, "Invalid post type", http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			http.Error(w, "Title is required", http.StatusBadRequest)
			return
		}
		if req.Body == "" {
			http.Error(w, "Body is required", http.StatusBadRequest)
			return
		}

		updated := *existing
		updated.Type = req.Type
		updated.Title = req.Title
		updated.Body = req.Body
		updated.Images = req.Images
		updated.Event = req.Event
		updated.Cultural = req.Cultural
		updated.Normalize()
		if updated.Type != existing.Type {
			updated.Status = updated.InitialStatus()
		}

		images, err := json.Marshal(updated.Images)
		if err != nil {
			http.Error(w, "Failed to update post", http.StatusInternalServerError)
			return
		}
		eventJSON, culturalJSON, err := marshalDetails(&updated)
		if err != nil {
			http.Error(w, "Failed to update post", http.StatusInternalServerError)
			return
		}

		_, err = db.Exec(`
			UPDATE posts
			SET type = $1, title = $2, body = $3, images = $4, status = $5,
			    event_details = $6, cultural_details = $7
			WHERE id = $8`,
			updated.Type, updated.Title, updated.Body, string(images), updated.Status,
			eventJSON, culturalJSON, id)
		if err != nil {
			http.Error(w, "Failed to update post", http.StatusInternalServerError)
			log.Println("UpdatePost error:", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

// DeletePost removes a post and everything hanging off it: likes,
// comments, registrations keyed by the event id, and notifications that
// reference the post. Image purging runs in the background and its
// failures never block the deletion.
func DeletePost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		userID := middleware.UserID(r)

		p, err := loadPost(db, id)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Post not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("DeletePost error:", err)
			}
			return
		}

		if p.AuthorID != userID && !middleware.IsAdmin(db, userID) {
			http.Error(w, "Not allowed to delete this post", http.StatusForbidden)
			return
		}

		refs := p.ImageRefs()
		rows, err := db.Query(`SELECT COALESCE(payment_screenshot, '') FROM registrations WHERE event_id = $1`, id)
		if err == nil {
			for rows.Next() {
				var ref string
				if rows.Scan(&ref) == nil && ref != "" {
					refs = append(refs, ref)
				}
			}
			rows.Close()
		}

		if err := deletePostCascade(db, id); err != nil {
			http.Error(w, "Failed to delete post", http.StatusInternalServerError)
			log.Println("DeletePost cascade error:", err)
			return
		}

		go services.PurgeImages(refs)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": "Post deleted successfully",
		})
	}
}

func deletePostCascade(db *sql.DB, postID string) error {
	if _, err := db.Exec(`DELETE FROM likes WHERE post_id = $1`, postID); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM comments WHERE post_id = $1`, postID); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM registrations WHERE event_id = $1`, postID); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM notifications WHERE post_id = $1`, postID); err != nil {
		return err
	}
	_, err := db.Exec(`DELETE FROM posts WHERE id = $1`, postID)
	return err
}
