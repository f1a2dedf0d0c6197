package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"confique.app/backend/database"
	"confique.app/backend/middleware"
	"confique.app/backend/models"
)

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Signup creates an account and returns a bearer token.
func Signup(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Avatar   string `json:"avatar"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			http.Error(w, "A valid email is required", http.StatusBadRequest)
			return
		}
		if len(req.Password) < 8 {
			http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			log.Println("Signup hash error:", err)
			return
		}

		u := models.User{
			ID:        uuid.NewString(),
			Name:      req.Name,
			Email:     req.Email,
			Avatar:    req.Avatar,
			CreatedAt: time.Now().UTC(),
		}

		_, err = db.Exec(`
			INSERT INTO users (id, name, email, password, avatar, is_admin, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			u.ID, u.Name, u.Email, string(hash), u.Avatar, false, u.CreatedAt)
		if err != nil {
			if database.IsUniqueViolation(err) {
				http.Error(w, "Email already registered", http.StatusConflict)
				return
			}
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			log.Println("Signup insert error:", err)
			return
		}

		token, err := middleware.IssueToken(u.ID)
		if err != nil {
			http.Error(w, "Failed to issue token", http.StatusInternalServerError)
			log.Println("Signup token error:", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(authResponse{Token: token, User: u})
	}
}

// Login verifies credentials and returns a bearer token. Accounts
// created by an external identity provider carry no password and cannot
// log in this way.
func Login(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var u models.User
		var hash string
		err := db.QueryRow(`
			SELECT id, name, email, COALESCE(password, ''), COALESCE(avatar, ''), is_admin, created_at
			FROM users WHERE email = $1`,
			strings.TrimSpace(strings.ToLower(req.Email))).
			Scan(&u.ID, &u.Name, &u.Email, &hash, &u.Avatar, &u.IsAdmin, &u.CreatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("Login error:", err)
			}
			return
		}

		if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}

		token, err := middleware.IssueToken(u.ID)
		if err != nil {
			http.Error(w, "Failed to issue token", http.StatusInternalServerError)
			log.Println("Login token error:", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(authResponse{Token: token, User: u})
	}
}

// Me returns the caller's own profile.
func Me(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)

		var u models.User
		err := db.QueryRow(`
			SELECT id, name, email, COALESCE(avatar, ''), is_admin, created_at
			FROM users WHERE id = $1`, userID).
			Scan(&u.ID, &u.Name, &u.Email, &u.Avatar, &u.IsAdmin, &u.CreatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "User not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("Me error:", err)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(u)
	}
}
