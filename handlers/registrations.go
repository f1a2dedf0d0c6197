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

const registrationColumns = `r.id, r.event_id, r.user_id, r.name, r.email, r.phone,
	COALESCE(r.transaction_id, ''), r.booking_dates, r.tickets, r.total_price,
	r.custom_fields, COALESCE(r.payment_screenshot, ''), r.created_at`

func scanRegistration(row rowScanner, reg *models.Registration, extra ...any) error {
	var dates, tickets, custom string
	dest := []any{
		&reg.ID, &reg.EventID, &reg.UserID, &reg.Name, &reg.Email, &reg.Phone,
		&reg.TransactionID, &dates, &tickets, &reg.TotalPrice,
		&custom, &reg.PaymentScreenshot, &reg.CreatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	if dates != "" {
		json.Unmarshal([]byte(dates), &reg.BookingDates)
	}
	if tickets != "" {
		json.Unmarshal([]byte(tickets), &reg.Tickets)
	}
	if custom != "" {
		json.Unmarshal([]byte(custom), &reg.CustomFields)
	}
	return nil
}

type registrationRequest struct {
	Name              string                   `json:"name"`
	Email             string                   `json:"email"`
	Phone             string                   `json:"phone"`
	TransactionID     string                   `json:"transaction_id"`
	BookingDates      []string                 `json:"booking_dates"`
	Tickets           []models.TicketSelection `json:"tickets"`
	CustomFields      map[string]string        `json:"custom_fields"`
	PaymentScreenshot string                   `json:"payment_screenshot"`
}

// requirePaymentProof checks the payment evidence a paid registration
// must carry. When the event demands a screenshot, only a screenshot
// satisfies it; otherwise a transaction id of at least 4 characters is
// required. The same rule applies to both event kinds.
func requirePaymentProof(req *registrationRequest, needScreenshot bool) string {
	if needScreenshot {
		if req.PaymentScreenshot == "" {
			return "Payment screenshot is required"
		}
		return ""
	}
	if len(strings.TrimSpace(req.TransactionID)) < 4 {
		return "A valid transaction ID is required"
	}
	return ""
}

// RegisterForEvent signs the caller up for an event. The friendly
// duplicate check runs first; the UNIQUE(event_id, user_id) index is the
// backstop for concurrent attempts.
func RegisterForEvent(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := mux.Vars(r)["eventId"]
		userID := middleware.UserID(r)

		p, err := loadPost(db, eventID)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Event not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("RegisterForEvent error:", err)
			}
			return
		}

		if !models.IsEventType(p.Type) {
			http.Error(w, "This post does not accept registrations", http.StatusBadRequest)
			return
		}
		if p.Status != models.StatusApproved {
			http.Error(w, "Event is not open for registration", http.StatusBadRequest)
			return
		}
		if p.Type == models.TypeEvent && p.Event != nil && !p.Event.RegistrationOpen {
			http.Error(w, "Registration is closed for this event", http.StatusBadRequest)
			return
		}

		var exists bool
		err = db.QueryRow(`SELECT EXISTS(SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
			eventID, userID).Scan(&exists)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("RegisterForEvent duplicate check error:", err)
			return
		}
		if exists {
			http.Error(w, "Already registered for this event", http.StatusConflict)
			return
		}

		var req registrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var missing []string
		if strings.TrimSpace(req.Name) == "" {
			missing = append(missing, "name")
		}
		if strings.TrimSpace(req.Email) == "" {
			missing = append(missing, "email")
		}
		if strings.TrimSpace(req.Phone) == "" {
			missing = append(missing, "phone")
		}
		if len(missing) > 0 {
			http.Error(w, "Missing required fields: "+strings.Join(missing, ", "), http.StatusBadRequest)
			return
		}

		reg := models.Registration{
			ID:                uuid.NewString(),
			EventID:           eventID,
			UserID:            userID,
			Name:              req.Name,
			Email:             req.Email,
			Phone:             req.Phone,
			TransactionID:     req.TransactionID,
			CustomFields:      req.CustomFields,
			PaymentScreenshot: req.PaymentScreenshot,
			CreatedAt:         time.Now().UTC(),
		}

		switch p.Type {
		case models.TypeEvent:
			details := p.Event
			if details == nil {
				details = &models.EventDetails{}
			}
			reg.TotalPrice = details.Price
			if details.Price > 0 && details.PaymentMethod != "" {
				if msg := requirePaymentProof(&req, details.RequirePaymentScreenshot); msg != "" {
					http.Error(w, msg, http.StatusBadRequest)
					return
				}
			}

		case models.TypeCulturalEvent:
			details := p.Cultural
			if details == nil {
				details = &models.CulturalEventDetails{}
			}

			var sum float64
			var selected []models.TicketSelection
			for _, t := range req.Tickets {
				if t.Quantity <= 0 {
					continue
				}
				option, ok := findTicketOption(details.TicketOptions, t.Type)
				if !ok {
					http.Error(w, "Unknown ticket type: "+t.Type, http.StatusBadRequest)
					return
				}
				selected = append(selected, models.TicketSelection{
					Type:     option.Type,
					Price:    option.Price,
					Quantity: t.Quantity,
				})
				sum += option.Price * float64(t.Quantity)
			}
			if len(selected) == 0 {
				http.Error(w, "Select at least one ticket", http.StatusBadRequest)
				return
			}

			if len(details.AvailableDates) > 0 {
				if len(req.BookingDates) == 0 {
					http.Error(w, "Select at least one date", http.StatusBadRequest)
					return
				}
				for _, d := range req.BookingDates {
					if !containsDate(details.AvailableDates, d) {
						http.Error(w, "Date not available: "+d, http.StatusBadRequest)
						return
					}
				}
			}

			// A registration with no selected dates still prices as one
			// day. Kept for compatibility with existing clients.
			days := len(req.BookingDates)
			if days == 0 {
				days = 1
			}

			reg.Tickets = selected
			reg.BookingDates = req.BookingDates
			reg.TotalPrice = sum * float64(days)

			if reg.TotalPrice > 0 && details.PaymentMethod != "" {
				if msg := requirePaymentProof(&req, details.RequirePaymentScreenshot); msg != "" {
					http.Error(w, msg, http.StatusBadRequest)
					return
				}
			}
		}

		dates, _ := json.Marshal(orEmptySlice(reg.BookingDates))
		tickets, _ := json.Marshal(orEmptyTickets(reg.Tickets))
		custom, _ := json.Marshal(orEmptyMap(reg.CustomFields))

		_, err = db.Exec(`
			INSERT INTO registrations (id, event_id, user_id, name, email, phone,
			                           transaction_id, booking_dates, tickets, total_price,
			                           custom_fields, payment_screenshot, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			reg.ID, reg.EventID, reg.UserID, reg.Name, reg.Email, reg.Phone,
			reg.TransactionID, string(dates), string(tickets), reg.TotalPrice,
			string(custom), reg.PaymentScreenshot, reg.CreatedAt)
		if err != nil {
			if database.IsUniqueViolation(err) {
				http.Error(w, "Already registered for this event", http.StatusConflict)
				return
			}
			http.Error(w, "Failed to register", http.StatusInternalServerError)
			log.Println("RegisterForEvent insert error:", err)
			return
		}

		notify(db, models.Notification{
			Type:        models.NotifRegistration,
			RecipientID: p.AuthorID,
			PostID:      p.ID,
			Message:     fmt.Sprintf("%s registered for %q", reg.Name, p.Title),
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(reg)
	}
}

func findTicketOption(options []models.TicketOption, ticketType string) (models.TicketOption, bool) {
	for _, o := range options {
		if o.Type == ticketType {
			return o, true
		}
	}
	return models.TicketOption{}, false
}

func containsDate(dates []string, d string) bool {
	for _, v := range dates {
		if v == d {
			return true
		}
	}
	return false
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyTickets(t []models.TicketSelection) []models.TicketSelection {
	if t == nil {
		return []models.TicketSelection{}
	}
	return t
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// MyRegistrationCounts returns registration totals for every event the
// caller owns, keyed by post id. Events with no registrations appear
// with a zero count.
func MyRegistrationCounts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)

		rows, err := db.Query(`
			SELECT p.id, COUNT(r.id)
			FROM posts p
			LEFT JOIN registrations r ON r.event_id = p.id
			WHERE p.author_id = $1 AND p.type IN ('event', 'culturalEvent')
			GROUP BY p.id`,
			userID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("MyRegistrationCounts error:", err)
			return
		}
		defer rows.Close()

		counts := map[string]int{}
		for rows.Next() {
			var postID string
			var count int
			if err := rows.Scan(&postID, &count); err != nil {
				http.Error(w, "Error scanning counts", http.StatusInternalServerError)
				log.Println("MyRegistrationCounts scan error:", err)
				return
			}
			counts[postID] = count
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating counts", http.StatusInternalServerError)
			log.Println("MyRegistrationCounts rows error:", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(counts)
	}
}

// MyEventsRegistrations lists every registration on events the caller
// owns, newest first, with the event title joined in.
func MyEventsRegistrations(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r)

		rows, err := db.Query(`
			SELECT `+registrationColumns+`, p.title
			FROM registrations r
			JOIN posts p ON p.id = r.event_id
			WHERE p.author_id = $1
			ORDER BY r.created_at DESC`,
			userID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("MyEventsRegistrations error:", err)
			return
		}
		defer rows.Close()

		regs := []models.Registration{}
		for rows.Next() {
			var reg models.Registration
			if err := scanRegistration(rows, &reg, &reg.EventTitle); err != nil {
				http.Error(w, "Error scanning registrations", http.StatusInternalServerError)
				log.Println("MyEventsRegistrations scan error:", err)
				return
			}
			regs = append(regs, reg)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating registrations", http.StatusInternalServerError)
			log.Println("MyEventsRegistrations rows error:", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(regs)
	}
}
