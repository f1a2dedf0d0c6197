package handlers

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"confique.app/backend/middleware"
	"confique.app/backend/models"
)

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ExportRegistrations streams an event's registrations as CSV. A
// registration with N selected ticket types produces N rows, one per
// ticket, with the shared contact fields and the total price repeated on
// each; a registration with no tickets produces exactly one row with the
// ticket columns empty. Custom-field keys observed anywhere in the
// event's registrations become extra columns.
func ExportRegistrations(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := mux.Vars(r)["eventId"]
		userID := middleware.UserID(r)

		p, err := loadPost(db, eventID)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "Event not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("ExportRegistrations error:", err)
			}
			return
		}

		if p.AuthorID != userID && !middleware.IsAdmin(db, userID) {
			http.Error(w, "Not allowed to export this event's registrations", http.StatusForbidden)
			return
		}

		rows, err := db.Query(`
			SELECT `+registrationColumns+`
			FROM registrations r
			WHERE r.event_id = $1
			ORDER BY r.created_at ASC`,
			eventID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("ExportRegistrations query error:", err)
			return
		}
		defer rows.Close()

		var regs []models.Registration
		for rows.Next() {
			var reg models.Registration
			if err := scanRegistration(rows, &reg); err != nil {
				http.Error(w, "Error scanning registrations", http.StatusInternalServerError)
				log.Println("ExportRegistrations scan error:", err)
				return
			}
			regs = append(regs, reg)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating registrations", http.StatusInternalServerError)
			log.Println("ExportRegistrations rows error:", err)
			return
		}

		if len(regs) == 0 {
			http.Error(w, "No registrations found for this event", http.StatusNotFound)
			return
		}

		customKeys, hasTickets := exportColumns(regs)

		header := []string{"Name", "Email", "Phone", "Transaction ID", "Registered At"}
		header = append(header, customKeys...)
		if hasTickets {
			header = append(header, "Booking Dates", "Ticket Type", "Ticket Quantity", "Ticket Price", "Total Price")
		}

		filename := filenameSanitizer.ReplaceAllString(p.Title, "_")
		filename = strings.Trim(filename, "_")
		if filename == "" {
			filename = "event"
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s_registrations.csv"`, filename))

		writer := csv.NewWriter(w)
		writer.Write(header)
		for _, reg := range regs {
			for _, row := range exportRows(&reg, customKeys, hasTickets) {
				writer.Write(row)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			log.Println("ExportRegistrations write error:", err)
		}
	}
}

// exportColumns returns the sorted union of custom-field keys across all
// registrations and whether any registration selected tickets.
func exportColumns(regs []models.Registration) ([]string, bool) {
	keySet := map[string]bool{}
	hasTickets := false
	for _, reg := range regs {
		for k := range reg.CustomFields {
			keySet[k] = true
		}
		if len(reg.Tickets) > 0 {
			hasTickets = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, hasTickets
}

func exportRows(reg *models.Registration, customKeys []string, hasTickets bool) [][]string {
	base := []string{
		reg.Name,
		reg.Email,
		reg.Phone,
		reg.TransactionID,
		reg.CreatedAt.Format(time.RFC3339),
	}
	for _, k := range customKeys {
		base = append(base, reg.CustomFields[k])
	}

	if !hasTickets {
		return [][]string{base}
	}

	dates := strings.Join(reg.BookingDates, "; ")
	total := strconv.FormatFloat(reg.TotalPrice, 'f', -1, 64)

	if len(reg.Tickets) == 0 {
		row := append(append([]string{}, base...), dates, "", "", "", total)
		return [][]string{row}
	}

	var out [][]string
	for _, t := range reg.Tickets {
		row := append(append([]string{}, base...),
			dates,
			t.Type,
			strconv.Itoa(t.Quantity),
			strconv.FormatFloat(t.Price, 'f', -1, 64),
			total,
		)
		out = append(out, row)
	}
	return out
}
