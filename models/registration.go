package models

import "time"

// Registration joins one user to one event-type post. At most one
// registration exists per (event, user) pair, enforced by a UNIQUE index.
type Registration struct {
	ID                string            `json:"id"`
	EventID           string            `json:"event_id"`
	UserID            string            `json:"user_id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	TransactionID     string            `json:"transaction_id,omitempty"`
	BookingDates      []string          `json:"booking_dates,omitempty"`
	Tickets           []TicketSelection `json:"tickets,omitempty"`
	TotalPrice        float64           `json:"total_price"`
	CustomFields      map[string]string `json:"custom_fields,omitempty"`
	PaymentScreenshot string            `json:"payment_screenshot,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`

	// EventTitle is joined in for owner-facing listings only.
	EventTitle string `json:"event_title,omitempty"`
}

// TicketSelection is one chosen ticket category with a quantity. The
// unit price is resolved from the event's ticket options at registration
// time, never trusted from the client.
type TicketSelection struct {
	Type     string  `json:"type"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}
