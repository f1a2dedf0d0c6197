package models

import "time"

// Post types.
const (
	TypeConfession    = "confession"
	TypeEvent         = "event"
	TypeCulturalEvent = "culturalEvent"
	TypeNews          = "news"
)

// Moderation statuses. Only event and culturalEvent posts ever sit at
// pending; everything else is approved from creation.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Post is a unit of user-submitted content. The type tag selects which
// variant payload (Event or Cultural) is populated; the other one is
// always nil. Normalize enforces that on every write path.
type Post struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Images       []string  `json:"images"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`

	Event    *EventDetails         `json:"event,omitempty"`
	Cultural *CulturalEventDetails `json:"cultural,omitempty"`

	LikeCount     int  `json:"like_count"`
	CommentCount  int  `json:"comment_count"`
	IsLikedByUser bool `json:"is_liked_by_user"`
}

// EventDetails is the payload of a plain event post.
type EventDetails struct {
	Location                 string            `json:"location,omitempty"`
	VenueAddress             string            `json:"venue_address,omitempty"`
	StartsAt                 string            `json:"starts_at,omitempty"`
	EndsAt                   string            `json:"ends_at,omitempty"`
	Price                    float64           `json:"price"`
	PaymentMethod            string            `json:"payment_method,omitempty"`
	PaymentLink              string            `json:"payment_link,omitempty"`
	PaymentQRImage           string            `json:"payment_qr_image,omitempty"`
	RegistrationOpen         bool              `json:"registration_open"`
	RequirePaymentScreenshot bool              `json:"require_payment_screenshot"`
	CustomFields             []CustomFieldSpec `json:"custom_fields,omitempty"`
}

// CulturalEventDetails is the payload of a culturalEvent post.
type CulturalEventDetails struct {
	TicketOptions            []TicketOption `json:"ticket_options,omitempty"`
	AvailableDates           []string       `json:"available_dates,omitempty"`
	PaymentMethod            string         `json:"payment_method,omitempty"`
	PaymentLink              string         `json:"payment_link,omitempty"`
	PaymentQRImage           string         `json:"payment_qr_image,omitempty"`
	RequirePaymentScreenshot bool           `json:"require_payment_screenshot"`
}

// TicketOption is a named, priced admission category a culturalEvent offers.
type TicketOption struct {
	Type  string  `json:"type"`
	Price float64 `json:"price"`
}

// CustomFieldSpec declares an extra field an event collects at registration.
type CustomFieldSpec struct {
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// ValidType reports whether t is one of the known post types.
func ValidType(t string) bool {
	switch t {
	case TypeConfession, TypeEvent, TypeCulturalEvent, TypeNews:
		return true
	}
	return false
}

// IsEventType reports whether posts of type t go through moderation and
// accept registrations.
func IsEventType(t string) bool {
	return t == TypeEvent || t == TypeCulturalEvent
}

// Normalize clears any variant payload that does not belong to the
// post's type and guarantees the matching payload is non-nil. Every
// create and update runs through here so foreign-variant data can never
// survive a type change.
func (p *Post) Normalize() {
	switch p.Type {
	case TypeEvent:
		p.Cultural = nil
		if p.Event == nil {
			p.Event = &EventDetails{}
		}
	case TypeCulturalEvent:
		p.Event = nil
		if p.Cultural == nil {
			p.Cultural = &CulturalEventDetails{}
		}
	default:
		p.Event = nil
		p.Cultural = nil
	}
	if p.Images == nil {
		p.Images = []string{}
	}
}

// InitialStatus returns the moderation status a freshly created post of
// this type starts at.
func (p *Post) InitialStatus() string {
	if IsEventType(p.Type) {
		return StatusPending
	}
	return StatusApproved
}

// ImageRefs collects every external image reference the post owns,
// including payment QR images, for purging when the post is deleted.
func (p *Post) ImageRefs() []string {
	refs := append([]string{}, p.Images...)
	if p.Event != nil && p.Event.PaymentQRImage != "" {
		refs = append(refs, p.Event.PaymentQRImage)
	}
	if p.Cultural != nil && p.Cultural.PaymentQRImage != "" {
		refs = append(refs, p.Cultural.PaymentQRImage)
	}
	return refs
}

// Comment is one entry in a post's comment thread. Author name and
// avatar are snapshotted at creation time.
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
