package ranking

import (
	"context"
	"time"

	"estate-workers/internal/models"
)

// Filter narrows the candidate set. Stores must only return professionals
// that own at least one active listing.
type Filter struct {
	Roles  []models.Role
	Search string
}

type OrderField int

const (
	OrderByListingCount OrderField = iota
	OrderByCreatedAt
)

// Order is a store-level ordering hint.
type Order struct {
	Field      OrderField
	Descending bool
}

type FindQuery struct {
	Filter Filter
	Order  Order
	// Limit caps the number of rows; zero fetches every match.
	Limit int
	// ViewsSince bounds the listing view events attached to each candidate.
	ViewsSince time.Time
	// IncludeContact populates privacy-gated contact details.
	IncludeContact bool
}

// ListingActivity is the number of view events one listing received inside
// the requested window.
type ListingActivity struct {
	ListingID string
	Views     int
}

// Candidate is a professional as loaded from the store, before its recent
// views are folded in.
type Candidate struct {
	models.Professional
	Listings []ListingActivity
}

// Store is the read-only data source for professionals.
type Store interface {
	Count(ctx context.Context, filter Filter) (int, error)
	Find(ctx context.Context, query FindQuery) ([]Candidate, error)
}

// SessionProvider resolves the caller of the current request. A nil caller
// with a nil error means the request is anonymous.
type SessionProvider interface {
	CurrentCaller(ctx context.Context) (*Caller, error)
}
