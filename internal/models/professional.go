package models

import "time"

// Role classifies a professional account.
type Role string

const (
	RoleAgent  Role = "AGENT"
	RoleAgency Role = "AGENCY"
	RoleAll    Role = "ALL"
)

// ProfessionalRoles are the roles eligible for ranking.
var ProfessionalRoles = []Role{RoleAgent, RoleAgency}

func (r Role) Valid() bool {
	switch r {
	case RoleAgent, RoleAgency, RoleAll:
		return true
	}
	return false
}

// SortOption selects the ordering strategy for a professionals listing.
type SortOption string

const (
	SortByProperties SortOption = "properties"
	SortByViews      SortOption = "views"
	SortByNewest     SortOption = "newest"
	SortByRandom     SortOption = "random"
)

func (s SortOption) Valid() bool {
	switch s {
	case SortByProperties, SortByViews, SortByNewest, SortByRandom:
		return true
	}
	return false
}

// ContactDetails are only populated for authenticated callers.
type ContactDetails struct {
	Phone        string `json:"phone,omitempty"`
	WhatsApp     string `json:"whatsapp,omitempty"`
	Email        string `json:"email,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
}

// Professional is an agent or agency as returned to callers, annotated with
// its recent listing views.
type Professional struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	CompanyName     string          `json:"companyName,omitempty"`
	Role            Role            `json:"role"`
	Location        string          `json:"location,omitempty"`
	Bio             string          `json:"bio,omitempty"`
	Image           string          `json:"image,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	Contact         *ContactDetails `json:"contact,omitempty"`
	PropertyCount   int             `json:"propertyCount"`
	RecentViewCount int             `json:"recentViewCount"`
}
