// internal/workers/professionals/list-professionals/models.go
package listprofessionals

import "estate-workers/internal/models"

// Input is the subset of process variables read by the worker. Pointer
// fields distinguish an absent value from an explicit zero.
type Input struct {
	SessionToken string `json:"sessionToken,omitempty"`
	Role         string `json:"role,omitempty"`
	Page         *int   `json:"page,omitempty"`
	Limit        *int   `json:"limit,omitempty"`
	Search       string `json:"search,omitempty"`
	SortBy       string `json:"sortBy,omitempty"`
	RefreshSeed  *int64 `json:"refreshSeed,omitempty"`
}

type Output struct {
	Professionals    []models.Professional `json:"professionals"`
	TotalCount       int                   `json:"totalCount"`
	TotalPages       int                   `json:"totalPages"`
	ActualTotalPages int                   `json:"actualTotalPages"`
	CurrentPage      int                   `json:"currentPage"`
	HasMore          bool                  `json:"hasMore"`
}
