// internal/workers/professionals/list-top-professionals/models.go
package listtopprofessionals

import "estate-workers/internal/models"

type Input struct {
	SessionToken string `json:"sessionToken,omitempty"`
	Limit        *int   `json:"limit,omitempty"`
	RefreshSeed  *int64 `json:"refreshSeed,omitempty"`
}

type Output struct {
	Professionals []models.Professional `json:"professionals"`
}
