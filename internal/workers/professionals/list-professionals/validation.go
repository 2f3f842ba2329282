// internal/workers/professionals/list-professionals/validation.go
package listprofessionals

import "estate-workers/internal/common/validation"

func GetInputSchema(maxLimit int) validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"sessionToken": {
				Type:        "string",
				Description: "Session token of the caller, absent for anonymous visitors",
				MaxLength:   validation.IntPtr(512),
				Nullable:    true,
			},
			"role": {
				Type:        "string",
				Description: "Professional role filter",
				Enum:        []string{"AGENT", "AGENCY", "ALL"},
				Nullable:    true,
			},
			"page": {
				Type:        "integer",
				Description: "1-based page number",
				Minimum:     validation.FloatPtr(1),
				Nullable:    true,
			},
			"limit": {
				Type:        "integer",
				Description: "Page size",
				Minimum:     validation.FloatPtr(1),
				Maximum:     validation.FloatPtr(float64(maxLimit)),
				Nullable:    true,
			},
			"search": {
				Type:        "string",
				Description: "Free-text search over name, company, location and bio",
				MaxLength:   validation.IntPtr(200),
				Nullable:    true,
			},
			"sortBy": {
				Type:        "string",
				Description: "Ordering strategy",
				Enum:        []string{"properties", "views", "newest", "random"},
				Nullable:    true,
			},
			"refreshSeed": {
				Type:        "integer",
				Description: "Reshuffle token added to the random ordering seed",
				Minimum:     validation.FloatPtr(0),
				Nullable:    true,
			},
		},
		// jobs carry every process variable
		AdditionalProperties: true,
	}
}
