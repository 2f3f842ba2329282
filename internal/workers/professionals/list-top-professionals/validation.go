// internal/workers/professionals/list-top-professionals/validation.go
package listtopprofessionals

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
			"limit": {
				Type:        "integer",
				Description: "Number of featured professionals",
				Minimum:     validation.FloatPtr(1),
				Maximum:     validation.FloatPtr(float64(maxLimit)),
				Nullable:    true,
			},
			"refreshSeed": {
				Type:        "integer",
				Description: "Reshuffle token added to the ordering seed",
				Minimum:     validation.FloatPtr(0),
				Nullable:    true,
			},
		},
		AdditionalProperties: true,
	}
}
