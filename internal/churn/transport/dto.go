// Package transport defines the HTTP request and response shapes for the
// churn workflow endpoints.
package transport

import (
	"opsboard_backend/platform/apperr"
	"opsboard_backend/platform/validator"

	"github.com/google/uuid"
)

var validate = validator.New()

// InitiateRequest is the body for POST /churn. Omitting productSlug churns
// the whole client.
type InitiateRequest struct {
	ClientID         uuid.UUID `json:"clientId" binding:"required"`
	ProductSlug      *string   `json:"productSlug,omitempty" binding:"omitempty,min=1,max=100"`
	HadValidContract bool      `json:"hadValidContract"`
}

// AdvanceRequest is the body for POST /churn/:id/advance. The client echoes
// the step it last read; a mismatch rejects the advance.
type AdvanceRequest struct {
	ExpectedCurrentStep string `json:"expectedCurrentStep" binding:"required"`
}

// Validate rejects step names outside the closed set before the service
// compares them against any track.
func (r AdvanceRequest) Validate() error {
	err := validate.Var(r.ExpectedCurrentStep,
		"oneof=requested billing_removed termination_sent termination_signed effective")
	if err != nil {
		return apperr.BadRequest("unknown churn step").
			WithDetails(map[string]string{"expectedCurrentStep": r.ExpectedCurrentStep})
	}
	return nil
}
