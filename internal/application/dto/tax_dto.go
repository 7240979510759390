package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Generate1099Request runs the information returns for a calendar year.
type Generate1099Request struct {
	OrgID     uuid.UUID `json:"org_id"`
	StateCode string    `json:"state_code"`
	Year      int       `json:"year"`
}

// Form1099Response is one generated information return.
type Form1099Response struct {
	FormID        uuid.UUID       `json:"form_id"`
	RecipientID   uuid.UUID       `json:"recipient_id"`
	RecipientName string          `json:"recipient_name"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
}

// ExcludedRecipientResponse names a recipient kept out of the run.
type ExcludedRecipientResponse struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Name        string    `json:"name"`
	Reason      string    `json:"reason"`
}

// Generate1099Response is the run result with the rendered FIRE file.
type Generate1099Response struct {
	Year        int                         `json:"year"`
	Threshold   decimal.Decimal             `json:"threshold"`
	Forms       []Form1099Response          `json:"forms"`
	Excluded    []ExcludedRecipientResponse `json:"excluded,omitempty"`
	FIREFile    string                      `json:"fire_file,omitempty"`
	GeneratedAt time.Time                   `json:"generated_at"`
}
