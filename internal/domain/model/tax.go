package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vendor is a payee tracked for information returns.
type Vendor struct {
	ID      uuid.UUID
	OrgID   uuid.UUID
	Name    string
	TIN     string
	HasW9   bool
	Address string
}

// Form1099Type selects the information return variant.
type Form1099Type string

const (
	Form1099NEC  Form1099Type = "NEC"
	Form1099MISC Form1099Type = "MISC"
)

// Form1099 is one recipient's information return for a tax year.
type Form1099 struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	RecipientID   uuid.UUID
	RecipientName string
	TIN           string
	Address       string
	Type          Form1099Type
	Year          int
	Amount        decimal.Decimal
	GeneratedAt   time.Time
}

// ExcludedRecipient records why a recipient above the reporting threshold
// could not be included in the transmission.
type ExcludedRecipient struct {
	RecipientID uuid.UUID
	Name        string
	Reason      string
}

// Tax1099Run is the outcome of generating returns for one year.
type Tax1099Run struct {
	OrgID     uuid.UUID
	Year      int
	Threshold decimal.Decimal
	Forms     []Form1099
	Excluded  []ExcludedRecipient
}
