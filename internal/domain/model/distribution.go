package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DistributionStatus is the lifecycle state of one owner's distribution
// record. Records are deleted on saga compensation.
type DistributionStatus string

const (
	DistributionStatusPending   DistributionStatus = "pending"
	DistributionStatusProcessed DistributionStatus = "processed"
)

// PaymentMethod is how an owner receives funds.
type PaymentMethod string

const (
	PaymentMethodACH   PaymentMethod = "ach"
	PaymentMethodCheck PaymentMethod = "check"
)

// Distribution is one owner's share of a distribution run.
type Distribution struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	SagaID        uuid.UUID
	OwnerID       uuid.UUID
	Amount        decimal.Decimal
	Method        PaymentMethod
	Status        DistributionStatus
	JournalID     *uuid.UUID
	NachaFileID   *uuid.UUID
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

// Owner is the slice of owner data the distribution saga needs: current
// liability balance, reserve floor, and payment instructions.
type Owner struct {
	ID             uuid.UUID
	OrgID          uuid.UUID
	Name           string
	Method         PaymentMethod
	MinimumReserve decimal.Decimal
	// ACH instructions; empty for check-paid owners.
	BankRouting string // full 9-digit RDFI routing number
	BankAccount string
	TIN         string
	HasW9       bool
	Address     string
}

// NachaFileStatus tracks a generated ACH file through submission.
type NachaFileStatus string

const (
	NachaFileStatusGenerated NachaFileStatus = "generated"
	NachaFileStatusSubmitted NachaFileStatus = "submitted"
	NachaFileStatusCancelled NachaFileStatus = "cancelled"
)

// NachaFile is a generated ACH batch file awaiting bank submission.
type NachaFile struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	SagaID      uuid.UUID
	Contents    string
	TotalCents  int64
	EntryCount  int
	Status      NachaFileStatus
	CreatedAt   time.Time
	SubmittedAt *time.Time
}
