package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositStatus is the lifecycle state of a held security deposit.
type DepositStatus string

const (
	DepositStatusHeld      DepositStatus = "held"
	DepositStatusReturned  DepositStatus = "returned"
	DepositStatusForfeited DepositStatus = "forfeited"
)

// SecurityDeposit tracks one tenant's deposit from collection to return.
type SecurityDeposit struct {
	ID              uuid.UUID
	OrgID           uuid.UUID
	PropertyID      uuid.UUID
	TenantID        uuid.UUID
	Amount          decimal.Decimal
	StateCode       string
	Status          DepositStatus
	CollectedAt     time.Time
	MoveOutDate     *time.Time
	InterestAccrued decimal.Decimal
	ReturnedAmount  decimal.Decimal
	ReturnDeadline  *time.Time
	CheckNumber     *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSecurityDeposit records a held deposit.
func NewSecurityDeposit(orgID, propertyID, tenantID uuid.UUID, amount decimal.Decimal, stateCode string, collectedAt time.Time) (*SecurityDeposit, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("deposit amount must be positive, got %s", amount)
	}
	now := time.Now().UTC()
	return &SecurityDeposit{
		ID:          uuid.New(),
		OrgID:       orgID,
		PropertyID:  propertyID,
		TenantID:    tenantID,
		Amount:      amount,
		StateCode:   stateCode,
		Status:      DepositStatusHeld,
		CollectedAt: collectedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MarkReturned transitions the deposit to returned. Terminal.
func (d *SecurityDeposit) MarkReturned(refund, interest decimal.Decimal, checkNumber *int64) error {
	if d.Status != DepositStatusHeld {
		return fmt.Errorf("deposit %s is %s, not held", d.ID, d.Status)
	}
	d.Status = DepositStatusReturned
	d.ReturnedAmount = refund
	d.InterestAccrued = interest
	d.CheckNumber = checkNumber
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkForfeited transitions the deposit to forfeited. Terminal.
func (d *SecurityDeposit) MarkForfeited() error {
	if d.Status != DepositStatusHeld {
		return fmt.Errorf("deposit %s is %s, not held", d.ID, d.Status)
	}
	d.Status = DepositStatusForfeited
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// DepositDeduction is one itemized deduction on a return statement.
type DepositDeduction struct {
	Category    string
	Description string
	Amount      decimal.Decimal
}
