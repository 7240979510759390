package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// DistributionScheduled is emitted when a distribution saga has calculated
// its per-owner amounts.
type DistributionScheduled struct {
	events.BaseEvent
	Saga       uuid.UUID `json:"saga_id"`
	PropertyID uuid.UUID `json:"property_id"`
	OwnerCount int       `json:"owner_count"`
	Total      string    `json:"total"`
}

func NewDistributionScheduled(sagaID, propertyID uuid.UUID, ownerCount int, total decimal.Decimal, traceID string) DistributionScheduled {
	payload, _ := json.Marshal(struct {
		SagaID     uuid.UUID `json:"saga_id"`
		PropertyID uuid.UUID `json:"property_id"`
		OwnerCount int       `json:"owner_count"`
		Total      string    `json:"total"`
	}{sagaID, propertyID, ownerCount, total.String()})

	return DistributionScheduled{
		BaseEvent:  events.NewBaseEvent("distribution.scheduled", sagaID, AggregateTypeSaga, traceID, payload),
		Saga:       sagaID,
		PropertyID: propertyID,
		OwnerCount: ownerCount,
		Total:      total.String(),
	}
}

func (e DistributionScheduled) SagaID() uuid.UUID { return e.Saga }

// DistributionCompleted is emitted when all owner payments are recorded.
type DistributionCompleted struct {
	events.BaseEvent
	Saga       uuid.UUID `json:"saga_id"`
	PropertyID uuid.UUID `json:"property_id"`
	Total      string    `json:"total"`
}

func NewDistributionCompleted(sagaID, propertyID uuid.UUID, total decimal.Decimal, traceID string) DistributionCompleted {
	payload, _ := json.Marshal(struct {
		SagaID     uuid.UUID `json:"saga_id"`
		PropertyID uuid.UUID `json:"property_id"`
		Total      string    `json:"total"`
	}{sagaID, propertyID, total.String()})

	return DistributionCompleted{
		BaseEvent:  events.NewBaseEvent("distribution.completed", sagaID, AggregateTypeSaga, traceID, payload),
		Saga:       sagaID,
		PropertyID: propertyID,
		Total:      total.String(),
	}
}

func (e DistributionCompleted) SagaID() uuid.UUID { return e.Saga }

// DistributionCompensationCompleted is emitted after a failed distribution
// saga has undone all its effects.
type DistributionCompensationCompleted struct {
	events.BaseEvent
	Saga      uuid.UUID `json:"saga_id"`
	ErrorStep string    `json:"error_step"`
}

func NewDistributionCompensationCompleted(sagaID uuid.UUID, errorStep, traceID string) DistributionCompensationCompleted {
	payload, _ := json.Marshal(struct {
		SagaID    uuid.UUID `json:"saga_id"`
		ErrorStep string    `json:"error_step"`
	}{sagaID, errorStep})

	return DistributionCompensationCompleted{
		BaseEvent: events.NewBaseEvent("distribution.compensation.completed", sagaID, AggregateTypeSaga, traceID, payload),
		Saga:      sagaID,
		ErrorStep: errorStep,
	}
}

func (e DistributionCompensationCompleted) SagaID() uuid.UUID { return e.Saga }

// NachaSubmitRequested asks the bank-link handler to transmit a generated
// ACH file.
type NachaSubmitRequested struct {
	events.BaseEvent
	FileID uuid.UUID `json:"file_id"`
	Saga   uuid.UUID `json:"saga_id"`
}

func NewNachaSubmitRequested(fileID, sagaID uuid.UUID, traceID string) NachaSubmitRequested {
	payload, _ := json.Marshal(struct {
		FileID uuid.UUID `json:"file_id"`
		SagaID uuid.UUID `json:"saga_id"`
	}{fileID, sagaID})

	return NachaSubmitRequested{
		BaseEvent: events.NewBaseEvent("bank.nacha.submit", fileID, AggregateTypeNachaFile, traceID, payload),
		FileID:    fileID,
		Saga:      sagaID,
	}
}

func (e NachaSubmitRequested) SagaID() uuid.UUID { return e.Saga }

// NachaCancelRequested asks for out-of-band reversal of a file already
// handed to the bank.
type NachaCancelRequested struct {
	events.BaseEvent
	FileID uuid.UUID `json:"file_id"`
	Saga   uuid.UUID `json:"saga_id"`
	Reason string    `json:"reason"`
}

func NewNachaCancelRequested(fileID, sagaID uuid.UUID, reason, traceID string) NachaCancelRequested {
	payload, _ := json.Marshal(struct {
		FileID uuid.UUID `json:"file_id"`
		SagaID uuid.UUID `json:"saga_id"`
		Reason string    `json:"reason"`
	}{fileID, sagaID, reason})

	return NachaCancelRequested{
		BaseEvent: events.NewBaseEvent("bank.nacha.cancel", fileID, AggregateTypeNachaFile, traceID, payload),
		FileID:    fileID,
		Saga:      sagaID,
		Reason:    reason,
	}
}

func (e NachaCancelRequested) SagaID() uuid.UUID { return e.Saga }

// SweepRequested asks the bank-link handler to move deposit funds into the
// segregated account states that require one.
type SweepRequested struct {
	events.BaseEvent
	DepositID uuid.UUID `json:"deposit_id"`
	Amount    string    `json:"amount"`
	StateCode string    `json:"state_code"`
}

func NewSweepRequested(depositID uuid.UUID, amount decimal.Decimal, stateCode, traceID string) SweepRequested {
	payload, _ := json.Marshal(struct {
		DepositID uuid.UUID `json:"deposit_id"`
		Amount    string    `json:"amount"`
		StateCode string    `json:"state_code"`
	}{depositID, amount.String(), stateCode})

	return SweepRequested{
		BaseEvent: events.NewBaseEvent("sweep.security_deposit", depositID, AggregateTypeSecurityDeposit, traceID, payload),
		DepositID: depositID,
		Amount:    amount.String(),
		StateCode: stateCode,
	}
}

// PaymentNSF is emitted when a tenant payment bounces.
type PaymentNSF struct {
	events.BaseEvent
	PaymentEntryID uuid.UUID `json:"payment_entry_id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	Amount         string    `json:"amount"`
}

func NewPaymentNSF(paymentEntryID, tenantID uuid.UUID, amount decimal.Decimal, traceID string) PaymentNSF {
	payload, _ := json.Marshal(struct {
		PaymentEntryID uuid.UUID `json:"payment_entry_id"`
		TenantID       uuid.UUID `json:"tenant_id"`
		Amount         string    `json:"amount"`
	}{paymentEntryID, tenantID, amount.String()})

	return PaymentNSF{
		BaseEvent:      events.NewBaseEvent("payment.nsf", paymentEntryID, AggregateTypeJournalEntry, traceID, payload),
		PaymentEntryID: paymentEntryID,
		TenantID:       tenantID,
		Amount:         amount.String(),
	}
}

// LateFeeAssessed is emitted when a capped late fee is posted.
type LateFeeAssessed struct {
	events.BaseEvent
	EntryID    uuid.UUID `json:"entry_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	Fee        string    `json:"fee"`
	AssessedOn time.Time `json:"assessed_on"`
}

func NewLateFeeAssessed(entryID, tenantID uuid.UUID, fee decimal.Decimal, assessedOn time.Time, traceID string) LateFeeAssessed {
	payload, _ := json.Marshal(struct {
		EntryID    uuid.UUID `json:"entry_id"`
		TenantID   uuid.UUID `json:"tenant_id"`
		Fee        string    `json:"fee"`
		AssessedOn time.Time `json:"assessed_on"`
	}{entryID, tenantID, fee.String(), assessedOn})

	return LateFeeAssessed{
		BaseEvent:  events.NewBaseEvent("late_fee.assessed", entryID, AggregateTypeJournalEntry, traceID, payload),
		EntryID:    entryID,
		TenantID:   tenantID,
		Fee:        fee.String(),
		AssessedOn: assessedOn,
	}
}
