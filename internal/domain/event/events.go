package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// Aggregate type names used on outbox rows.
const (
	AggregateTypeJournalEntry    = "JournalEntry"
	AggregateTypePeriod          = "AccountingPeriod"
	AggregateTypeSaga            = "Saga"
	AggregateTypeSecurityDeposit = "SecurityDeposit"
	AggregateTypeNachaFile       = "NachaFile"
	AggregateTypeNotification    = "Notification"
)

// EntryPosted is emitted in the same transaction as the journal entry.
type EntryPosted struct {
	events.BaseEvent
	EntryID       uuid.UUID `json:"entry_id"`
	OrgID         uuid.UUID `json:"org_id"`
	EffectiveDate time.Time `json:"effective_date"`
	SourceType    string    `json:"source_type"`
	TotalDebits   string    `json:"total_debits"`
}

func NewEntryPosted(entryID, orgID uuid.UUID, effectiveDate time.Time, sourceType string, totalDebits decimal.Decimal, traceID string) EntryPosted {
	payload, _ := json.Marshal(struct {
		EntryID       uuid.UUID `json:"entry_id"`
		OrgID         uuid.UUID `json:"org_id"`
		EffectiveDate time.Time `json:"effective_date"`
		SourceType    string    `json:"source_type"`
		TotalDebits   string    `json:"total_debits"`
	}{entryID, orgID, effectiveDate, sourceType, totalDebits.String()})

	return EntryPosted{
		BaseEvent:     events.NewBaseEvent("journal.posted", entryID, AggregateTypeJournalEntry, traceID, payload),
		EntryID:       entryID,
		OrgID:         orgID,
		EffectiveDate: effectiveDate,
		SourceType:    sourceType,
		TotalDebits:   totalDebits.String(),
	}
}

// EntryReversed is emitted when a reversal entry is posted, keyed on the
// original entry.
type EntryReversed struct {
	events.BaseEvent
	EntryID         uuid.UUID `json:"entry_id"`
	ReversalEntryID uuid.UUID `json:"reversal_entry_id"`
	OrgID           uuid.UUID `json:"org_id"`
	Reason          string    `json:"reason"`
}

func NewEntryReversed(entryID, reversalEntryID, orgID uuid.UUID, reason, traceID string) EntryReversed {
	payload, _ := json.Marshal(struct {
		EntryID         uuid.UUID `json:"entry_id"`
		ReversalEntryID uuid.UUID `json:"reversal_entry_id"`
		OrgID           uuid.UUID `json:"org_id"`
		Reason          string    `json:"reason"`
	}{entryID, reversalEntryID, orgID, reason})

	return EntryReversed{
		BaseEvent:       events.NewBaseEvent("journal.reversed", entryID, AggregateTypeJournalEntry, traceID, payload),
		EntryID:         entryID,
		ReversalEntryID: reversalEntryID,
		OrgID:           orgID,
		Reason:          reason,
	}
}

// PeriodClosed is emitted when an accounting period is frozen.
type PeriodClosed struct {
	events.BaseEvent
	OrgID  uuid.UUID `json:"org_id"`
	Period string    `json:"period"`
}

func NewPeriodClosed(orgID uuid.UUID, period, traceID string) PeriodClosed {
	id := uuid.New()
	payload, _ := json.Marshal(struct {
		OrgID  uuid.UUID `json:"org_id"`
		Period string    `json:"period"`
	}{orgID, period})

	return PeriodClosed{
		BaseEvent: events.NewBaseEvent("period.closed", id, AggregateTypePeriod, traceID, payload),
		OrgID:     orgID,
		Period:    period,
	}
}

// SagaStepReady drives the saga forward: each step execution commits the
// next step's readiness event with its own state change, and the outbox
// worker picks it up to run the next step.
type SagaStepReady struct {
	events.BaseEvent
	Saga     uuid.UUID `json:"saga_id"`
	SagaName string    `json:"saga_name"`
	Step     string    `json:"step"`
}

func NewSagaStepReady(sagaID uuid.UUID, sagaName, step, traceID string) SagaStepReady {
	payload, _ := json.Marshal(struct {
		SagaID   uuid.UUID `json:"saga_id"`
		SagaName string    `json:"saga_name"`
		Step     string    `json:"step"`
	}{sagaID, sagaName, step})

	return SagaStepReady{
		BaseEvent: events.NewBaseEvent("saga.step.ready", sagaID, AggregateTypeSaga, traceID, payload),
		Saga:      sagaID,
		SagaName:  sagaName,
		Step:      step,
	}
}

func (e SagaStepReady) SagaID() uuid.UUID { return e.Saga }

// SagaCompleted is emitted when a saga finishes its last forward step.
type SagaCompleted struct {
	events.BaseEvent
	Saga     uuid.UUID       `json:"saga_id"`
	SagaName string          `json:"saga_name"`
	Result   json.RawMessage `json:"result,omitempty"`
}

func NewSagaCompleted(sagaID uuid.UUID, sagaName string, result json.RawMessage, traceID string) SagaCompleted {
	payload, _ := json.Marshal(struct {
		SagaID   uuid.UUID       `json:"saga_id"`
		SagaName string          `json:"saga_name"`
		Result   json.RawMessage `json:"result,omitempty"`
	}{sagaID, sagaName, result})

	return SagaCompleted{
		BaseEvent: events.NewBaseEvent("saga.completed", sagaID, AggregateTypeSaga, traceID, payload),
		Saga:      sagaID,
		SagaName:  sagaName,
		Result:    result,
	}
}

func (e SagaCompleted) SagaID() uuid.UUID { return e.Saga }

// SagaCompensated is emitted after the last compensation step runs.
type SagaCompensated struct {
	events.BaseEvent
	Saga      uuid.UUID `json:"saga_id"`
	SagaName  string    `json:"saga_name"`
	ErrorStep string    `json:"error_step"`
	ErrorMsg  string    `json:"error_message"`
}

func NewSagaCompensated(sagaID uuid.UUID, sagaName, errorStep, errorMsg, traceID string) SagaCompensated {
	payload, _ := json.Marshal(struct {
		SagaID    uuid.UUID `json:"saga_id"`
		SagaName  string    `json:"saga_name"`
		ErrorStep string    `json:"error_step"`
		ErrorMsg  string    `json:"error_message"`
	}{sagaID, sagaName, errorStep, errorMsg})

	return SagaCompensated{
		BaseEvent: events.NewBaseEvent("saga.compensated", sagaID, AggregateTypeSaga, traceID, payload),
		Saga:      sagaID,
		SagaName:  sagaName,
		ErrorStep: errorStep,
		ErrorMsg:  errorMsg,
	}
}

func (e SagaCompensated) SagaID() uuid.UUID { return e.Saga }

// DepositCollected is emitted when a security deposit is recorded as held.
type DepositCollected struct {
	events.BaseEvent
	DepositID uuid.UUID `json:"deposit_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Amount    string    `json:"amount"`
	StateCode string    `json:"state_code"`
}

func NewDepositCollected(depositID, tenantID uuid.UUID, amount decimal.Decimal, stateCode, traceID string) DepositCollected {
	payload, _ := json.Marshal(struct {
		DepositID uuid.UUID `json:"deposit_id"`
		TenantID  uuid.UUID `json:"tenant_id"`
		Amount    string    `json:"amount"`
		StateCode string    `json:"state_code"`
	}{depositID, tenantID, amount.String(), stateCode})

	return DepositCollected{
		BaseEvent: events.NewBaseEvent("security_deposit.collected", depositID, AggregateTypeSecurityDeposit, traceID, payload),
		DepositID: depositID,
		TenantID:  tenantID,
		Amount:    amount.String(),
		StateCode: stateCode,
	}
}

// DepositReturned is emitted when the return flow finishes, carrying the
// itemized statement for downstream notification.
type DepositReturned struct {
	events.BaseEvent
	DepositID uuid.UUID `json:"deposit_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Refund    string    `json:"refund"`
	Interest  string    `json:"interest"`
}

func NewDepositReturned(depositID, tenantID uuid.UUID, refund, interest decimal.Decimal, traceID string) DepositReturned {
	payload, _ := json.Marshal(struct {
		DepositID uuid.UUID `json:"deposit_id"`
		TenantID  uuid.UUID `json:"tenant_id"`
		Refund    string    `json:"refund"`
		Interest  string    `json:"interest"`
	}{depositID, tenantID, refund.String(), interest.String()})

	return DepositReturned{
		BaseEvent: events.NewBaseEvent("security_deposit.returned", depositID, AggregateTypeSecurityDeposit, traceID, payload),
		DepositID: depositID,
		TenantID:  tenantID,
		Refund:    refund.String(),
		Interest:  interest.String(),
	}
}

// NachaGenerated signals that an ACH file is ready for submission.
type NachaGenerated struct {
	events.BaseEvent
	FileID     uuid.UUID `json:"file_id"`
	Saga       uuid.UUID `json:"saga_id"`
	EntryCount int       `json:"entry_count"`
	TotalCents int64     `json:"total_cents"`
}

func NewNachaGenerated(fileID, sagaID uuid.UUID, entryCount int, totalCents int64, traceID string) NachaGenerated {
	payload, _ := json.Marshal(struct {
		FileID     uuid.UUID `json:"file_id"`
		SagaID     uuid.UUID `json:"saga_id"`
		EntryCount int       `json:"entry_count"`
		TotalCents int64     `json:"total_cents"`
	}{fileID, sagaID, entryCount, totalCents})

	return NachaGenerated{
		BaseEvent:  events.NewBaseEvent("bank.nacha.generated", fileID, AggregateTypeNachaFile, traceID, payload),
		FileID:     fileID,
		Saga:       sagaID,
		EntryCount: entryCount,
		TotalCents: totalCents,
	}
}

func (e NachaGenerated) SagaID() uuid.UUID { return e.Saga }

// CheckPrintQueued asks the print pipeline to cut a physical check.
type CheckPrintQueued struct {
	events.BaseEvent
	CheckNumber int64     `json:"check_number"`
	PayeeID     uuid.UUID `json:"payee_id"`
	PayeeName   string    `json:"payee_name"`
	Amount      string    `json:"amount"`
	Memo        string    `json:"memo"`
}

func NewCheckPrintQueued(payeeID uuid.UUID, checkNumber int64, payeeName string, amount decimal.Decimal, memo, traceID string) CheckPrintQueued {
	payload, _ := json.Marshal(struct {
		CheckNumber int64     `json:"check_number"`
		PayeeID     uuid.UUID `json:"payee_id"`
		PayeeName   string    `json:"payee_name"`
		Amount      string    `json:"amount"`
		Memo        string    `json:"memo"`
	}{checkNumber, payeeID, payeeName, amount.String(), memo})

	return CheckPrintQueued{
		BaseEvent:   events.NewBaseEvent("check.print.queue", payeeID, AggregateTypeNotification, traceID, payload),
		CheckNumber: checkNumber,
		PayeeID:     payeeID,
		PayeeName:   payeeName,
		Amount:      amount.String(),
		Memo:        memo,
	}
}

// NotificationRequested asks the notification pipeline to deliver a message.
type NotificationRequested struct {
	events.BaseEvent
	RecipientID uuid.UUID `json:"recipient_id"`
	Channel     string    `json:"channel"`
	Template    string    `json:"template"`
	Body        string    `json:"body"`
}

func NewNotificationRequested(recipientID uuid.UUID, channel, template, body, traceID string) NotificationRequested {
	payload, _ := json.Marshal(struct {
		RecipientID uuid.UUID `json:"recipient_id"`
		Channel     string    `json:"channel"`
		Template    string    `json:"template"`
		Body        string    `json:"body"`
	}{recipientID, channel, template, body})

	return NotificationRequested{
		BaseEvent:   events.NewBaseEvent("notification.send", recipientID, AggregateTypeNotification, traceID, payload),
		RecipientID: recipientID,
		Channel:     channel,
		Template:    template,
		Body:        body,
	}
}

// DiagnosticFailed is emitted when an integrity check finds a discrepancy.
type DiagnosticFailed struct {
	events.BaseEvent
	OrgID  uuid.UUID `json:"org_id"`
	Check  string    `json:"check"`
	Detail string    `json:"detail"`
}

func NewDiagnosticFailed(orgID uuid.UUID, check, detail, traceID string) DiagnosticFailed {
	id := uuid.New()
	payload, _ := json.Marshal(struct {
		OrgID  uuid.UUID `json:"org_id"`
		Check  string    `json:"check"`
		Detail string    `json:"detail"`
	}{orgID, check, detail})

	return DiagnosticFailed{
		BaseEvent: events.NewBaseEvent("diagnostic.failed", id, "Diagnostic", traceID, payload),
		OrgID:     orgID,
		Check:     check,
		Detail:    detail,
	}
}
