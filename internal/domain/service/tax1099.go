package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/pkg/fire"
	"github.com/GoLearn21/propmaster-sub001/pkg/money"
)

// Tax1099Service tracks calendar-year payments per vendor and per owner,
// applies the reporting threshold, and renders the FIRE transmission.
// Vendors above the threshold get 1099-NEC; owners get 1099-MISC.
type Tax1099Service struct {
	tax        port.TaxRepository
	owners     port.OwnerRepository
	compliance *ComplianceService
	payer      fire.Payer
	transmit   fire.Transmitter
	logger     *slog.Logger
}

func NewTax1099Service(tax port.TaxRepository, owners port.OwnerRepository, compliance *ComplianceService, payer fire.Payer, transmit fire.Transmitter, logger *slog.Logger) *Tax1099Service {
	return &Tax1099Service{
		tax:        tax,
		owners:     owners,
		compliance: compliance,
		payer:      payer,
		transmit:   transmit,
		logger:     logger,
	}
}

// BuildRun assembles the year's information returns. Recipients above the
// threshold with missing TIN, W-9, or address are excluded and reported
// per-recipient rather than failing the run.
func (t *Tax1099Service) BuildRun(ctx context.Context, orgID uuid.UUID, stateCode string, year int) (model.Tax1099Run, error) {
	asOf := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	threshold, err := t.compliance.Threshold1099(ctx, orgID, stateCode, asOf)
	if err != nil {
		return model.Tax1099Run{}, err
	}

	run := model.Tax1099Run{OrgID: orgID, Year: year, Threshold: threshold}
	now := time.Now().UTC()

	vendorTotals, err := t.tax.VendorPaymentsForYear(ctx, orgID, year)
	if err != nil {
		return model.Tax1099Run{}, err
	}
	for _, vendorID := range sortedKeys(vendorTotals) {
		total := vendorTotals[vendorID]
		if total.LessThan(threshold) {
			continue
		}
		vendor, err := t.tax.FindVendor(ctx, orgID, vendorID)
		if err != nil {
			return model.Tax1099Run{}, err
		}
		if reason := recipientBlocker(vendor.TIN, vendor.HasW9, vendor.Address); reason != "" {
			run.Excluded = append(run.Excluded, model.ExcludedRecipient{RecipientID: vendorID, Name: vendor.Name, Reason: reason})
			continue
		}
		run.Forms = append(run.Forms, model.Form1099{
			ID:            uuid.New(),
			OrgID:         orgID,
			RecipientID:   vendorID,
			RecipientName: vendor.Name,
			TIN:           vendor.TIN,
			Address:       vendor.Address,
			Type:          model.Form1099NEC,
			Year:          year,
			Amount:        total,
			GeneratedAt:   now,
		})
	}

	ownerTotals, err := t.tax.OwnerIncomeForYear(ctx, orgID, year)
	if err != nil {
		return model.Tax1099Run{}, err
	}
	for _, ownerID := range sortedKeys(ownerTotals) {
		total := ownerTotals[ownerID]
		if total.LessThan(threshold) {
			continue
		}
		owner, err := t.owners.FindByID(ctx, orgID, ownerID)
		if err != nil {
			return model.Tax1099Run{}, err
		}
		if reason := recipientBlocker(owner.TIN, owner.HasW9, owner.Address); reason != "" {
			run.Excluded = append(run.Excluded, model.ExcludedRecipient{RecipientID: ownerID, Name: owner.Name, Reason: reason})
			continue
		}
		run.Forms = append(run.Forms, model.Form1099{
			ID:            uuid.New(),
			OrgID:         orgID,
			RecipientID:   ownerID,
			RecipientName: owner.Name,
			TIN:           owner.TIN,
			Address:       owner.Address,
			Type:          model.Form1099MISC,
			Year:          year,
			Amount:        total,
			GeneratedAt:   now,
		})
	}

	for _, ex := range run.Excluded {
		t.logger.Warn("1099 recipient excluded",
			slog.String("org_id", orgID.String()),
			slog.String("recipient_id", ex.RecipientID.String()),
			slog.String("reason", ex.Reason))
	}
	return run, nil
}

// RenderFIRE produces the fixed-width transmission file for a run, one
// payer group per return type.
func (t *Tax1099Service) RenderFIRE(run model.Tax1099Run) (string, error) {
	groups := map[model.Form1099Type][]fire.Payee{}
	for _, f := range run.Forms {
		groups[f.Type] = append(groups[f.Type], fire.Payee{
			TIN:         f.TIN,
			Name:        f.RecipientName,
			AccountID:   f.RecipientID.String()[:12],
			AmountCents: money.Cents(f.Amount),
			Address:     f.Address,
		})
	}
	if len(groups) == 0 {
		return "", fmt.Errorf("1099 run for %d has no includable recipients", run.Year)
	}

	tx := fire.Transmission{Year: run.Year, Transmitter: t.transmit}
	for _, rt := range []model.Form1099Type{model.Form1099NEC, model.Form1099MISC} {
		payees, ok := groups[rt]
		if !ok {
			continue
		}
		payer := t.payer
		payer.ReturnType = fire.ReturnType(rt)
		tx.Groups = append(tx.Groups, fire.PayerGroup{Payer: payer, Payees: payees})
	}
	return tx.Render()
}

// recipientBlocker returns the status error keeping a recipient out of the
// transmission, or empty when none applies.
func recipientBlocker(tin string, hasW9 bool, address string) string {
	switch {
	case fire.DigitsOnly(tin) == "":
		return "missing TIN"
	case !hasW9:
		return "missing W-9"
	case address == "":
		return "invalid address"
	default:
		return ""
	}
}

func sortedKeys(m map[uuid.UUID]decimal.Decimal) []uuid.UUID {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
