package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/pkg/fire"
)

// mockTax implements port.TaxRepository for the 1099 run.
type mockTax struct {
	vendorTotals map[uuid.UUID]decimal.Decimal
	ownerTotals  map[uuid.UUID]decimal.Decimal
	vendors      map[uuid.UUID]model.Vendor
}

func (m *mockTax) VendorPaymentsForYear(_ context.Context, _ uuid.UUID, _ int) (map[uuid.UUID]decimal.Decimal, error) {
	return m.vendorTotals, nil
}

func (m *mockTax) OwnerIncomeForYear(_ context.Context, _ uuid.UUID, _ int) (map[uuid.UUID]decimal.Decimal, error) {
	return m.ownerTotals, nil
}

func (m *mockTax) FindVendor(_ context.Context, _ uuid.UUID, id uuid.UUID) (model.Vendor, error) {
	v, ok := m.vendors[id]
	if !ok {
		return model.Vendor{}, model.ErrAccountNotFound
	}
	return v, nil
}

type taxFixture struct {
	orgID   uuid.UUID
	tax     *mockTax
	owners  *mockOwners
	svc     *service.Tax1099Service
	plumber uuid.UUID
	painter uuid.UUID
	ownerA  uuid.UUID
}

// newTaxFixture seeds 2025 totals: a plumber at $5,000, a painter at $400
// (below threshold), and an owner with $12,000 of rental income.
func newTaxFixture(t *testing.T) *taxFixture {
	t.Helper()
	orgID := uuid.New()
	f := &taxFixture{
		orgID:   orgID,
		plumber: uuid.New(),
		painter: uuid.New(),
		ownerA:  uuid.New(),
	}
	f.tax = &mockTax{
		vendorTotals: map[uuid.UUID]decimal.Decimal{
			f.plumber: decimal.NewFromInt(5000),
			f.painter: decimal.NewFromInt(400),
		},
		ownerTotals: map[uuid.UUID]decimal.Decimal{
			f.ownerA: decimal.NewFromInt(12000),
		},
		vendors: map[uuid.UUID]model.Vendor{
			f.plumber: {ID: f.plumber, OrgID: orgID, Name: "ACME PLUMBING", TIN: "12-3456789", HasW9: true, Address: "1 Pipe St"},
			f.painter: {ID: f.painter, OrgID: orgID, Name: "BRUSH BROS", TIN: "98-7654321", HasW9: true, Address: "2 Roller Ave"},
		},
	}
	f.owners = &mockOwners{owners: []model.Owner{
		{ID: f.ownerA, OrgID: orgID, Name: "ALICE ARMSTRONG", TIN: "111-22-3333", HasW9: true, Address: "3 Main St"},
	}}

	rules := &mockRules{}
	rules.add("US", model.RuleTypeTax, model.RuleKeyThreshold1099, "600", ruleEpoch)

	f.svc = service.NewTax1099Service(
		f.tax, f.owners, service.NewComplianceService(rules),
		fire.Payer{TIN: "455555555", Name: "PROPMASTER MGMT", Address: "10 Office Park", City: "Raleigh", State: "NC", ZIP: "27601"},
		fire.Transmitter{TIN: "455555555", ControlCode: "TC123", Name: "PROPMASTER MGMT", CompanyName: "PROPMASTER MGMT",
			Address: "10 Office Park", City: "Raleigh", State: "NC", ZIP: "27601", ContactName: "PAT CONTROLLER", ContactPhone: "9195550100"},
		discardLogger(),
	)
	return f
}

func TestTax1099_BuildRun(t *testing.T) {
	f := newTaxFixture(t)

	run, err := f.svc.BuildRun(context.Background(), f.orgID, "US", 2025)
	require.NoError(t, err)
	assert.True(t, run.Threshold.Equal(decimal.NewFromInt(600)))
	require.Len(t, run.Forms, 2, "painter below threshold")
	assert.Empty(t, run.Excluded)

	byRecipient := map[uuid.UUID]model.Form1099{}
	for _, form := range run.Forms {
		byRecipient[form.RecipientID] = form
	}
	assert.Equal(t, model.Form1099NEC, byRecipient[f.plumber].Type)
	assert.Equal(t, model.Form1099MISC, byRecipient[f.ownerA].Type)
	assert.True(t, byRecipient[f.ownerA].Amount.Equal(decimal.NewFromInt(12000)))
}

func TestTax1099_ExcludesIncompleteRecipients(t *testing.T) {
	f := newTaxFixture(t)
	v := f.tax.vendors[f.plumber]
	v.TIN = ""
	f.tax.vendors[f.plumber] = v
	f.owners.owners[0].HasW9 = false

	run, err := f.svc.BuildRun(context.Background(), f.orgID, "US", 2025)
	require.NoError(t, err)
	assert.Empty(t, run.Forms)
	require.Len(t, run.Excluded, 2)

	reasons := map[uuid.UUID]string{}
	for _, ex := range run.Excluded {
		reasons[ex.RecipientID] = ex.Reason
	}
	assert.Equal(t, "missing TIN", reasons[f.plumber])
	assert.Equal(t, "missing W-9", reasons[f.ownerA])
}

func TestTax1099_RenderFIRE(t *testing.T) {
	f := newTaxFixture(t)
	run, err := f.svc.BuildRun(context.Background(), f.orgID, "US", 2025)
	require.NoError(t, err)

	out, err := f.svc.RenderFIRE(run)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for i, line := range lines {
		assert.Len(t, line, fire.RecordLength, "record %d", i+1)
	}
	// One payer group per return type: T, A, B, C, A, B, C, F.
	var types []byte
	for _, line := range lines {
		types = append(types, line[0])
	}
	assert.Equal(t, "TABCABCF", string(types))
}

func TestTax1099_RenderFIRE_EmptyRun(t *testing.T) {
	f := newTaxFixture(t)
	_, err := f.svc.RenderFIRE(model.Tax1099Run{Year: 2025})
	assert.Error(t, err)
}
