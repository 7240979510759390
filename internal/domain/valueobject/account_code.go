package valueobject

import (
	"fmt"
	"regexp"
)

// AccountCode represents a chart-of-accounts code (e.g., "1000" or "1000-001").
// Immutable value object with unexported fields.
type AccountCode struct {
	code string
}

var accountCodeRegex = regexp.MustCompile(`^[0-9]{4}(-[0-9]{3})?$`)

func NewAccountCode(code string) (AccountCode, error) {
	if !accountCodeRegex.MatchString(code) {
		return AccountCode{}, fmt.Errorf("invalid account code %q: must match pattern NNNN or NNNN-NNN", code)
	}
	return AccountCode{code: code}, nil
}

func MustAccountCode(code string) AccountCode {
	ac, err := NewAccountCode(code)
	if err != nil {
		panic(err)
	}
	return ac
}

func (a AccountCode) String() string { return a.code }
func (a AccountCode) Code() string   { return a.code }
func (a AccountCode) IsZero() bool   { return a.code == "" }

func (a AccountCode) Equal(other AccountCode) bool {
	return a.code == other.code
}

// AccountType classifies an account in the accounting equation.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance is the side on which an account normally carries its balance.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

// DefaultNormalBalance returns the conventional normal balance for a type.
func (t AccountType) DefaultNormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// AccountSubtype tags accounts that participate in trust-integrity math.
type AccountSubtype string

const (
	SubtypeTrustBank         AccountSubtype = "trust_bank"
	SubtypeSecurityDeposit   AccountSubtype = "security_deposit"
	SubtypeOwnerLiability    AccountSubtype = "owner_liability"
	SubtypeOutstandingChecks AccountSubtype = "outstanding_checks"
)
