package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

// Account is a chart-of-accounts row. Accounts are immutable once any
// posting references them; the engine only ever creates and reads them.
type Account struct {
	id            uuid.UUID
	orgID         uuid.UUID
	code          valueobject.AccountCode
	name          string
	accountType   valueobject.AccountType
	normalBalance valueobject.NormalBalance
	subtype       valueobject.AccountSubtype
	createdAt     time.Time
}

// NewAccount creates an account with the conventional normal balance for its
// type unless one is given.
func NewAccount(orgID uuid.UUID, code valueobject.AccountCode, name string, accountType valueobject.AccountType, subtype valueobject.AccountSubtype) (Account, error) {
	if orgID == uuid.Nil {
		return Account{}, fmt.Errorf("organization id is required")
	}
	if code.IsZero() {
		return Account{}, fmt.Errorf("account code is required")
	}
	if !accountType.Valid() {
		return Account{}, fmt.Errorf("invalid account type %q", accountType)
	}
	return Account{
		id:            uuid.New(),
		orgID:         orgID,
		code:          code,
		name:          name,
		accountType:   accountType,
		normalBalance: accountType.DefaultNormalBalance(),
		subtype:       subtype,
		createdAt:     time.Now().UTC(),
	}, nil
}

// ReconstructAccount recreates an Account from persistence.
func ReconstructAccount(id, orgID uuid.UUID, code valueobject.AccountCode, name string, accountType valueobject.AccountType, normalBalance valueobject.NormalBalance, subtype valueobject.AccountSubtype, createdAt time.Time) Account {
	return Account{
		id:            id,
		orgID:         orgID,
		code:          code,
		name:          name,
		accountType:   accountType,
		normalBalance: normalBalance,
		subtype:       subtype,
		createdAt:     createdAt,
	}
}

func (a Account) ID() uuid.UUID                              { return a.id }
func (a Account) OrgID() uuid.UUID                           { return a.orgID }
func (a Account) Code() valueobject.AccountCode              { return a.code }
func (a Account) Name() string                               { return a.name }
func (a Account) Type() valueobject.AccountType              { return a.accountType }
func (a Account) NormalBalance() valueobject.NormalBalance   { return a.normalBalance }
func (a Account) Subtype() valueobject.AccountSubtype        { return a.subtype }
func (a Account) CreatedAt() time.Time                       { return a.createdAt }
