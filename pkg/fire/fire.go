// Package fire renders IRS FIRE 1099 transmission files: fixed 750-character
// records in T, A, B, C, F order. Amounts are integer cents and
// regulator-mandated positions are fixed; see IRS Publication 1220.
package fire

import (
	"fmt"
	"strings"
)

// RecordLength is the fixed width of every FIRE record.
const RecordLength = 750

// ReturnType selects the information return a payer group reports.
type ReturnType string

const (
	ReturnTypeNEC  ReturnType = "NEC"
	ReturnTypeMISC ReturnType = "MISC"
)

// typeOfReturnCode maps to the Pub 1220 Type of Return field.
func (rt ReturnType) code() (string, error) {
	switch rt {
	case ReturnTypeNEC:
		return "NE", nil
	case ReturnTypeMISC:
		return "A ", nil
	default:
		return "", fmt.Errorf("fire: unsupported return type %q", rt)
	}
}

// Transmitter identifies the party submitting the file.
type Transmitter struct {
	TIN          string
	ControlCode  string // five-character TCC issued by the IRS
	Name         string
	CompanyName  string
	Address      string
	City         string
	State        string
	ZIP          string
	ContactName  string
	ContactPhone string
}

// Payer is the filer of a group of returns (the management company or the
// property owner entity, depending on the 1099 program).
type Payer struct {
	TIN        string
	Name       string
	Address    string
	City       string
	State      string
	ZIP        string
	ReturnType ReturnType
	// CombinedFedState marks participation in the combined federal/state
	// filing program.
	CombinedFedState bool
}

// Payee is a single 1099 recipient.
type Payee struct {
	TIN         string
	Name        string
	AccountID   string // payer's account number for the payee
	AmountCents int64
	Address     string
	City        string
	State       string
	ZIP         string
}

// PayerGroup is one A record and its B records.
type PayerGroup struct {
	Payer  Payer
	Payees []Payee
}

// Transmission is a complete FIRE file.
type Transmission struct {
	Year        int
	Transmitter Transmitter
	Groups      []PayerGroup
	// Test marks the file as a test submission.
	Test bool
}

// NameControl derives the four-character payee name control: the first four
// alphanumeric characters of the name, uppercased and blank-padded.
func NameControl(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == 4 {
				break
			}
		}
	}
	out := b.String()
	return out + strings.Repeat(" ", 4-len(out))
}

// DigitsOnly strips every non-digit; TINs are transmitted as nine digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Render produces the transmission contents, one 750-character record per
// line, with sequence numbers in positions 500-507.
func (t Transmission) Render() (string, error) {
	if len(t.Groups) == 0 {
		return "", fmt.Errorf("fire: transmission requires at least one payer group")
	}

	var records []string
	seq := 0
	next := func(r *record) string {
		seq++
		r.putNum(500, 8, int64(seq))
		return r.String()
	}

	totalPayees := 0
	for _, g := range t.Groups {
		totalPayees += len(g.Payees)
	}

	records = append(records, next(t.renderT(totalPayees)))

	for _, g := range t.Groups {
		aRec, err := t.renderA(g.Payer)
		if err != nil {
			return "", err
		}
		records = append(records, next(aRec))

		var groupTotal int64
		for _, p := range g.Payees {
			if len(DigitsOnly(p.TIN)) != 9 {
				return "", fmt.Errorf("fire: payee %q: TIN must carry 9 digits", p.Name)
			}
			records = append(records, next(t.renderB(p)))
			groupTotal += p.AmountCents
		}
		records = append(records, next(renderC(len(g.Payees), groupTotal)))
	}

	records = append(records, next(renderF(len(t.Groups), totalPayees)))

	return strings.Join(records, "\n") + "\n", nil
}

func (t Transmission) renderT(totalPayees int) *record {
	r := newRecord()
	r.put(1, 1, "T")
	r.putNum(2, 4, int64(t.Year))
	r.put(7, 9, DigitsOnly(t.Transmitter.TIN))
	r.put(16, 5, t.Transmitter.ControlCode)
	if t.Test {
		r.put(28, 1, "T")
	}
	r.put(30, 80, t.Transmitter.Name)
	r.put(110, 80, t.Transmitter.CompanyName)
	r.put(190, 40, t.Transmitter.Address)
	r.put(230, 40, t.Transmitter.City)
	r.put(270, 2, t.Transmitter.State)
	r.put(272, 9, DigitsOnly(t.Transmitter.ZIP))
	r.putNum(296, 8, int64(totalPayees))
	r.put(304, 40, t.Transmitter.ContactName)
	r.put(344, 15, t.Transmitter.ContactPhone)
	return r
}

func (t Transmission) renderA(p Payer) (*record, error) {
	code, err := p.ReturnType.code()
	if err != nil {
		return nil, err
	}
	r := newRecord()
	r.put(1, 1, "A")
	r.putNum(2, 4, int64(t.Year))
	if p.CombinedFedState {
		r.put(6, 1, "1")
	}
	r.put(12, 9, DigitsOnly(p.TIN))
	r.put(21, 4, NameControl(p.Name))
	r.put(26, 2, code)
	r.put(28, 1, "1") // amount code 1: nonemployee compensation / rents
	r.put(53, 40, p.Name)
	r.put(134, 40, p.Address)
	r.put(174, 40, p.City)
	r.put(214, 2, p.State)
	r.put(216, 9, DigitsOnly(p.ZIP))
	return r, nil
}

func (t Transmission) renderB(p Payee) *record {
	r := newRecord()
	r.put(1, 1, "B")
	r.putNum(2, 4, int64(t.Year))
	r.put(7, 4, NameControl(p.Name))
	r.put(12, 9, DigitsOnly(p.TIN))
	r.put(21, 20, p.AccountID)
	r.putNum(55, 12, p.AmountCents) // payment amount 1, in cents
	r.put(248, 40, p.Name)
	r.put(367, 40, p.Address)
	r.put(440, 40, p.City)
	r.put(480, 2, p.State)
	r.put(482, 9, DigitsOnly(p.ZIP))
	return r
}

func renderC(payeeCount int, totalCents int64) *record {
	r := newRecord()
	r.put(1, 1, "C")
	r.putNum(2, 8, int64(payeeCount))
	r.put(10, 6, strings.Repeat("0", 6))
	r.putNum(16, 18, totalCents) // control total 1
	return r
}

func renderF(payerCount, totalPayees int) *record {
	r := newRecord()
	r.put(1, 1, "F")
	r.putNum(2, 8, int64(payerCount))
	r.put(10, 21, strings.Repeat("0", 21))
	r.putNum(31, 8, int64(totalPayees))
	return r
}

// record is a blank-initialized 750-character buffer addressed by the
// 1-based positions Pub 1220 uses.
type record struct {
	buf []byte
}

func newRecord() *record {
	buf := make([]byte, RecordLength)
	for i := range buf {
		buf[i] = ' '
	}
	return &record{buf: buf}
}

// put writes an alphanumeric field: uppercased, left-justified, truncated to
// width.
func (r *record) put(pos, width int, val string) {
	val = strings.ToUpper(val)
	if len(val) > width {
		val = val[:width]
	}
	copy(r.buf[pos-1:], val)
}

// putNum writes a numeric field: right-justified, zero-filled.
func (r *record) putNum(pos, width int, n int64) {
	s := fmt.Sprintf("%0*d", width, n)
	if len(s) > width {
		s = s[len(s)-width:]
	}
	copy(r.buf[pos-1:], s)
}

func (r *record) String() string {
	return string(r.buf)
}
