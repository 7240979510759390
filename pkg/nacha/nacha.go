// Package nacha renders NACHA ACH files: fixed 94-character records blocked
// to multiples of 10 with 9-filled pad lines. Amounts are integer cents;
// every field is positional.
package nacha

import (
	"fmt"
	"strings"
	"time"
)

// RecordLength is the fixed width of every NACHA record.
const RecordLength = 94

// BlockingFactor is the number of records per block; files are padded with
// 9-fill records to a multiple of it.
const BlockingFactor = 10

// ServiceClassCreditsOnly marks a batch containing credits only.
const ServiceClassCreditsOnly = "220"

// TranCodeCheckingCredit is the transaction code for a credit to a checking
// account.
const TranCodeCheckingCredit = "22"

// FileHeader carries the fields of the type 1 record.
type FileHeader struct {
	ImmediateDestination string // receiving point routing id, 10 chars incl. leading blank
	ImmediateOrigin      string // sending point id, 10 chars
	FileCreation         time.Time
	FileIDModifier       string // "A".."Z" to distinguish same-day files
	DestinationName      string
	OriginName           string
	ReferenceCode        string
}

// Entry is a single type 6 detail record: one ACH credit to one receiver.
type Entry struct {
	TransactionCode string
	// RDFIRouting is the full 9-digit receiving bank routing number
	// (8 digits + check digit).
	RDFIRouting   string
	AccountNumber string
	AmountCents   int64
	IndividualID  string
	Name          string
	Discretionary string
}

// Batch is a type 5/6.../8 group.
type Batch struct {
	ServiceClass     string
	CompanyName      string
	Discretionary    string
	CompanyID        string
	SECCode          string
	EntryDescription string
	DescriptiveDate  time.Time
	EffectiveDate    time.Time
	ODFIRouting      string // first 8 digits of the originating bank routing
	BatchNumber      int
	Entries          []Entry
}

// File is a complete NACHA file: header, batches, control, blocking pad.
type File struct {
	Header  FileHeader
	Batches []Batch
}

// Validate checks structural requirements before rendering.
func (f File) Validate() error {
	if len(f.Batches) == 0 {
		return fmt.Errorf("nacha: file requires at least one batch")
	}
	for bi, b := range f.Batches {
		if len(b.ODFIRouting) != 8 {
			return fmt.Errorf("nacha: batch %d: ODFI routing must be 8 digits, got %q", bi+1, b.ODFIRouting)
		}
		for ei, e := range b.Entries {
			if len(e.RDFIRouting) != 9 {
				return fmt.Errorf("nacha: batch %d entry %d: RDFI routing must be 9 digits, got %q", bi+1, ei+1, e.RDFIRouting)
			}
			if e.AmountCents < 0 {
				return fmt.Errorf("nacha: batch %d entry %d: negative amount", bi+1, ei+1)
			}
		}
	}
	return nil
}

// Render produces the file contents. Records are newline-separated and the
// file is padded with 9-fill records to a multiple of the blocking factor.
func (f File) Render() (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}

	var records []string
	records = append(records, f.Header.render())

	var fileEntryCount int
	var fileHash int64
	var fileDebits, fileCredits int64

	for _, b := range f.Batches {
		records = append(records, b.renderHeader())
		var batchHash int64
		var batchCredits int64
		for i, e := range b.Entries {
			records = append(records, e.render(b.ODFIRouting, i+1))
			batchHash += routingHashTerm(e.RDFIRouting)
			batchCredits += e.AmountCents
		}
		records = append(records, b.renderControl(batchHash, 0, batchCredits))

		fileEntryCount += len(b.Entries)
		fileHash += batchHash
		fileCredits += batchCredits
	}

	blockCount := (len(records) + 1 + BlockingFactor - 1) / BlockingFactor
	records = append(records, renderFileControl(len(f.Batches), blockCount, fileEntryCount, fileHash, fileDebits, fileCredits))

	for len(records)%BlockingFactor != 0 {
		records = append(records, strings.Repeat("9", RecordLength))
	}

	return strings.Join(records, "\n") + "\n", nil
}

func (h FileHeader) render() string {
	var sb strings.Builder
	sb.WriteString("1")
	sb.WriteString("01")
	sb.WriteString(alpha(h.ImmediateDestination, 10))
	sb.WriteString(alpha(h.ImmediateOrigin, 10))
	sb.WriteString(h.FileCreation.UTC().Format("060102"))
	sb.WriteString(h.FileCreation.UTC().Format("1504"))
	sb.WriteString(alpha(defaultString(h.FileIDModifier, "A"), 1))
	sb.WriteString("094")
	sb.WriteString("10")
	sb.WriteString("1")
	sb.WriteString(alpha(h.DestinationName, 23))
	sb.WriteString(alpha(h.OriginName, 23))
	sb.WriteString(alpha(h.ReferenceCode, 8))
	return sb.String()
}

func (b Batch) renderHeader() string {
	var sb strings.Builder
	sb.WriteString("5")
	sb.WriteString(defaultString(b.ServiceClass, ServiceClassCreditsOnly))
	sb.WriteString(alpha(b.CompanyName, 16))
	sb.WriteString(alpha(b.Discretionary, 20))
	sb.WriteString(alpha(b.CompanyID, 10))
	sb.WriteString(alpha(defaultString(b.SECCode, "PPD"), 3))
	sb.WriteString(alpha(b.EntryDescription, 10))
	sb.WriteString(b.DescriptiveDate.UTC().Format("060102"))
	sb.WriteString(b.EffectiveDate.UTC().Format("060102"))
	sb.WriteString(alpha("", 3)) // settlement date, filled by the operator
	sb.WriteString("1")          // originator status
	sb.WriteString(b.ODFIRouting)
	sb.WriteString(numeric(int64(b.BatchNumber), 7))
	return sb.String()
}

func (e Entry) render(odfiRouting string, seq int) string {
	var sb strings.Builder
	sb.WriteString("6")
	sb.WriteString(defaultString(e.TransactionCode, TranCodeCheckingCredit))
	sb.WriteString(e.RDFIRouting)
	sb.WriteString(alpha(e.AccountNumber, 17))
	sb.WriteString(numeric(e.AmountCents, 10))
	sb.WriteString(alpha(e.IndividualID, 15))
	sb.WriteString(alpha(e.Name, 22))
	sb.WriteString(alpha(e.Discretionary, 2))
	sb.WriteString("0") // no addenda
	sb.WriteString(odfiRouting)
	sb.WriteString(numeric(int64(seq), 7))
	return sb.String()
}

func (b Batch) renderControl(hash, debits, credits int64) string {
	var sb strings.Builder
	sb.WriteString("8")
	sb.WriteString(defaultString(b.ServiceClass, ServiceClassCreditsOnly))
	sb.WriteString(numeric(int64(len(b.Entries)), 6))
	sb.WriteString(numeric(hash%10000000000, 10))
	sb.WriteString(numeric(debits, 12))
	sb.WriteString(numeric(credits, 12))
	sb.WriteString(alpha(b.CompanyID, 10))
	sb.WriteString(alpha("", 19)) // message authentication code
	sb.WriteString(alpha("", 6))  // reserved
	sb.WriteString(b.ODFIRouting)
	sb.WriteString(numeric(int64(b.BatchNumber), 7))
	return sb.String()
}

func renderFileControl(batchCount, blockCount, entryCount int, hash, debits, credits int64) string {
	var sb strings.Builder
	sb.WriteString("9")
	sb.WriteString(numeric(int64(batchCount), 6))
	sb.WriteString(numeric(int64(blockCount), 6))
	sb.WriteString(numeric(int64(entryCount), 8))
	sb.WriteString(numeric(hash%10000000000, 10))
	sb.WriteString(numeric(debits, 12))
	sb.WriteString(numeric(credits, 12))
	sb.WriteString(alpha("", 39))
	return sb.String()
}

// routingHashTerm is the 8-digit prefix of the RDFI routing number as an
// integer; the entry hash is the sum of these mod 10^10.
func routingHashTerm(routing string) int64 {
	var n int64
	for _, r := range routing[:8] {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int64(r-'0')
	}
	return n
}

// alpha left-justifies and blank-pads, truncating overflow.
func alpha(s string, width int) string {
	s = strings.ToUpper(s)
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// numeric right-justifies and zero-pads, truncating overflow from the left.
func numeric(n int64, width int) string {
	s := fmt.Sprintf("%0*d", width, n)
	if len(s) > width {
		return s[len(s)-width:]
	}
	return s
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
