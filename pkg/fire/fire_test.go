package fire_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/pkg/fire"
)

func sampleTransmission() fire.Transmission {
	return fire.Transmission{
		Year: 2025,
		Transmitter: fire.Transmitter{
			TIN:         "12-3456789",
			ControlCode: "44X21",
			Name:        "Propmaster Management",
			CompanyName: "Propmaster Management LLC",
			Address:     "100 Main St",
			City:        "Raleigh",
			State:       "NC",
			ZIP:         "27601",
		},
		Groups: []fire.PayerGroup{{
			Payer: fire.Payer{
				TIN:        "98-7654321",
				Name:       "Oak Ridge Holdings",
				Address:    "200 Oak Ave",
				City:       "Durham",
				State:      "NC",
				ZIP:        "27701",
				ReturnType: fire.ReturnTypeNEC,
			},
			Payees: []fire.Payee{
				{
					TIN:         "111-22-3333",
					Name:        "Smith Plumbing",
					AccountID:   "VEND-0042",
					AmountCents: 125000,
				},
				{
					TIN:         "444-55-6666",
					Name:        "Jones Electric",
					AccountID:   "VEND-0107",
					AmountCents: 98765,
				},
			},
		}},
	}
}

func TestTransmission_Render_OrderAndLengths(t *testing.T) {
	out, err := sampleTransmission().Render()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)

	types := make([]byte, 0, len(lines))
	for i, line := range lines {
		assert.Len(t, line, fire.RecordLength, "record %d must be exactly 750 characters", i+1)
		types = append(types, line[0])
	}
	assert.Equal(t, []byte{'T', 'A', 'B', 'B', 'C', 'F'}, types)
}

func TestTransmission_Render_SequenceNumbers(t *testing.T) {
	out, err := sampleTransmission().Render()
	require.NoError(t, err)

	for i, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		// Record sequence number at positions 500-507.
		assert.Equal(t, strings.Repeat("0", 7)+string(rune('1'+i)), line[499:507], "record %d", i+1)
	}
}

func TestTransmission_Render_BRecordFields(t *testing.T) {
	out, err := sampleTransmission().Render()
	require.NoError(t, err)
	b := strings.Split(out, "\n")[2]

	assert.Equal(t, "B2025", b[:5])
	assert.Equal(t, "SMIT", b[6:10], "name control from first four characters")
	assert.Equal(t, "111223333", b[11:20], "TIN digits only")
	assert.Equal(t, "VEND-0042", strings.TrimRight(b[20:40], " "))
	assert.Equal(t, "000001250000", b[54:66], "amount 1 in cents")
}

func TestTransmission_Render_CRecordTotals(t *testing.T) {
	out, err := sampleTransmission().Render()
	require.NoError(t, err)
	c := strings.Split(out, "\n")[4]

	assert.Equal(t, "C", c[:1])
	assert.Equal(t, "00000002", c[1:9], "payee count")
	assert.Equal(t, "000000", c[9:15], "zero filler")
	assert.Equal(t, "000000000000223765", c[15:33], "control total = 125000+98765 cents")
}

func TestTransmission_Render_FRecord(t *testing.T) {
	out, err := sampleTransmission().Render()
	require.NoError(t, err)
	f := strings.Split(strings.TrimRight(out, "\n"), "\n")[5]

	assert.Equal(t, "F", f[:1])
	assert.Equal(t, "00000001", f[1:9], "payer count")
	assert.Equal(t, strings.Repeat("0", 21), f[9:30])
	assert.Equal(t, "00000002", f[30:38], "total payees")
}

func TestTransmission_Render_InvalidPayeeTIN(t *testing.T) {
	tr := sampleTransmission()
	tr.Groups[0].Payees[0].TIN = "12-34"
	_, err := tr.Render()
	assert.ErrorContains(t, err, "TIN must carry 9 digits")
}

func TestNameControl(t *testing.T) {
	assert.Equal(t, "SMIT", fire.NameControl("Smith Plumbing"))
	assert.Equal(t, "OAK ", fire.NameControl("Oak"))
	assert.Equal(t, "JB12", fire.NameControl("J.B. 12 & Sons"))
	assert.Equal(t, "    ", fire.NameControl("---"))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "123456789", fire.DigitsOnly("12-345 6789"))
	assert.Equal(t, "", fire.DigitsOnly("none"))
}
