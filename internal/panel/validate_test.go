package panel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxia920/PSID/internal/ident"
	"github.com/hxia920/PSID/internal/rolepolicy"
	"github.com/hxia920/PSID/internal/table"
)

func row(interview, person, wave int, age table.Value) Row {
	return Row{
		Person: ident.PersonKey{Interview1968: interview, PersonNumber: person},
		Wave:   wave,
		Family: table.Num(1),
		Role:   rolepolicy.Reference,
		Values: map[string]table.Value{"age": age},
	}
}

func validPanel() *Panel {
	return &Panel{
		Waves:    []int{1975, 1976},
		Concepts: []string{"age"},
		Rows: []Row{
			row(1, 1, 1975, table.Num(30)),
			row(1, 1, 1976, table.Num(31)),
			row(2, 1, 1975, table.Num(44)),
		},
	}
}

func TestValidate_Passes(t *testing.T) {
	require.NoError(t, Validate(validPanel()))
}

func TestValidate_DuplicateKey(t *testing.T) {
	p := validPanel()
	p.Rows = append(p.Rows, row(1, 1, 1975, table.Num(99)))

	var verr *ValidationError
	require.ErrorAs(t, Validate(p), &verr)
	assert.Equal(t, CheckKeyUniqueness, verr.Check)
	require.Len(t, verr.Sample, 1)
	assert.Equal(t, ident.PersonKey{Interview1968: 1, PersonNumber: 1}, verr.Sample[0].Person)
	assert.Equal(t, 1975, verr.Sample[0].Wave)
}

func TestValidate_MissingConcept(t *testing.T) {
	p := validPanel()
	delete(p.Rows[1].Values, "age")

	var verr *ValidationError
	require.ErrorAs(t, Validate(p), &verr)
	assert.Equal(t, CheckConceptCoverage, verr.Check)
	assert.Contains(t, verr.Detail, `"age"`)
}

func TestValidate_NullConceptIsCovered(t *testing.T) {
	p := validPanel()
	p.Rows[1].Values["age"] = table.Null

	require.NoError(t, Validate(p), "null is a value; only an absent key fails coverage")
}

func TestValidate_UndeclaredWave(t *testing.T) {
	p := validPanel()
	p.Rows[2].Wave = 1980

	var verr *ValidationError
	require.ErrorAs(t, Validate(p), &verr)
	assert.Equal(t, CheckWaveMembership, verr.Check)
	require.Len(t, verr.Sample, 1)
	assert.Equal(t, 1980, verr.Sample[0].Wave)
}

func TestValidate_OrphanKey(t *testing.T) {
	p := validPanel()
	p.Rows[2].Values["age"] = table.Null

	var verr *ValidationError
	require.ErrorAs(t, Validate(p), &verr)
	assert.Equal(t, CheckOrphanKeys, verr.Check)
	require.Len(t, verr.Sample, 1)
	assert.Equal(t, ident.PersonKey{Interview1968: 2, PersonNumber: 1}, verr.Sample[0].Person)
}

func TestValidate_SampleBounded(t *testing.T) {
	p := &Panel{Waves: []int{1975}, Concepts: []string{"age"}}
	for i := 0; i < 25; i++ {
		p.Rows = append(p.Rows, row(i+1, 1, 1975, table.Num(40)))
		p.Rows = append(p.Rows, row(i+1, 1, 1975, table.Num(41)))
	}

	var verr *ValidationError
	require.ErrorAs(t, Validate(p), &verr)
	assert.Equal(t, CheckKeyUniqueness, verr.Check)
	assert.Len(t, verr.Sample, maxSampleRows)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{
		Check:  CheckWaveMembership,
		Detail: "rows carry waves outside the declared sequence",
		Sample: []RowRef{{Person: ident.PersonKey{Interview1968: 3, PersonNumber: 2}, Wave: 1980}},
	}
	msg := err.Error()
	assert.Contains(t, msg, CheckWaveMembership)
	assert.Contains(t, msg, fmt.Sprintf("(%s, %d)", "3_2", 1980))
}
