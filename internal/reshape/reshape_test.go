package reshape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxia920/PSID/internal/extract"
	"github.com/hxia920/PSID/internal/rolepolicy"
	"github.com/hxia920/PSID/internal/table"
)

// wideFamily builds one 1975-era family row: relationship codes 1/2, with a
// role-qualified income concept.
func wideFamily(t *testing.T, refRel, partnerRel table.Value) *table.Table {
	t.Helper()
	wide := table.New(1)
	require.NoError(t, wide.AddColumn("inum", []table.Value{table.Num(42)}))
	require.NoError(t, wide.AddColumn(extract.RoleColumn("rel", rolepolicy.Reference), []table.Value{refRel}))
	require.NoError(t, wide.AddColumn(extract.RoleColumn("rel", rolepolicy.Partner), []table.Value{partnerRel}))
	require.NoError(t, wide.AddColumn(extract.RoleColumn("labinc", rolepolicy.Reference), []table.Value{table.Num(50000)}))
	require.NoError(t, wide.AddColumn(extract.RoleColumn("labinc", rolepolicy.Partner), []table.Value{table.Num(30000)}))
	return wide
}

func TestSplit_BothRoles(t *testing.T) {
	wide := wideFamily(t, table.Num(1), table.Num(2))

	long, err := Split(wide, 1975, "inum", "rel", "", []string{"labinc"})
	require.NoError(t, err)
	require.Equal(t, 2, long.Len())

	assert.Equal(t, 42, long.Cell(0, "inum").Int())
	assert.Equal(t, rolepolicy.Reference, rolepolicy.FromCell(long.Cell(0, RoleColumn)))
	assert.Equal(t, 50000, long.Cell(0, "labinc").Int())

	assert.Equal(t, 42, long.Cell(1, "inum").Int())
	assert.Equal(t, rolepolicy.Partner, rolepolicy.FromCell(long.Cell(1, RoleColumn)))
	assert.Equal(t, 30000, long.Cell(1, "labinc").Int())
}

func TestSplit_SingleRole(t *testing.T) {
	// No partner: exactly one row, not a padded pair.
	wide := wideFamily(t, table.Num(1), table.Null)

	long, err := Split(wide, 1975, "inum", "rel", "", []string{"labinc"})
	require.NoError(t, err)
	require.Equal(t, 1, long.Len())
	assert.Equal(t, rolepolicy.Reference, rolepolicy.FromCell(long.Cell(0, RoleColumn)))
}

func TestSplit_NoValidRole(t *testing.T) {
	wide := wideFamily(t, table.Num(9), table.Num(9))

	long, err := Split(wide, 1975, "inum", "rel", "", []string{"labinc"})
	require.NoError(t, err)
	assert.Equal(t, 0, long.Len())
}

func TestSplit_EraCutoff(t *testing.T) {
	// Code 1 qualifies the reference person in 1982 but not in 1983.
	wide := wideFamily(t, table.Num(1), table.Null)

	long, err := Split(wide, 1982, "inum", "rel", "", []string{"labinc"})
	require.NoError(t, err)
	assert.Equal(t, 1, long.Len())

	long, err = Split(wide, 1983, "inum", "rel", "", []string{"labinc"})
	require.NoError(t, err)
	assert.Equal(t, 0, long.Len())
}

func TestSplit_SequenceGate(t *testing.T) {
	wide := table.New(1)
	require.NoError(t, wide.AddColumn("inum", []table.Value{table.Num(7)}))
	require.NoError(t, wide.AddColumn(extract.RoleColumn("rel", rolepolicy.Reference), []table.Value{table.Num(10)}))
	require.NoError(t, wide.AddColumn(extract.RoleColumn("rel", rolepolicy.Partner), []table.Value{table.Null}))
	require.NoError(t, wide.AddColumn(extract.RoleColumn("seqnum", rolepolicy.Reference), []table.Value{table.Num(51)}))
	require.NoError(t, wide.AddColumn(extract.RoleColumn("seqnum", rolepolicy.Partner), []table.Value{table.Null}))

	// Sequence 51 marks a mover-out: with a sequence concept declared the
	// gate applies and the row is not emitted.
	long, err := Split(wide, 1990, "inum", "rel", "seqnum", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, long.Len())
}

func TestSplit_MissingKeyColumn(t *testing.T) {
	wide := table.New(0)
	_, err := Split(wide, 1975, "inum", "rel", "", nil)
	assert.Error(t, err)
}
