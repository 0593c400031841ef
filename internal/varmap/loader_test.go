package varmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxia920/PSID/internal/rolepolicy"
)

const testMapping = `
individual:
  - name: id1968
    waves:
      1968: ER30001
      1969: ER30001
  - name: pnum
    waves:
      1968: ER30002
      1969: ER30002
  - name: inum
    waves:
      1968: ER30003
      1969: ER30021
family:
  - name: inum
    waves:
      1968: V3
      1969: V442
  - name: rel
    role_qualified: true
    waves:
      1968: {ref: V181, partner: V182}
  - name: labinc
    role_qualified: true
    waves:
      1969: {ref: V871, partner: V872}
`

func writeMapping(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	maps, err := Load(writeMapping(t, testMapping))
	require.NoError(t, err)

	assert.Equal(t, []string{"id1968", "pnum", "inum"}, maps.Individual.Concepts())
	assert.Equal(t, []string{"inum", "rel", "labinc"}, maps.Family.Concepts())

	// Wave keys decode as integers and bare strings as plain columns.
	src, collected, err := maps.Individual.Resolve("inum", 1969)
	require.NoError(t, err)
	require.True(t, collected)
	assert.Equal(t, "ER30021", src.Column)

	// Role pairs decode into per-role columns.
	src, collected, err = maps.Family.Resolve("rel", 1968)
	require.NoError(t, err)
	require.True(t, collected)
	assert.Equal(t, "V181", src.ByRole[rolepolicy.Reference])
	assert.Equal(t, "V182", src.ByRole[rolepolicy.Partner])

	// Not collected in 1968.
	_, collected, err = maps.Family.Resolve("labinc", 1968)
	require.NoError(t, err)
	assert.False(t, collected)
}

func TestLoad_ConflictFailsBeforeAnyData(t *testing.T) {
	const conflicting = `
individual:
  - name: id1968
    waves: {1968: ER30001}
  - name: pnum
    waves: {1968: ER30001}
`
	_, err := Load(writeMapping(t, conflicting))
	var conflict *ConflictingMappingError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1968, conflict.Wave)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_NoIndividualConcepts(t *testing.T) {
	_, err := Load(writeMapping(t, "family: []\n"))
	assert.Error(t, err)
}

func TestNormalized_RoundTrip(t *testing.T) {
	maps, err := Load(writeMapping(t, testMapping))
	require.NoError(t, err)

	specs := maps.Family.Normalized()
	require.Len(t, specs, 3)
	assert.Equal(t, "rel", specs[1].Name)
	assert.True(t, specs[1].RoleQualified)
	assert.Equal(t, ColumnSpec{Ref: "V181", Partner: "V182"}, specs[1].Waves[1968])

	rebuilt, err := New(specs)
	require.NoError(t, err)
	assert.Equal(t, maps.Family.Concepts(), rebuilt.Concepts())
}
