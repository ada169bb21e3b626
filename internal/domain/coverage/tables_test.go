package coverage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"damage-control-bot/internal/domain/entity"
)

func TestDefaultTables(t *testing.T) {
	tables := mustTables(t)

	require.Equal(t, 19, tables.Costs.Len())
	require.Equal(t, DefaultPartCost, tables.Costs.Fallback())
	require.Equal(t, DefaultMinDepthEstimate, tables.MinDepthEstimate)
	require.Equal(t, 800.0, tables.Costs.Lookup("bumper"))

	require.True(t, tables.Coverage.Covers(entity.GuaranteeAllRisks, "anything"))
	require.False(t, tables.Coverage.Covers(entity.GuaranteeThirdParty, "accident"))
	require.False(t, tables.Coverage.Covers("unknown", "accident"))
	require.Len(t, tables.Coverage.Rules(), 6)
}

func TestLoadTables_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	data := []byte(`
default_part_cost: 300
parts:
  Bumper: 900
guarantees:
  - name: theft
    damage_types: [theft]
    keywords: [vol]
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	tables, err := LoadTables(path)
	require.NoError(t, err)
	require.Equal(t, 900.0, tables.Costs.Lookup("bumper"))
	require.Equal(t, 300.0, tables.Costs.Lookup("roof"))
	require.Equal(t, DefaultMinDepthEstimate, tables.MinDepthEstimate)
	require.True(t, tables.Coverage.Covers(entity.GuaranteeTheft, "theft"))
}

func TestLoadTables_EmptyPathUsesDefaults(t *testing.T) {
	tables, err := LoadTables("")
	require.NoError(t, err)
	require.Equal(t, 19, tables.Costs.Len())
}

func TestParseTables_Invalid(t *testing.T) {
	_, err := ParseTables([]byte("parts: [oops"))
	require.Error(t, err)

	_, err = ParseTables([]byte("parts: {}"))
	require.Error(t, err)

	_, err = ParseTables([]byte("parts: {door: -1}"))
	require.Error(t, err)

	_, err = ParseTables([]byte("parts: {door: 1}\nguarantees: [{name: fire}, {name: fire}]"))
	require.Error(t, err)
}
