package storage

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := NewArchive(t.TempDir())
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	return a
}

func TestArchive_SaveAndOpen(t *testing.T) {
	a := newTestArchive(t)

	rel, err := a.Save("plan-1", "debt_ledger_2024-03-15.csv", []byte("Debt Ledger"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("plan-1", "2024", "03", "debt_ledger_2024-03-15.csv"), rel)
	assert.True(t, a.Exists(rel))

	f, err := a.Open(rel)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "Debt Ledger", string(data))
}

func TestArchive_SaveKeepsEarlierExport(t *testing.T) {
	a := newTestArchive(t)

	first, err := a.Save("plan-1", "ledger.pdf", []byte("one"))
	require.NoError(t, err)
	second, err := a.Save("plan-1", "ledger.pdf", []byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, ".pdf", filepath.Ext(second))
	assert.True(t, a.Exists(first))
}

func TestArchive_RejectsPathLikePlanIDs(t *testing.T) {
	a := newTestArchive(t)

	for _, planID := range []string{"", "..", "../etc", `a\b`} {
		_, err := a.Save(planID, "ledger.csv", []byte("x"))
		assert.Error(t, err, planID)
	}
}

func TestArchive_FilenameCannotEscape(t *testing.T) {
	a := newTestArchive(t)

	rel, err := a.Save("plan-1", "../../outside.csv", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("plan-1", "2024", "03", "outside.csv"), rel)
}
