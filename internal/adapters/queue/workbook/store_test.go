package workbook

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	_, err := f.NewSheet("Queue")
	require.NoError(t, err)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Queue", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "bca.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func newStore(t *testing.T, path string) *Store {
	t.Helper()
	layout := queue.DefaultLayout()
	layout.DataOffset = 0
	registry := queue.StaticRegistry{
		"acme": {bank.BCA: {DocumentID: path, SheetIndex: 2}},
	}
	return NewStore(registry, layout, nil)
}

func sampleRows() [][]any {
	return [][]any{
		{"name", "coin", "id"},
		{"John Doe", "50000", ""},
		{"Jane", 75, "player9"},
		{"siti aminah", "Rp 20", ""},
	}
}

func TestStore_ListPendingRows(t *testing.T) {
	store := newStore(t, writeWorkbook(t, sampleRows()))

	rows, err := store.ListPendingRows(context.Background(), "acme", bank.BCA)

	require.NoError(t, err)
	assert.Equal(t, []matcher.QueueRow{
		{Name: "JOHNDOE", Coin: 50000, Row: 2, Bank: bank.BCA},
		{Name: "SITIAMINAH", Coin: 20, Row: 4, Bank: bank.BCA},
	}, rows)
}

func TestStore_WriteIdentifiers(t *testing.T) {
	path := writeWorkbook(t, sampleRows())
	store := newStore(t, path)

	applied, err := store.WriteIdentifiers(context.Background(), "acme", bank.BCA, []queue.Write{
		{Row: 4, Identifier: "user4"},
		{Row: 3, Identifier: "user3"},
	})

	require.NoError(t, err)
	assert.Equal(t, []queue.Write{{Row: 4, Identifier: "user4"}}, applied)

	// Persisted and no longer pending
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	v, err := f.GetCellValue("Queue", "C4")
	require.NoError(t, err)
	assert.Equal(t, "user4", v)
	v, err = f.GetCellValue("Queue", "C3")
	require.NoError(t, err)
	assert.Equal(t, "player9", v)

	rows, err := store.ListPendingRows(context.Background(), "acme", bank.BCA)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Row)
}

func TestStore_WriteIdentifiers_SecondWriterLoses(t *testing.T) {
	store := newStore(t, writeWorkbook(t, sampleRows()))
	ctx := context.Background()

	first, err := store.WriteIdentifiers(ctx, "acme", bank.BCA, []queue.Write{{Row: 2, Identifier: "a"}})
	require.NoError(t, err)
	second, err := store.WriteIdentifiers(ctx, "acme", bank.BCA, []queue.Write{{Row: 2, Identifier: "b"}})
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Empty(t, second)
}

func TestStore_Errors(t *testing.T) {
	store := newStore(t, filepath.Join(t.TempDir(), "missing.xlsx"))

	_, err := store.ListPendingRows(context.Background(), "acme", bank.BCA)
	assert.ErrorIs(t, err, failure.ErrTransport)

	_, err = store.ListPendingRows(context.Background(), "acme", bank.DANA)
	assert.Error(t, err)
}
