package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
)

func testLayout() Layout {
	l := DefaultLayout()
	l.DataOffset = 1
	return l
}

func TestLayout_ParseRows(t *testing.T) {
	values := [][]string{
		{"date", "name", "id", "coin"}, // row 1: header
		{"skipped", "OFFSET ROW", "", "500"},
		{"x", " john doe ", "", "Rp 50.000"}, // row 3
		{"x", "jane", "player9", "75"},      // claimed
		{"x", "", "", "75"},                 // no name
		{"x", "budi"},                       // no coin, short row
		{"x", "siti aminah", " ", "20"},     // whitespace id counts as empty
	}

	rows, stats, err := testLayout().ParseRows(values, bank.BCA)

	require.NoError(t, err)
	assert.Equal(t, []matcher.QueueRow{
		{Name: "JOHNDOE", Coin: 50000, Row: 3, Bank: bank.BCA},
		{Name: "SITIAMINAH", Coin: 20, Row: 7, Bank: bank.BCA},
	}, rows)
	assert.Equal(t, ParseStats{Total: 5, Claimed: 1, Malformed: 2}, stats)
}

func TestLayout_ParseRows_MissingColumn(t *testing.T) {
	values := [][]string{{"name", "coin"}}

	_, _, err := DefaultLayout().ParseRows(values, bank.BCA)

	assert.ErrorIs(t, err, failure.ErrMalformedRecord)
}

func TestLayout_ParseRows_EmptySheet(t *testing.T) {
	_, _, err := DefaultLayout().ParseRows(nil, bank.BCA)
	assert.ErrorIs(t, err, failure.ErrMalformedRecord)

	rows, stats, err := DefaultLayout().ParseRows([][]string{{"id", "name", "coin"}}, bank.BCA)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, stats.Total)
}

func TestColumns_IDCell(t *testing.T) {
	cols, err := testLayout().ResolveColumns([][]string{{"date", "name", "ID", "coin"}})
	require.NoError(t, err)

	ref, err := cols.IDCell(12)
	require.NoError(t, err)
	assert.Equal(t, "C12", ref)

	name, err := cols.IDColumnName()
	require.NoError(t, err)
	assert.Equal(t, "C", name)
}

func TestRegistryLayout_ParseRegistry(t *testing.T) {
	values := [][]string{
		{"Bank", "ID", "SheetIndex"},
		{"BCA", "doc-bca", "2"},
		{"bcaMedium", "doc-bca-m", "1"},
		{"bcaVip", "", ""},
		{"DANA", "doc-dana", "1"},
		{"danaMedium", "", ""},
		{"danaVip", "", ""},
		{"CIMB", "doc-cimb", "1"},
		{"MANDIRI", "doc-mandiri", "not-a-number"},
		{"BNI", "", "1"},
		{"BRI", "doc-bri", "3"},
	}

	locations, err := DefaultRegistryLayout().ParseRegistry(values)

	require.NoError(t, err)
	assert.Equal(t, map[bank.Bank]Location{
		bank.BCA:  {DocumentID: "doc-bca", SheetIndex: 2},
		bank.DANA: {DocumentID: "doc-dana", SheetIndex: 1},
		bank.BRI:  {DocumentID: "doc-bri", SheetIndex: 3},
	}, locations)
}

func TestRegistryLayout_ParseRegistry_BadHeader(t *testing.T) {
	_, err := DefaultRegistryLayout().ParseRegistry([][]string{{"Bank", "Document"}})
	assert.ErrorIs(t, err, failure.ErrMalformedRecord)
}

func TestPrepareWrites(t *testing.T) {
	writes, err := PrepareWrites([]Write{
		{Row: 15, Identifier: "c"},
		{Row: 12, Identifier: "a"},
		{Row: 15, Identifier: "duplicate"},
		{Row: 13, Identifier: "b"},
	})

	require.NoError(t, err)
	assert.Equal(t, []Write{
		{Row: 12, Identifier: "a"},
		{Row: 13, Identifier: "b"},
		{Row: 15, Identifier: "c"},
	}, writes)

	first, last := RowSpan(writes)
	assert.Equal(t, 12, first)
	assert.Equal(t, 15, last)
}

func TestPrepareWrites_Invalid(t *testing.T) {
	_, err := PrepareWrites([]Write{{Row: 0, Identifier: "a"}})
	assert.Error(t, err)

	_, err = PrepareWrites([]Write{{Row: 3, Identifier: ""}})
	assert.Error(t, err)
}

type countingRegistry struct {
	calls int
	err   error
}

func (r *countingRegistry) Lookup(_ context.Context, tenant string) (map[bank.Bank]Location, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return map[bank.Bank]Location{bank.BCA: {DocumentID: tenant + "-doc", SheetIndex: 1}}, nil
}

func TestCachedRegistry(t *testing.T) {
	next := &countingRegistry{}
	cached := NewCachedRegistry(next, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		loc, err := Resolve(context.Background(), cached, "acme", bank.BCA)
		require.NoError(t, err)
		assert.Equal(t, "acme-doc", loc.DocumentID)
	}
	assert.Equal(t, 1, next.calls)

	now = now.Add(2 * time.Minute)
	_, err := cached.Lookup(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedRegistry_ErrorsNotCached(t *testing.T) {
	next := &countingRegistry{err: errors.New("sheet unavailable")}
	cached := NewCachedRegistry(next, time.Minute)

	_, err := cached.Lookup(context.Background(), "acme")
	assert.Error(t, err)
	_, err = cached.Lookup(context.Background(), "acme")
	assert.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestStaticRegistry(t *testing.T) {
	reg := StaticRegistry{
		"acme": {bank.BNI: {DocumentID: "bni.xlsx", SheetIndex: 1}},
	}

	loc, err := Resolve(context.Background(), reg, "acme", bank.BNI)
	require.NoError(t, err)
	assert.Equal(t, "bni.xlsx", loc.DocumentID)

	_, err = Resolve(context.Background(), reg, "acme", bank.BCA)
	assert.Error(t, err)

	_, err = Resolve(context.Background(), reg, "other", bank.BNI)
	assert.Error(t, err)
}
