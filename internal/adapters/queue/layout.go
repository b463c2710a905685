package queue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/normalize"
)

// Layout describes how a queue worksheet is arranged
type Layout struct {
	HeaderRow  int    // 1-based row holding column names
	DataOffset int    // rows skipped between the header and the first data row
	IDColumn   string // header of the identifier (approval marker) column
	NameColumn string
	CoinColumn string
}

// DefaultLayout returns the layout used by the approval worksheets
func DefaultLayout() Layout {
	return Layout{
		HeaderRow:  1,
		DataOffset: 10,
		IDColumn:   "id",
		NameColumn: "name",
		CoinColumn: "coin",
	}
}

// Columns holds 0-based column indexes resolved from the header row
type Columns struct {
	ID   int
	Name int
	Coin int
}

// IDCell returns the A1 reference of the identifier cell for row
func (c Columns) IDCell(row int) (string, error) {
	return excelize.CoordinatesToCellName(c.ID+1, row)
}

// IDColumnName returns the column letter of the identifier column
func (c Columns) IDColumnName() (string, error) {
	return excelize.ColumnNumberToName(c.ID + 1)
}

// ParseStats reports what was dropped while reading a worksheet
type ParseStats struct {
	Total     int // data rows inspected
	Claimed   int // identifier already filled
	Malformed int // name or coin failed to normalize
}

// ResolveColumns finds the layout's columns in values (values[0] is row 1)
func (l Layout) ResolveColumns(values [][]string) (Columns, error) {
	if l.HeaderRow < 1 || len(values) < l.HeaderRow {
		return Columns{}, fmt.Errorf("%w: header row %d not found", failure.ErrMalformedRecord, l.HeaderRow)
	}
	header := values[l.HeaderRow-1]

	find := func(name string) (int, error) {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: header has no %q column", failure.ErrMalformedRecord, name)
	}

	var cols Columns
	var err error
	if cols.ID, err = find(l.IDColumn); err != nil {
		return Columns{}, err
	}
	if cols.Name, err = find(l.NameColumn); err != nil {
		return Columns{}, err
	}
	if cols.Coin, err = find(l.CoinColumn); err != nil {
		return Columns{}, err
	}
	return cols, nil
}

// FirstDataRow returns the 1-based row number of the first data row
func (l Layout) FirstDataRow() int {
	return l.HeaderRow + 1 + l.DataOffset
}

// ParseRows turns raw worksheet values into pending queue rows for b.
// values[i] holds row i+1; short rows are padded with empty cells.
func (l Layout) ParseRows(values [][]string, b bank.Bank) ([]matcher.QueueRow, ParseStats, error) {
	cols, err := l.ResolveColumns(values)
	if err != nil {
		return nil, ParseStats{}, err
	}

	var stats ParseStats
	var rows []matcher.QueueRow

	for i := l.FirstDataRow() - 1; i < len(values); i++ {
		record := values[i]
		stats.Total++

		if strings.TrimSpace(cell(record, cols.ID)) != "" {
			stats.Claimed++
			continue
		}

		name, err := normalize.Name(cell(record, cols.Name))
		if err != nil {
			stats.Malformed++
			continue
		}
		coin, err := normalize.Amount(cell(record, cols.Coin))
		if err != nil {
			stats.Malformed++
			continue
		}

		rows = append(rows, matcher.QueueRow{
			Name: name,
			Coin: coin,
			Row:  i + 1,
			Bank: b,
		})
	}

	return rows, stats, nil
}

// RegistryLayout describes the tenant registry worksheet
type RegistryLayout struct {
	HeaderRow        int
	DocumentColumn   string
	SheetIndexColumn string
}

// DefaultRegistryLayout returns the layout of the registry worksheet
func DefaultRegistryLayout() RegistryLayout {
	return RegistryLayout{
		HeaderRow:        1,
		DocumentColumn:   "ID",
		SheetIndexColumn: "SheetIndex",
	}
}

// ParseRegistry reads per-bank locations. Data rows follow the header in
// bank.RegistryLayout order; blank or unparsable slots are left out.
func (l RegistryLayout) ParseRegistry(values [][]string) (map[bank.Bank]Location, error) {
	if l.HeaderRow < 1 || len(values) < l.HeaderRow {
		return nil, fmt.Errorf("%w: registry header row %d not found", failure.ErrMalformedRecord, l.HeaderRow)
	}
	header := values[l.HeaderRow-1]

	docCol, idxCol := -1, -1
	for i, c := range header {
		switch {
		case strings.EqualFold(strings.TrimSpace(c), l.DocumentColumn):
			docCol = i
		case strings.EqualFold(strings.TrimSpace(c), l.SheetIndexColumn):
			idxCol = i
		}
	}
	if docCol < 0 || idxCol < 0 {
		return nil, fmt.Errorf("%w: registry header needs %q and %q", failure.ErrMalformedRecord, l.DocumentColumn, l.SheetIndexColumn)
	}

	out := make(map[bank.Bank]Location)
	for _, b := range bank.All() {
		slot := bank.RegistrySlot(b)
		i := l.HeaderRow + slot
		if slot < 0 || i >= len(values) {
			continue
		}
		docID := strings.TrimSpace(cell(values[i], docCol))
		idx, err := strconv.Atoi(strings.TrimSpace(cell(values[i], idxCol)))
		if docID == "" || err != nil || idx < 1 {
			continue
		}
		out[b] = Location{DocumentID: docID, SheetIndex: idx}
	}
	return out, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
