package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
)

// DateLayout is how timestamps are written to the sheet, always in UTC.
const DateLayout = "2006-01-02 15:04:05"

// Header is the first row of the mirror sheet.
var Header = []any{"ID", "Date", "Type", "Amount", "Category", "Description", "UserID"}

// Columns is the number of cells per row.
const Columns = 7

// EncodeRow renders t as sheet cells. Numbers stay numeric so the sheet can
// aggregate them.
func EncodeRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.OccurredAt.UTC().Format(DateLayout),
		t.Type.String(),
		t.Amount.Float(),
		t.Category,
		t.Description,
		t.UserID,
	}
}

var ErrBadRow = errors.New("unparseable sheet row")

// DecodeRow parses cells written by EncodeRow, as read back from the API
// (numbers arrive as float64 or strings depending on render option).
func DecodeRow(cells []any) (core.Transaction, error) {
	if len(cells) < 4 {
		return core.Transaction{}, fmt.Errorf("%w: %d cells", ErrBadRow, len(cells))
	}
	get := func(i int) string {
		if i >= len(cells) || cells[i] == nil {
			return ""
		}
		return CellString(cells[i])
	}

	id, err := strconv.ParseInt(get(0), 10, 64)
	if err != nil || id <= 0 {
		return core.Transaction{}, fmt.Errorf("%w: id %q", ErrBadRow, get(0))
	}
	at, err := time.ParseInLocation(DateLayout, get(1), time.UTC)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: date %q", ErrBadRow, get(1))
	}
	typ, err := core.ParseTransactionType(get(2))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: type %q", ErrBadRow, get(2))
	}
	cents, err := core.ParseDecimalToCents(get(3))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: amount %q", ErrBadRow, get(3))
	}
	var userID int64
	if s := get(6); s != "" {
		if userID, err = strconv.ParseInt(s, 10, 64); err != nil {
			return core.Transaction{}, fmt.Errorf("%w: user id %q", ErrBadRow, s)
		}
	}

	return core.Transaction{
		ID:          id,
		UserID:      userID,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Category:    get(4),
		Description: get(5),
		OccurredAt:  at,
	}, nil
}

// CellString normalises a cell value to text. Whole floats print without a
// fractional part so ids round-trip.
func CellString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// IsHeader reports whether cells is the header row.
func IsHeader(cells []any) bool {
	return len(cells) > 0 && strings.EqualFold(CellString(cells[0]), "ID")
}
