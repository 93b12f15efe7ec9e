package sheets

import (
	"errors"
	"testing"
	"time"

	"finanzas/internal/core"
)

func TestEncodeDecodeRow(t *testing.T) {
	tx := core.Transaction{
		ID:          12,
		UserID:      3,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 3050},
		Category:    "food",
		Description: "=SUM(A1:A9)",
		OccurredAt:  time.Date(2025, 3, 1, 9, 30, 15, 999, time.UTC),
	}

	cells := EncodeRow(tx)
	if len(cells) != Columns {
		t.Fatalf("expected %d cells, got %d", Columns, len(cells))
	}

	// Simulate the API's UNFORMATTED_VALUE rendering: numbers come back as float64.
	api := []any{float64(12), cells[1], cells[2], 30.5, cells[4], cells[5], float64(3)}
	got, err := DecodeRow(api)
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}
	if !got.OccurredAt.Equal(tx.OccurredAt.Truncate(time.Second)) {
		t.Errorf("date mismatch: %v", got.OccurredAt)
	}
	got.OccurredAt = tx.OccurredAt
	if got != tx {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, tx)
	}
}

func TestDecodeRowRejectsGarbage(t *testing.T) {
	tests := map[string][]any{
		"short":     {"1", "2025-01-01 00:00:00"},
		"bad id":    {"x", "2025-01-01 00:00:00", "income", "1"},
		"bad date":  {"1", "yesterday", "income", "1"},
		"bad type":  {"1", "2025-01-01 00:00:00", "gift", "1"},
		"bad money": {"1", "2025-01-01 00:00:00", "income", "-3"},
	}
	for name, row := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeRow(row); !errors.Is(err, ErrBadRow) {
				t.Errorf("expected ErrBadRow, got %v", err)
			}
		})
	}
}

func TestIsHeader(t *testing.T) {
	if !IsHeader(Header) {
		t.Error("Header should be detected")
	}
	if IsHeader([]any{float64(1)}) {
		t.Error("data row detected as header")
	}
}
