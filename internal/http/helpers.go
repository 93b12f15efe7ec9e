package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"finanzas/internal/core"
)

const maxErrorMessageLen = 300

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == 0x7f {
			return -1
		}
		return r
	}, s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrEmptyCategory,
		core.ErrEmptyName,
		core.ErrInvalidEmail,
		core.ErrEmptyPassword,
		core.ErrTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// parseTransactionForm reads type, amount, category and description.
// Amounts accept either "12.34" or "12,34".
func parseTransactionForm(r *http.Request) (core.TransactionInput, error) {
	if err := r.ParseForm(); err != nil {
		return core.TransactionInput{}, err
	}

	txType, err := core.ParseTransactionType(r.PostForm.Get("type"))
	if err != nil {
		return core.TransactionInput{}, err
	}
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.PostForm.Get("amount")))
	if err != nil {
		return core.TransactionInput{}, err
	}

	in := core.TransactionInput{
		Type:        txType,
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(r.PostForm.Get("category")),
		Description: sanitizeInput(r.PostForm.Get("description")),
	}
	return in, in.Validate()
}

var errBadID = errors.New("invalid transaction id")

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errBadID
	}
	return id, nil
}
