package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"income", Income, true},
		{"expense", Expense, true},
		{" Income ", Income, true},
		{"EXPENSE", Expense, true},
		{"", "", false},
		{"transfer", "", false},
		{"ingreso", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidType) {
			t.Fatalf("%q expected ErrInvalidType, got %v", tc.in, err)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, c := range []int64{0, -1, -10000} {
		if err := (Money{Cents: c}).Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("cents=%d expected ErrInvalidAmount, got %v", c, err)
		}
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{Type: Income, Amount: Money{Cents: 100}, Category: "salary"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		in   TransactionInput
		want error
	}{
		{TransactionInput{Type: "other", Amount: Money{Cents: 1}, Category: "c"}, ErrInvalidType},
		{TransactionInput{Type: Expense, Amount: Money{Cents: 0}, Category: "c"}, ErrInvalidAmount},
		{TransactionInput{Type: Expense, Amount: Money{Cents: -5}, Category: "c"}, ErrInvalidAmount},
		{TransactionInput{Type: Expense, Amount: Money{Cents: 1}, Category: "  "}, ErrEmptyCategory},
		{TransactionInput{Type: Expense, Amount: Money{Cents: 1}, Category: strings.Repeat("c", 101)}, ErrTooLong},
		{TransactionInput{Type: Expense, Amount: Money{Cents: 1}, Category: "c", Description: strings.Repeat("d", 201)}, ErrTooLong},
	}
	for i, tc := range bads {
		err := tc.in.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	in := TransactionInput{
		Type:        Expense,
		Amount:      Money{Cents: 1},
		Category:    strings.Repeat("€", MaxCategoryLen),
		Description: strings.Repeat("ñ", MaxDescriptionLen),
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("multibyte text at the limit rejected: %v", err)
	}
	in.Category += "€"
	if err := in.Validate(); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong one past the limit, got %v", err)
	}

	if err := ValidateRegistration(strings.Repeat("é", MaxNameLen), "ana@x.com", "pw1"); err != nil {
		t.Fatalf("multibyte name at the limit rejected: %v", err)
	}
}

func TestValidateRegistration(t *testing.T) {
	if err := ValidateRegistration("Ana", "ana@x.com", "pw1"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	cases := []struct {
		name, email, password string
		want                  error
	}{
		{"", "ana@x.com", "pw1", ErrEmptyName},
		{"Ana", "not-an-email", "pw1", ErrInvalidEmail},
		{"Ana", "Ana <ana@x.com>", "pw1", ErrInvalidEmail},
		{"Ana", "ana@x.com", "", ErrEmptyPassword},
	}
	for _, tc := range cases {
		if err := ValidateRegistration(tc.name, tc.email, tc.password); !errors.Is(err, tc.want) {
			t.Fatalf("(%q,%q) expected %v, got %v", tc.name, tc.email, tc.want, err)
		}
	}
	err := ValidateRegistration("Ana", "ana@x.com", strings.Repeat("p", 73))
	if !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong for password longer than 72 bytes, got %v", err)
	}
	if err.Error() != "password too long (max 72 bytes)" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana@X.com "); got != "ana@x.com" {
		t.Fatalf("NormalizeEmail = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	txs := []Transaction{
		{ID: 3, Type: Expense, Amount: Money{Cents: 3000}, Category: "food", OccurredAt: now},
		{ID: 2, Type: Income, Amount: Money{Cents: 10000}, Category: "salary", OccurredAt: now.Add(-time.Minute)},
		{ID: 1, Type: Expense, Amount: Money{Cents: 1250}, Category: "bus", OccurredAt: now.Add(-time.Hour)},
	}
	d := Summarize(User{ID: 1, Name: "Ana"}, txs)
	if d.TotalIncome.Cents != 10000 || d.TotalExpense.Cents != 4250 || d.Balance.Cents != 5750 || d.Count != 3 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}
	if d.TotalIncome.Cents-d.TotalExpense.Cents != d.Balance.Cents {
		t.Fatalf("balance invariant broken")
	}
	if strings.Join(d.Categories, ",") != "bus,food,salary" {
		t.Fatalf("unexpected categories: %v", d.Categories)
	}

	empty := Summarize(User{ID: 2}, nil)
	if empty.Count != 0 || empty.Balance.Cents != 0 {
		t.Fatalf("unexpected empty dashboard: %+v", empty)
	}
}
