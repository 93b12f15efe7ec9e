package core

import "sort"

// Dashboard is the per-user view of every transaction plus running totals.
type Dashboard struct {
	User         User
	Transactions []Transaction // newest first
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
	Count        int
	Categories   []string // distinct, sorted; used as form suggestions
}

// Summarize partitions txs by type and totals each side.
// Balance is always TotalIncome - TotalExpense.
func Summarize(user User, txs []Transaction) Dashboard {
	d := Dashboard{
		User:         user,
		Transactions: txs,
		Count:        len(txs),
	}
	seen := make(map[string]struct{})
	for _, t := range txs {
		switch t.Type {
		case Income:
			d.TotalIncome.Cents += t.Amount.Cents
		case Expense:
			d.TotalExpense.Cents += t.Amount.Cents
		}
		if _, ok := seen[t.Category]; !ok {
			seen[t.Category] = struct{}{}
			d.Categories = append(d.Categories, t.Category)
		}
	}
	sort.Strings(d.Categories)
	d.Balance = Money{Cents: d.TotalIncome.Cents - d.TotalExpense.Cents}
	return d
}
