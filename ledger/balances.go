package ledger

import "fmt"

// BalancesReport holds cumulative balances per account for a date window.
//
// Balances follow the account nature: asset and outgoing accounts grow with
// debits, liability and incoming accounts grow with credits.
type BalancesReport struct {
	book      *Book
	byAccount map[string]Amount
}

// BalancesReport computes cumulative balances for the transactions matching
// the query. An `on:` term bounds the window inclusively (balance as of that
// date); `after:`/`before:` select an exclusive window. Trashed transactions
// never count.
func (b *Book) BalancesReport(queryStr string) (*BalancesReport, error) {
	q, err := parseQuery(queryStr)
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", b.name, err)
	}
	report := &BalancesReport{book: b, byAccount: make(map[string]Amount)}
	for _, tx := range b.transactions {
		if !tx.posted || tx.trashed {
			continue
		}
		if !q.on.IsZero() && tx.DateValue() > q.on.Value() {
			continue
		}
		if !q.after.IsZero() && tx.DateValue() < q.after.Value() {
			continue
		}
		if !q.before.IsZero() && tx.DateValue() >= q.before.Value() {
			continue
		}
		report.apply(tx.debit, tx.amount, true)
		report.apply(tx.credit, tx.amount, false)
	}
	if q.account != "" {
		// Restrict the report to the named account.
		filtered := make(map[string]Amount, 1)
		if bal, ok := report.byAccount[q.account]; ok {
			filtered[q.account] = bal
		}
		report.byAccount = filtered
	}
	return report, nil
}

func (r *BalancesReport) apply(a *Account, amount Amount, debit bool) {
	if a == nil {
		return
	}
	increase := debit
	if a.typ == Liability || a.typ == Incoming {
		increase = !debit
	}
	bal := r.byAccount[a.name]
	if increase {
		bal = bal.Plus(amount)
	} else {
		bal = bal.Minus(amount)
	}
	r.byAccount[a.name] = bal
}

// CumulativeRaw returns the unrounded cumulative balance of the named
// account; a missing account balances to zero.
func (r *BalancesReport) CumulativeRaw(accountName string) Amount {
	return r.byAccount[accountName]
}

// Cumulative returns the cumulative balance rounded to the book precision.
func (r *BalancesReport) Cumulative(accountName string) Amount {
	return r.byAccount[accountName].Round(r.book.fractionDigits)
}
