package ledger

import (
	"testing"
	"time"

	"github.com/etnz/stockbot/date"
)

func TestBalancesReport(t *testing.T) {
	book := NewBook("Test", "USD")
	cash := book.NewAccount("Cash", Asset).Create()
	loan := book.NewAccount("Loan", Liability).Create()
	income := book.NewAccount("Income", Incoming).Create()
	rent := book.NewAccount("Rent", Outgoing).Create()

	post := func(d date.Date, amount float64, from, to *Account) *Transaction {
		return book.NewTransaction().
			SetDate(d).
			SetAmount(NewAmount(amount)).
			From(from).To(to).
			Post()
	}
	post(date.New(2025, time.January, 1), 1000, income, cash)
	post(date.New(2025, time.January, 10), 200, cash, rent)
	post(date.New(2025, time.January, 20), 500, loan, cash)
	post(date.New(2025, time.January, 25), 50, cash, loan)
	// Trashed postings never count.
	post(date.New(2025, time.January, 26), 999, income, cash).Trash()

	report, err := book.BalancesReport("")
	if err != nil {
		t.Fatalf("BalancesReport() failed: %v", err)
	}
	// Debits grow assets and outgoing, credits grow liabilities and incoming.
	testCases := []struct {
		account string
		want    string
	}{
		{"Cash", "1250"},
		{"Loan", "450"},
		{"Income", "1000"},
		{"Rent", "200"},
	}
	for _, tc := range testCases {
		if got := report.Cumulative(tc.account).String(); got != tc.want {
			t.Errorf("Cumulative(%s) = %s, want %s", tc.account, got, tc.want)
		}
	}
}

func TestBalancesReportWindows(t *testing.T) {
	book := NewBook("Test", "USD")
	cash := book.NewAccount("Cash", Asset).Create()
	income := book.NewAccount("Income", Incoming).Create()

	for day, amount := range map[int]float64{5: 100, 15: 200, 25: 400} {
		book.NewTransaction().
			SetDate(date.New(2025, time.January, day)).
			SetAmount(NewAmount(amount)).
			From(income).To(cash).
			Post()
	}

	testCases := []struct {
		name  string
		query string
		want  string
	}{
		{"on bounds inclusively", "account:'Cash' on:2025-01-15", "300"},
		{"on before everything", "account:'Cash' on:2025-01-01", "0"},
		{"after is inclusive", "account:'Cash' after:2025-01-15", "600"},
		{"before is exclusive", "account:'Cash' before:2025-01-15", "100"},
		{"window", "account:'Cash' after:2025-01-06 before:2025-01-25", "200"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := book.BalancesReport(tc.query)
			if err != nil {
				t.Fatalf("BalancesReport(%q) failed: %v", tc.query, err)
			}
			if got := report.Cumulative("Cash").String(); got != tc.want {
				t.Errorf("Cumulative(Cash) = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestBalancesReportMissingAccount(t *testing.T) {
	book := NewBook("Test", "USD")
	report, err := book.BalancesReport("account:'Ghost'")
	if err != nil {
		t.Fatalf("BalancesReport() failed: %v", err)
	}
	if got := report.Cumulative("Ghost"); !got.IsZero() {
		t.Errorf("Cumulative(Ghost) = %s, want 0", got)
	}
}
