package ledger

import (
	"testing"
	"time"

	"github.com/etnz/stockbot/date"
)

// setupQueryBook creates a book with a handful of transactions covering the
// query dimensions: dates, accounts, checked state, trash and remote ids.
func setupQueryBook(t *testing.T) (*Book, map[string]*Transaction) {
	t.Helper()
	book := NewBook("Test", "USD")
	cash := book.NewAccount("Cash", Asset).Create()
	savings := book.NewAccount("My Savings", Asset).Create()
	income := book.NewAccount("Income", Incoming).Create()

	txs := map[string]*Transaction{
		"salary": book.NewTransaction().
			SetDate(date.New(2025, time.March, 1)).
			SetAmount(NewAmount(1000)).
			From(income).To(cash).
			SetDescription("salary").
			AddRemoteID("payroll_42").
			Post(),
		"transfer": book.NewTransaction().
			SetDate(date.New(2025, time.March, 10)).
			SetAmount(NewAmount(300)).
			From(cash).To(savings).
			SetDescription("transfer").
			Post().Check(),
		"groceries": book.NewTransaction().
			SetDate(date.New(2025, time.March, 20)).
			SetAmount(NewAmount(50)).
			From(cash).To(book.NewAccount("Food", Outgoing).Create()).
			SetDescription("groceries").
			Post(),
	}
	txs["trashed"] = book.NewTransaction().
		SetDate(date.New(2025, time.March, 15)).
		SetAmount(NewAmount(10)).
		From(cash).To(savings).
		SetDescription("mistake").
		Post().Trash()
	return book, txs
}

func TestBookTransactionsQuery(t *testing.T) {
	book, txs := setupQueryBook(t)

	testCases := []struct {
		name  string
		query string
		want  []string
	}{
		{"all live", "", []string{"salary", "transfer", "groceries"}},
		{"after is inclusive", "after:2025-03-10", []string{"transfer", "groceries"}},
		{"before is exclusive", "before:2025-03-10", []string{"salary"}},
		{"on matches the exact day", "on:2025-03-10", []string{"transfer"}},
		{"window", "after:2025-03-02 before:2025-03-20", []string{"transfer"}},
		{"checked", "is:checked", []string{"transfer"}},
		{"unchecked", "is:unchecked", []string{"salary", "groceries"}},
		{"trashed", "is:trashed", []string{"trashed"}},
		{"account", "account:'Cash'", []string{"salary", "transfer", "groceries"}},
		{"quoted account name with space", "account:'My Savings'", []string{"transfer"}},
		{"remote id", "remoteId:payroll_42", []string{"salary"}},
		{"remote id unknown", "remoteId:nope", nil},
		{"conjunction", "account:'Cash' is:unchecked after:2025-03-02", []string{"groceries"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := book.Transactions(tc.query)
			if err != nil {
				t.Fatalf("Transactions(%q) failed: %v", tc.query, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Transactions(%q) = %d transactions, want %d", tc.query, len(got), len(tc.want))
			}
			for i, name := range tc.want {
				if got[i] != txs[name] {
					t.Errorf("Transactions(%q)[%d] = %s, want %s", tc.query, i, got[i].Description(), name)
				}
			}
		})
	}
}

func TestBookTransactionsQueryErrors(t *testing.T) {
	book, _ := setupQueryBook(t)
	for _, query := range []string{
		"bogus",
		"when:2025-03-01",
		"after:not-a-date",
		"is:perfect",
	} {
		if _, err := book.Transactions(query); err == nil {
			t.Errorf("Transactions(%q) succeeded, want error", query)
		}
	}
}

func TestBookTransactionByID(t *testing.T) {
	book, txs := setupQueryBook(t)

	if got := book.Transaction(txs["salary"].ID()); got != txs["salary"] {
		t.Errorf("Transaction(id) = %v, want the salary transaction", got)
	}
	// Trashed transactions stay reachable by id.
	if got := book.Transaction(txs["trashed"].ID()); got != txs["trashed"] {
		t.Errorf("Transaction(trashed id) = %v, want the trashed transaction", got)
	}
	if got := book.Transaction("unknown"); got != nil {
		t.Errorf("Transaction(unknown) = %v, want nil", got)
	}
}
