package stockbot

import (
	"testing"
	"time"

	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// testBooks bundles the connected books used by the engine tests.
type testBooks struct {
	collection *ledger.Collection
	stock      *ledger.Book
	financial  *ledger.Book
	base       *ledger.Book
}

// setupSingleCurrency creates a stock book and a USD financial book that is
// also the base book, with one instrument account on each side.
func setupSingleCurrency(t *testing.T) *testBooks {
	t.Helper()

	stock := ledger.NewBook("Stock Book", "USD").SetFractionDigits(0)
	stock.SetProperty(string(StockBookProp), "true")
	financial := ledger.NewBook("Financial USD", "USD")
	financial.SetProperty(string(ExcCodeProp), "USD")
	financial.SetProperty(string(ExcBaseProp), "true")
	collection := ledger.NewCollection().Add(stock).Add(financial)

	stock.NewAccount("AAPL", ledger.Asset).
		SetProperty(string(StockExcCodeProp), "USD").
		Create()
	financial.NewAccount("AAPL", ledger.Asset).Create()
	financial.NewAccount("Broker", ledger.Asset).Create()

	return &testBooks{collection: collection, stock: stock, financial: financial, base: financial}
}

// setupCrossCurrency creates a stock book, a EUR financial book and a USD
// base book, with a EUR instrument account.
func setupCrossCurrency(t *testing.T) *testBooks {
	t.Helper()

	stock := ledger.NewBook("Stock Book", "EUR").SetFractionDigits(0)
	stock.SetProperty(string(StockBookProp), "true")
	financial := ledger.NewBook("Financial EUR", "EUR")
	financial.SetProperty(string(ExcCodeProp), "EUR")
	base := ledger.NewBook("Base USD", "USD")
	base.SetProperty(string(ExcCodeProp), "USD")
	base.SetProperty(string(ExcBaseProp), "true")
	collection := ledger.NewCollection().Add(stock).Add(financial).Add(base)

	stock.NewAccount("SAP", ledger.Asset).
		SetProperty(string(StockExcCodeProp), "EUR").
		Create()
	financial.NewAccount("SAP", ledger.Asset).Create()

	return &testBooks{collection: collection, stock: stock, financial: financial, base: base}
}

// postPurchase posts an unchecked purchase lot the way the order glue does:
// quantity from the Buy clearing account into the instrument account, with
// price and original quantity stamped.
func postPurchase(t *testing.T, book *ledger.Book, account string, d date.Date, quantity, price float64) *ledger.Transaction {
	t.Helper()
	instrument := book.Account(account)
	if instrument == nil {
		t.Fatalf("postPurchase: account %q not found", account)
	}
	return book.NewTransaction().
		SetDate(d).
		SetAmount(ledger.NewAmount(quantity)).
		From(BuyAccount(book)).
		To(instrument).
		SetDescription("buy "+account).
		SetProperty(string(PriceProp), ledger.NewAmount(price).String()).
		SetProperty(string(OriginalQuantityProp), ledger.NewAmount(quantity).String()).
		Post()
}

// postSale posts an unchecked sale lot: quantity from the instrument account
// into the Sell clearing account.
func postSale(t *testing.T, book *ledger.Book, account string, d date.Date, quantity, price float64) *ledger.Transaction {
	t.Helper()
	instrument := book.Account(account)
	if instrument == nil {
		t.Fatalf("postSale: account %q not found", account)
	}
	return book.NewTransaction().
		SetDate(d).
		SetAmount(ledger.NewAmount(quantity)).
		From(instrument).
		To(SellAccount(book)).
		SetDescription("sell "+account).
		SetProperty(string(PriceProp), ledger.NewAmount(price).String()).
		SetProperty(string(OriginalQuantityProp), ledger.NewAmount(quantity).String()).
		Post()
}

// findByRemoteID returns the single untrashed transaction carrying the
// remote id, failing the test on zero or multiple matches.
func findByRemoteID(t *testing.T, book *ledger.Book, remoteID string) *ledger.Transaction {
	t.Helper()
	txs, err := book.Transactions("remoteId:" + remoteID)
	if err != nil {
		t.Fatalf("Transactions(remoteId:%s) failed: %v", remoteID, err)
	}
	if len(txs) != 1 {
		t.Fatalf("Transactions(remoteId:%s) = %d transactions, want 1", remoteID, len(txs))
	}
	return txs[0]
}

// noRemoteID asserts that no untrashed transaction carries the remote id.
func noRemoteID(t *testing.T, book *ledger.Book, remoteID string) {
	t.Helper()
	txs, err := book.Transactions("remoteId:" + remoteID)
	if err != nil {
		t.Fatalf("Transactions(remoteId:%s) failed: %v", remoteID, err)
	}
	if len(txs) != 0 {
		t.Fatalf("Transactions(remoteId:%s) = %d transactions, want 0", remoteID, len(txs))
	}
}

// jan builds a date in January 2025, the default test period.
func jan(day int) date.Date { return date.New(2025, time.January, day) }
