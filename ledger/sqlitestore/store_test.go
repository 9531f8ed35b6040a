package sqlitestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockbot.db")

	stock := ledger.NewBook("Stock Book", "USD").SetFractionDigits(0)
	stock.SetProperty("stock_book", "true")
	stock.SetClosingDate(date.New(2025, time.January, 31))
	financial := ledger.NewBook("Financial", "USD")
	financial.SetProperty("exc_code", "USD")
	collection := ledger.NewCollection().Add(stock).Add(financial)

	group := stock.NewGroup("Instruments").SetProperty("stock_exc_code", "USD").Create()
	account := stock.NewAccount("AAPL", ledger.Asset).
		SetProperty("stock_exc_code", "USD").
		AddGroup(group).
		Create()
	buy := stock.NewAccount("Buy", ledger.Incoming).Create()
	lot := stock.NewTransaction().
		SetDate(date.New(2025, time.January, 5)).
		SetAmount(ledger.NewAmount(10)).
		From(buy).To(account).
		SetDescription("buy AAPL").
		SetProperty("price", "12.5").
		AddRemoteID("instrument_abc").
		Post().Check()
	trashed := stock.NewTransaction().
		SetDate(date.New(2025, time.January, 6)).
		SetAmount(ledger.NewAmount(1)).
		From(buy).To(account).
		Post().Trash()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := store.Save(collection); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Reopen cold, the way a new CLI run does.
	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	defer store.Close()
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	books := loaded.Books()
	if len(books) != 2 {
		t.Fatalf("loaded %d books, want 2", len(books))
	}
	gotStock := books[0]
	if gotStock.ID() != stock.ID() || gotStock.Name() != "Stock Book" {
		t.Errorf("first book = %s (%s), want Stock Book (%s)", gotStock.Name(), gotStock.ID(), stock.ID())
	}
	if got := gotStock.FractionDigits(); got != 0 {
		t.Errorf("stock fraction digits = %d, want 0", got)
	}
	if got := gotStock.ClosingDate(); got != stock.ClosingDate() {
		t.Errorf("closing date = %s, want %s", got, stock.ClosingDate())
	}
	if got := gotStock.Property("stock_book"); got != "true" {
		t.Errorf("stock_book property = %q, want true", got)
	}

	gotAccount := gotStock.Account("AAPL")
	if gotAccount == nil || gotAccount.ID() != account.ID() {
		t.Fatalf("AAPL account lost in round trip")
	}
	if gotGroup := gotStock.Group("Instruments"); gotGroup == nil || !gotAccount.InGroup(gotGroup) {
		t.Errorf("group membership lost in round trip")
	}

	gotLot := gotStock.Transaction(lot.ID())
	if gotLot == nil {
		t.Fatalf("lot transaction lost in round trip")
	}
	if !gotLot.Checked() || !gotLot.Posted() {
		t.Errorf("lot flags = checked %v posted %v, want both", gotLot.Checked(), gotLot.Posted())
	}
	if got := gotLot.Amount().String(); got != "10" {
		t.Errorf("lot amount = %s, want 10", got)
	}
	if got := gotLot.Property("price"); got != "12.5" {
		t.Errorf("lot price = %q, want 12.5", got)
	}
	if !gotLot.HasRemoteID("instrument_abc") {
		t.Errorf("lot remote id lost in round trip")
	}
	if got := gotLot.CreatedAt(); !got.Equal(lot.CreatedAt()) {
		t.Errorf("lot created at = %s, want %s", got, lot.CreatedAt())
	}

	// Trashed transactions survive, still trashed.
	gotTrashed := gotStock.Transaction(trashed.ID())
	if gotTrashed == nil || !gotTrashed.Trashed() {
		t.Errorf("trashed transaction lost or untrashed in round trip")
	}

	// Queries behave the same on the reloaded book.
	txs, err := gotStock.Transactions("remoteId:instrument_abc is:checked")
	if err != nil {
		t.Fatalf("Transactions() failed: %v", err)
	}
	if len(txs) != 1 || txs[0].ID() != lot.ID() {
		t.Errorf("query on reloaded book returned %d transactions, want the lot", len(txs))
	}
}

func TestStoreSaveReplacesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockbot.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	first := ledger.NewCollection().Add(ledger.NewBook("One", "USD")).Add(ledger.NewBook("Two", "USD"))
	if err := store.Save(first); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	second := ledger.NewCollection().Add(ledger.NewBook("Three", "EUR"))
	if err := store.Save(second); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(loaded.Books()) != 1 || loaded.Books()[0].Name() != "Three" {
		t.Errorf("loaded books = %v, want only Three", loaded.Books())
	}
}
