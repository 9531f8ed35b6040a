package ledger

import (
	"testing"
	"time"

	"github.com/etnz/stockbot/date"
)

func TestStateRestoreRoundTrip(t *testing.T) {
	original := NewBook("Stock Book", "USD").SetFractionDigits(0)
	original.SetProperty("stock_book", "true")
	original.SetClosingDate(date.New(2025, time.January, 31))
	NewCollection().Add(original)

	group := original.NewGroup("Instruments").SetProperty("stock_exc_code", "USD").Create()
	account := original.NewAccount("AAPL", Asset).
		SetProperty("stock_exc_code", "USD").
		AddGroup(group).
		Create()
	buy := original.NewAccount("Buy", Incoming).Create()

	parent := original.NewTransaction().
		SetDate(date.New(2025, time.January, 5)).
		SetAmount(NewAmount(10)).
		From(buy).To(account).
		SetDescription("buy AAPL").
		SetProperty("price", "10").
		AddRemoteID("instrument_abc").
		Post().Check()
	child := original.NewTransaction().
		SetDate(date.New(2025, time.January, 5)).
		SetAmount(NewAmount(5)).
		From(buy).To(account).
		SetProperty("parent_id", parent.ID()).
		Post()
	child.Trash()

	// Rebuild a collection from the snapshots.
	restored := NewCollection()
	book := restored.RestoreBook(original.State())
	book.RestoreGroup(group.State())
	for _, a := range original.Accounts() {
		if _, err := book.RestoreAccount(a.State()); err != nil {
			t.Fatalf("RestoreAccount() failed: %v", err)
		}
	}
	for _, s := range original.TransactionStates() {
		if _, err := book.RestoreTransaction(s); err != nil {
			t.Fatalf("RestoreTransaction() failed: %v", err)
		}
	}

	// Identities survive, so property cross-references keep resolving.
	if book.ID() != original.ID() {
		t.Errorf("book id = %s, want %s", book.ID(), original.ID())
	}
	if got := book.FractionDigits(); got != 0 {
		t.Errorf("fraction digits = %d, want 0", got)
	}
	if got := book.ClosingDate(); got != original.ClosingDate() {
		t.Errorf("closing date = %s, want %s", got, original.ClosingDate())
	}

	gotParent := book.Transaction(parent.ID())
	if gotParent == nil {
		t.Fatalf("parent transaction lost in round trip")
	}
	if !gotParent.Checked() {
		t.Errorf("parent checked flag lost")
	}
	if !gotParent.HasRemoteID("instrument_abc") {
		t.Errorf("parent remote id lost")
	}
	if got := gotParent.Property("price"); got != "10" {
		t.Errorf("parent price = %q, want 10", got)
	}
	if got := gotParent.DebitAccount().Name(); got != "AAPL" {
		t.Errorf("parent debit account = %s, want AAPL", got)
	}

	gotChild := book.Transaction(child.ID())
	if gotChild == nil {
		t.Fatalf("child transaction lost in round trip")
	}
	if !gotChild.Trashed() {
		t.Errorf("child trashed flag lost")
	}
	if got := gotChild.Property("parent_id"); got != gotParent.ID() {
		t.Errorf("child parent_id = %s, want %s", got, gotParent.ID())
	}

	gotAccount := book.Account("AAPL")
	if gotAccount.ID() != account.ID() {
		t.Errorf("account id = %s, want %s", gotAccount.ID(), account.ID())
	}
	if gotGroup := book.Group("Instruments"); gotGroup == nil || !gotAccount.InGroup(gotGroup) {
		t.Errorf("account lost its group membership")
	}
}

func TestRestoreTransactionUnknownAccount(t *testing.T) {
	book := NewCollection().RestoreBook(BookState{ID: "b1", Name: "B", Currency: "USD", FractionDigits: 2, Permission: PermissionOwner})
	_, err := book.RestoreTransaction(TransactionState{ID: "t1", CreditAccount: "Ghost", Posted: true})
	if err == nil {
		t.Fatalf("RestoreTransaction() succeeded with unknown account, want error")
	}
}
