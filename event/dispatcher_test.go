package event

import (
	"fmt"
	"testing"
	"time"

	"github.com/etnz/stockbot"
	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// setupDispatcher builds a stock book plus a USD financial book wired into a
// dispatcher, with a Broker exchange account declaring its fees account.
func setupDispatcher(t *testing.T) (*Dispatcher, *ledger.Book, *ledger.Book) {
	t.Helper()

	stock := ledger.NewBook("Stock Book", "USD").SetFractionDigits(0)
	stock.SetProperty(string(stockbot.StockBookProp), "true")
	financial := ledger.NewBook("Financial", "USD")
	financial.SetProperty(string(stockbot.ExcCodeProp), "USD")
	financial.SetProperty(string(stockbot.ExcBaseProp), "true")
	collection := ledger.NewCollection().Add(stock).Add(financial)

	financial.NewAccount("Broker", ledger.Asset).Create()
	financial.NewAccount("Bank", ledger.Asset).Create()

	return NewDispatcher(stockbot.NewBot(collection)), stock, financial
}

// orderEvent renders a raw TRANSACTION_POSTED order webhook. The broker leg
// is the debit on a purchase, the credit on a sale.
func orderEvent(t *testing.T, bookID, agentID, amount, quantity string, purchase bool) *Event {
	t.Helper()
	broker := `{"id": "a1", "name": "Broker", "type": "ASSET", "properties": {"stock_fees_account": "Fees"}}`
	bank := `{"id": "a2", "name": "Bank", "type": "ASSET"}`
	credit, debit := bank, broker
	if !purchase {
		credit, debit = broker, bank
	}
	body := fmt.Sprintf(`{
		"type": "TRANSACTION_POSTED",
		"bookId": %q,
		"agent": {"id": %q},
		"data": {"object": {"transaction": {
			"id": "order1",
			"posted": true,
			"amount": %q,
			"date": "2025-01-07",
			"description": "order AAPL",
			"properties": {
				"instrument": "AAPL",
				"trade_date": "2025-01-05",
				"quantity": %q,
				"fees": "5",
				"interest": "10",
				"order": "1"
			},
			"creditAccount": %s,
			"debitAccount": %s
		}}}
	}`, bookID, agentID, amount, quantity, credit, debit)
	e, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	return e
}

func mustFind(t *testing.T, book *ledger.Book, remoteID string) *ledger.Transaction {
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

func TestInterceptOrder_Purchase(t *testing.T) {
	d, _, financial := setupDispatcher(t)

	result, err := d.Handle(orderEvent(t, financial.ID(), "user-1", "1015", "10", true))
	if err != nil {
		t.Fatalf("Handle() failed: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("Handle() error = %s", result.Error)
	}

	fees := mustFind(t, financial, "fees_order1")
	if got := fees.Amount().String(); got != "5" {
		t.Errorf("fees amount = %s, want 5", got)
	}
	if got := fees.DebitAccount().Name(); got != "Fees" {
		t.Errorf("fees debit account = %s, want Fees", got)
	}

	interest := mustFind(t, financial, "interest_order1")
	if got := interest.Amount().String(); got != "10" {
		t.Errorf("interest amount = %s, want 10", got)
	}
	if got := interest.DebitAccount().Name(); got != "AAPL Interest" {
		t.Errorf("interest debit account = %s, want AAPL Interest", got)
	}

	// 1015 total less 10 interest less 5 fees: 1000 for 10 shares at 100.
	instrument := mustFind(t, financial, "instrument_order1")
	if got := instrument.Amount().String(); got != "1000" {
		t.Errorf("instrument amount = %s, want 1000", got)
	}
	if got := instrument.DebitAccount().Name(); got != "AAPL" {
		t.Errorf("instrument debit account = %s, want AAPL", got)
	}
	if got := instrument.CreditAccount().Name(); got != "Broker" {
		t.Errorf("instrument credit account = %s, want Broker", got)
	}
	for prop, want := range map[stockbot.Prop]string{
		stockbot.QuantityProp:       "10",
		stockbot.PriceProp:          "100",
		stockbot.OrderProp:          "1",
		stockbot.SettlementDateProp: "2025-01-07",
	} {
		if got := instrument.Property(string(prop)); got != want {
			t.Errorf("instrument %s = %q, want %q", prop, got, want)
		}
	}
	if got := instrument.Date(); got != date.New(2025, time.January, 5) {
		t.Errorf("instrument date = %s, want the trade date", got)
	}
}

func TestInterceptOrder_Sale(t *testing.T) {
	d, _, financial := setupDispatcher(t)

	if _, err := d.Handle(orderEvent(t, financial.ID(), "user-1", "985", "10", false)); err != nil {
		t.Fatalf("Handle() failed: %v", err)
	}

	// On a sale the fees reduce the proceeds: 985 - 10 + 5 = 980.
	instrument := mustFind(t, financial, "instrument_order1")
	if got := instrument.Amount().String(); got != "980" {
		t.Errorf("instrument amount = %s, want 980", got)
	}
	if got := instrument.CreditAccount().Name(); got != "AAPL" {
		t.Errorf("instrument credit account = %s, want AAPL", got)
	}
	if got := instrument.Property(string(stockbot.PriceProp)); got != "98" {
		t.Errorf("instrument price = %s, want 98", got)
	}
}

func TestInterceptOrder_Skips(t *testing.T) {
	d, stock, financial := setupDispatcher(t)

	t.Run("exchange bot events", func(t *testing.T) {
		result, err := d.Handle(orderEvent(t, financial.ID(), exchangeBotAgentID, "1015", "10", true))
		if err != nil {
			t.Fatalf("Handle() failed: %v", err)
		}
		if result.Result != false {
			t.Errorf("result = %v, want false", result.Result)
		}
	})

	t.Run("stock book events", func(t *testing.T) {
		result, err := d.Handle(orderEvent(t, stock.ID(), "user-1", "1015", "10", true))
		if err != nil {
			t.Fatalf("Handle() failed: %v", err)
		}
		if result.Result != false {
			t.Errorf("result = %v, want false", result.Result)
		}
	})

	t.Run("zero quantity is a validation error", func(t *testing.T) {
		result, err := d.Handle(orderEvent(t, financial.ID(), "user-1", "1015", "0", true))
		if err != nil {
			t.Fatalf("Handle() failed: %v", err)
		}
		if result.Error != "Quantity must not be zero" {
			t.Errorf("result error = %q, want the zero-quantity rejection", result.Error)
		}
	})
}

func TestHandleTransactionChecked_MirrorsLot(t *testing.T) {
	d, stock, financial := setupDispatcher(t)

	body := fmt.Sprintf(`{
		"type": "TRANSACTION_CHECKED",
		"bookId": %q,
		"agent": {"id": "user-1"},
		"data": {"object": {"transaction": {
			"id": "fin1",
			"posted": true,
			"amount": "1000",
			"date": "2025-01-07",
			"description": "Buy 10 AAPL",
			"properties": {"quantity": "10", "price": "100", "trade_date": "2025-01-05", "order": "1"},
			"creditAccount": {"id": "a1", "name": "Broker", "type": "ASSET"},
			"debitAccount": {"id": "a2", "name": "AAPL", "type": "ASSET", "properties": {"stock_exc_code": "USD"}}
		}}}
	}`, financial.ID())
	e, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if _, err := d.Handle(e); err != nil {
		t.Fatalf("Handle() failed: %v", err)
	}

	lot := mustFind(t, stock, "fin1")
	if got := lot.Amount().String(); got != "10" {
		t.Errorf("lot amount = %s, want 10", got)
	}
	if got := lot.CreditAccount().Name(); got != stockbot.BuyAccountName {
		t.Errorf("lot credit account = %s, want %s", got, stockbot.BuyAccountName)
	}
	if got := lot.DebitAccount().Name(); got != "AAPL" {
		t.Errorf("lot debit account = %s, want AAPL", got)
	}
	if got := lot.Date(); got != date.New(2025, time.January, 5) {
		t.Errorf("lot date = %s, want the trade date", got)
	}
	for prop, want := range map[stockbot.Prop]string{
		stockbot.PriceProp:            "100",
		stockbot.OriginalQuantityProp: "10",
	} {
		if got := lot.Property(string(prop)); got != want {
			t.Errorf("lot %s = %q, want %q", prop, got, want)
		}
	}
	// The instrument account was created with its exchange code.
	account := stock.Account("AAPL")
	if account == nil || account.Property(string(stockbot.StockExcCodeProp)) != "USD" {
		t.Errorf("AAPL stock account missing or without exchange code")
	}

	// Replaying the event does not duplicate the mirror.
	if _, err := d.Handle(e); err != nil {
		t.Fatalf("replayed Handle() failed: %v", err)
	}
	mustFind(t, stock, "fin1")
}

func TestHandleTransactionUnchecked_FlagsRebuild(t *testing.T) {
	d, stock, financial := setupDispatcher(t)
	account := stock.NewAccount("AAPL", ledger.Asset).
		SetProperty(string(stockbot.StockExcCodeProp), "USD").
		Create()
	stockbot.NewStockAccount(account).SetRealizedDate(date.New(2025, time.January, 31)).Update()
	stock.NewTransaction().
		SetDate(date.New(2025, time.January, 10)).
		SetAmount(ledger.NewAmount(10)).
		From(stockbot.BuyAccount(stock)).
		To(account).
		AddRemoteID("fin1").
		Post().Check()

	body := fmt.Sprintf(`{
		"type": "TRANSACTION_UNCHECKED",
		"bookId": %q,
		"agent": {"id": "user-1"},
		"data": {"object": {"transaction": {"id": "fin1", "posted": true, "amount": "1000",
			"creditAccount": {"id": "a1", "name": "Broker"}, "debitAccount": {"id": "a2", "name": "AAPL"}}}}
	}`, financial.ID())
	e, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if _, err := d.Handle(e); err != nil {
		t.Fatalf("Handle() failed: %v", err)
	}

	if !stockbot.NewStockAccount(account).NeedsRebuild() {
		t.Errorf("account not flagged for rebuild")
	}
}

func TestHandleTransactionDeleted_CascadesOrderChildren(t *testing.T) {
	d, _, financial := setupDispatcher(t)
	if _, err := d.Handle(orderEvent(t, financial.ID(), "user-1", "1015", "10", true)); err != nil {
		t.Fatalf("posting order failed: %v", err)
	}

	deleted := orderEvent(t, financial.ID(), "user-1", "1015", "10", true)
	deleted.Type = TransactionDeleted
	if _, err := d.Handle(deleted); err != nil {
		t.Fatalf("Handle() failed: %v", err)
	}

	for _, remoteID := range []string{"fees_order1", "interest_order1", "instrument_order1"} {
		live, err := financial.Transactions("remoteId:" + remoteID)
		if err != nil {
			t.Fatalf("Transactions() failed: %v", err)
		}
		if len(live) != 0 {
			t.Errorf("%s still live after delete", remoteID)
		}
		gone, err := financial.Transactions("remoteId:" + remoteID + " is:trashed")
		if err != nil {
			t.Fatalf("Transactions() failed: %v", err)
		}
		if len(gone) != 1 {
			t.Errorf("%s not trashed after delete", remoteID)
		}
	}
}

func TestHandleAccountCreated_MirrorsInstrumentAccount(t *testing.T) {
	d, stock, financial := setupDispatcher(t)

	body := fmt.Sprintf(`{
		"type": "ACCOUNT_CREATED",
		"bookId": %q,
		"agent": {"id": "user-1"},
		"data": {"object": {"id": "a9", "name": "MSFT", "type": "ASSET",
			"properties": {"stock_exc_code": "USD"}}}
	}`, financial.ID())
	e, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if _, err := d.Handle(e); err != nil {
		t.Fatalf("Handle() failed: %v", err)
	}

	mirror := stock.Account("MSFT")
	if mirror == nil {
		t.Fatalf("MSFT not mirrored into the stock book")
	}
	if got := mirror.Property(string(stockbot.StockExcCodeProp)); got != "USD" {
		t.Errorf("mirror stock_exc_code = %q, want USD", got)
	}

	// Accounts without an exchange code are not instruments: no mirror.
	plain := fmt.Sprintf(`{
		"type": "ACCOUNT_CREATED",
		"bookId": %q,
		"data": {"object": {"id": "a10", "name": "Savings", "type": "ASSET"}}
	}`, financial.ID())
	e, err = Parse([]byte(plain))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if _, err := d.Handle(e); err != nil {
		t.Fatalf("Handle() failed: %v", err)
	}
	if stock.Account("Savings") != nil {
		t.Errorf("Savings mirrored into the stock book, want skipped")
	}
}
