package event

import (
	"fmt"
	"log"

	"github.com/etnz/stockbot"
	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// handleTransactionChecked mirrors a checked instrument trade of a financial
// book into the stock book as a quantity lot.
func (d *Dispatcher) handleTransactionChecked(book *ledger.Book, e *Event) (*Result, error) {
	if e.Agent.ID == AgentID || stockbot.IsStockBook(book) {
		return falseResult(), nil
	}

	payload, err := e.Transaction()
	if err != nil {
		return nil, err
	}
	if !payload.Posted {
		return falseResult(), nil
	}

	stockExcCode := payloadStockExcCode(payload)
	if stockExcCode == "" || stockExcCode != stockbot.GetExcCode(book) {
		return falseResult(), nil
	}

	stockBook := stockbot.GetStockBook(book)
	if stockBook == nil {
		return falseResult(), nil
	}

	// Already mirrored.
	if mirrors, err := stockBook.Transactions("remoteId:" + payload.ID); err != nil {
		return nil, err
	} else if len(mirrors) > 0 {
		return falseResult(), nil
	}

	quantity, ok := orderQuantity(book, payload)
	if !ok || quantity.IsZero() {
		return falseResult(), nil
	}

	instrumentLeg, purchase := payloadInstrumentLeg(payload)
	if instrumentLeg == nil {
		return falseResult(), nil
	}

	stockAccount := stockBook.Account(instrumentLeg.Name)
	if stockAccount == nil {
		stockAccount = stockBook.NewAccount(instrumentLeg.Name, ledger.Asset).
			SetProperty(string(stockbot.StockExcCodeProp), stockExcCode).
			Create()
	}

	lotDate, err := lotDateOf(payload)
	if err != nil {
		return nil, err
	}

	amount, err := book.ParseValue(payload.Amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: bad amount %q", payload.ID, payload.Amount)
	}
	price := amount.Div(quantity)
	if v := payload.Property(string(stockbot.PriceProp)); v != "" {
		if parsed, err := book.ParseValue(v); err == nil {
			price = parsed
		}
	}

	from, to := stockbot.BuyAccount(stockBook), stockAccount
	if !purchase {
		from, to = stockAccount, stockbot.SellAccount(stockBook)
	}

	lot := stockBook.NewTransaction().
		SetDate(lotDate).
		SetAmount(quantity).
		From(from).
		To(to).
		SetDescription(payload.Description).
		SetProperty(string(stockbot.PriceProp), price.String()).
		SetProperty(string(stockbot.OrderProp), payload.Property(string(stockbot.OrderProp))).
		SetProperty(string(stockbot.OriginalQuantityProp), quantity.String()).
		SetProperty(string(stockbot.PriceHistProp), payload.Property(string(stockbot.PriceHistProp))).
		SetProperty(string(stockbot.TradeExcRateProp), payload.Property(string(stockbot.TradeExcRateProp))).
		SetProperty(string(stockbot.TradeExcRateHistProp), payload.Property(string(stockbot.TradeExcRateHistProp))).
		AddRemoteID(payload.ID).
		Post()

	stockbot.FlagStockAccountForRebuildIfNeeded(lot)

	return &Result{Result: record(stockBook, lot)}, nil
}

// handleTransactionUnchecked flags the stock account for rebuild when an
// already-realized posting is reopened.
func (d *Dispatcher) handleTransactionUnchecked(book *ledger.Book, e *Event) (*Result, error) {
	if e.Agent.ID == AgentID {
		return falseResult(), nil
	}

	payload, err := e.Transaction()
	if err != nil {
		return nil, err
	}

	if stockbot.IsStockBook(book) {
		if tx := book.Transaction(payload.ID); tx != nil {
			stockbot.FlagStockAccountForRebuildIfNeeded(tx)
			return &Result{Result: true}, nil
		}
		return falseResult(), nil
	}

	stockBook := stockbot.GetStockBook(book)
	if stockBook == nil {
		return falseResult(), nil
	}
	mirrors, err := stockBook.Transactions("remoteId:" + payload.ID)
	if err != nil {
		return nil, err
	}
	for _, mirror := range mirrors {
		stockbot.FlagStockAccountForRebuildIfNeeded(mirror)
	}
	if len(mirrors) == 0 {
		return falseResult(), nil
	}
	return &Result{Result: true}, nil
}

// handleTransactionUpdated resyncs the stock mirror of an edited financial
// posting and flags the account for rebuild when the edit lands inside an
// already-realized period.
func (d *Dispatcher) handleTransactionUpdated(book *ledger.Book, e *Event) (*Result, error) {
	if e.Agent.ID == AgentID || stockbot.IsStockBook(book) {
		return falseResult(), nil
	}

	payload, err := e.Transaction()
	if err != nil {
		return nil, err
	}
	if !payload.Posted {
		return falseResult(), nil
	}

	stockBook := stockbot.GetStockBook(book)
	if stockBook == nil {
		return falseResult(), nil
	}
	mirrors, err := stockBook.Transactions("remoteId:" + payload.ID)
	if err != nil {
		return nil, err
	}
	if len(mirrors) == 0 {
		return falseResult(), nil
	}

	quantity, ok := orderQuantity(book, payload)
	if !ok || quantity.IsZero() {
		return falseResult(), nil
	}

	var records []string
	for _, mirror := range mirrors {
		if mirror.Checked() {
			// Realized lots are rebuilt, not edited in place.
			stockbot.FlagStockAccountForRebuildIfNeeded(mirror)
			continue
		}
		amount, err := book.ParseValue(payload.Amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: bad amount %q", payload.ID, payload.Amount)
		}
		price := amount.Div(quantity)
		mirror.
			SetAmount(quantity).
			SetProperty(string(stockbot.PriceProp), price.String()).
			SetProperty(string(stockbot.OriginalQuantityProp), quantity.String()).
			Update()
		stockbot.FlagStockAccountForRebuildIfNeeded(mirror)
		records = append(records, record(stockBook, mirror))
	}
	return &Result{Result: records}, nil
}

// handleTransactionDeleted trashes derived postings. In a stock book the
// deleted lot's mirrors in the financial and base books are cascaded; in a
// financial book the order children and the stock mirror go too.
func (d *Dispatcher) handleTransactionDeleted(book *ledger.Book, e *Event) (*Result, error) {
	payload, err := e.Transaction()
	if err != nil {
		return nil, err
	}
	if !payload.Posted {
		return falseResult(), nil
	}

	if stockbot.IsStockBook(book) {
		return d.deleteInstrumentLot(book, payload)
	}
	return d.deleteFinancialOrder(book, payload)
}

// handleTransactionRestored reposts the order splits and untrashes the stock
// mirror of a restored financial posting.
func (d *Dispatcher) handleTransactionRestored(book *ledger.Book, e *Event) (*Result, error) {
	result, err := d.interceptOrder(book, e)
	if err != nil {
		return nil, err
	}

	payload, err := e.Transaction()
	if err != nil {
		return nil, err
	}
	stockBook := stockbot.GetStockBook(book)
	if stockBook == nil {
		return result, nil
	}
	trashed, err := stockBook.Transactions("remoteId:" + payload.ID + " is:trashed")
	if err != nil {
		return nil, err
	}
	for _, tx := range trashed {
		tx.Untrash()
		log.Printf("restored stock transaction: %s", tx.ID())
	}
	return result, nil
}

// handleAccountCreatedOrUpdated mirrors an instrument account of the
// financial book into the stock book.
func (d *Dispatcher) handleAccountCreatedOrUpdated(book *ledger.Book, e *Event) (*Result, error) {
	if stockbot.IsStockBook(book) {
		return falseResult(), nil
	}

	payload, err := e.Account()
	if err != nil {
		return nil, err
	}
	if payload.Property(string(stockbot.StockExcCodeProp)) == "" {
		return falseResult(), nil
	}

	stockBook := stockbot.GetStockBook(book)
	if stockBook == nil {
		return falseResult(), nil
	}

	mirror := stockBook.Account(payload.Name)
	if mirror == nil {
		mirror = stockBook.NewAccount(payload.Name, ledger.AccountType(payload.Type))
		for key, value := range payload.Properties {
			mirror.SetProperty(key, value)
		}
		mirror.Create()
		return &Result{Result: fmt.Sprintf("ACCOUNT %s CREATED", mirror.Name())}, nil
	}

	mirror.SetName(payload.Name).SetArchived(payload.Archived)
	for key, value := range payload.Properties {
		mirror.SetProperty(key, value)
	}
	mirror.Update()
	return &Result{Result: fmt.Sprintf("ACCOUNT %s UPDATED", mirror.Name())}, nil
}

// handleAccountDeleted archives the stock mirror of a deleted financial
// account; its transaction history stays.
func (d *Dispatcher) handleAccountDeleted(book *ledger.Book, e *Event) (*Result, error) {
	if stockbot.IsStockBook(book) {
		return falseResult(), nil
	}

	payload, err := e.Account()
	if err != nil {
		return nil, err
	}
	stockBook := stockbot.GetStockBook(book)
	if stockBook == nil {
		return falseResult(), nil
	}
	mirror := stockBook.Account(payload.Name)
	if mirror == nil {
		return falseResult(), nil
	}
	mirror.SetArchived(true).Update()
	return &Result{Result: fmt.Sprintf("ACCOUNT %s ARCHIVED", mirror.Name())}, nil
}

// handleGroupCreatedOrUpdated mirrors a group of the financial book into the
// stock book.
func (d *Dispatcher) handleGroupCreatedOrUpdated(book *ledger.Book, e *Event) (*Result, error) {
	if stockbot.IsStockBook(book) {
		return falseResult(), nil
	}

	payload, err := e.Group()
	if err != nil {
		return nil, err
	}
	stockBook := stockbot.GetStockBook(book)
	if stockBook == nil {
		return falseResult(), nil
	}

	mirror := stockBook.Group(payload.Name)
	if mirror == nil {
		mirror = stockBook.NewGroup(payload.Name).
			SetHidden(payload.Hidden).
			SetProperties(payload.Properties).
			Create()
		return &Result{Result: fmt.Sprintf("GROUP %s CREATED", mirror.Name())}, nil
	}
	mirror.
		SetName(payload.Name).
		SetHidden(payload.Hidden).
		SetProperties(payload.Properties).
		Update()
	return &Result{Result: fmt.Sprintf("GROUP %s UPDATED", mirror.Name())}, nil
}

// handleGroupDeleted removes the stock mirror of a deleted group.
func (d *Dispatcher) handleGroupDeleted(book *ledger.Book, e *Event) (*Result, error) {
	if stockbot.IsStockBook(book) {
		return falseResult(), nil
	}

	payload, err := e.Group()
	if err != nil {
		return nil, err
	}
	stockBook := stockbot.GetStockBook(book)
	if stockBook == nil {
		return falseResult(), nil
	}
	mirror := stockBook.Group(payload.Name)
	if mirror == nil {
		return &Result{Result: fmt.Sprintf("GROUP %s NOT FOUND", payload.Name)}, nil
	}
	mirror.Remove()
	return &Result{Result: fmt.Sprintf("GROUP %s DELETED", payload.Name)}, nil
}

// payloadStockExcCode returns the exchange code declared on either leg of the
// payload.
func payloadStockExcCode(payload *TransactionPayload) string {
	if code := payload.CreditAccount.Property(string(stockbot.StockExcCodeProp)); code != "" {
		return code
	}
	return payload.DebitAccount.Property(string(stockbot.StockExcCodeProp))
}

// payloadInstrumentLeg returns the leg carrying the exchange code and whether
// the trade is a purchase (instrument debited).
func payloadInstrumentLeg(payload *TransactionPayload) (*AccountPayload, bool) {
	if payload.DebitAccount.Property(string(stockbot.StockExcCodeProp)) != "" {
		return payload.DebitAccount, true
	}
	if payload.CreditAccount.Property(string(stockbot.StockExcCodeProp)) != "" {
		return payload.CreditAccount, false
	}
	return nil, false
}

// lotDateOf prefers the trade date over the settlement date of the payload.
func lotDateOf(payload *TransactionPayload) (date.Date, error) {
	if v := payload.Property(string(stockbot.TradeDateProp)); v != "" {
		return date.Parse(v)
	}
	return date.Parse(payload.Date)
}
