package event

import (
	"fmt"
	"sync"

	"github.com/etnz/stockbot"
	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// interceptOrder splits a raw brokerage posting into fees, interest and
// instrument transactions. A posting qualifies as an order when it carries
// instrument and trade_date properties and its exchange account declares a
// fees account.
func (d *Dispatcher) interceptOrder(book *ledger.Book, e *Event) (*Result, error) {
	if e.Agent.ID == exchangeBotAgentID {
		return falseResult(), nil
	}
	if stockbot.IsStockBook(book) {
		return falseResult(), nil
	}

	payload, err := e.Transaction()
	if err != nil {
		return nil, err
	}
	if !payload.Posted {
		return falseResult(), nil
	}

	quantity, ok := orderQuantity(book, payload)
	if !ok {
		return falseResult(), nil
	}
	if quantity.IsZero() {
		return &Result{Error: "Quantity must not be zero"}, nil
	}

	if exchangeAccount := orderExchangeAccount(payload, payload.DebitAccount); exchangeAccount != nil {
		return d.processOrder(book, payload, exchangeAccount, true)
	}
	if exchangeAccount := orderExchangeAccount(payload, payload.CreditAccount); exchangeAccount != nil {
		return d.processOrder(book, payload, exchangeAccount, false)
	}

	return falseResult(), nil
}

// orderExchangeAccount validates the order shape against one leg: the leg is
// the exchange account when the payload names an instrument and trade date
// and the leg declares a fees account.
func orderExchangeAccount(payload *TransactionPayload, leg *AccountPayload) *AccountPayload {
	if payload.Property(string(stockbot.InstrumentProp)) == "" {
		return nil
	}
	if payload.Property(string(stockbot.TradeDateProp)) == "" {
		return nil
	}
	if leg.Property(string(stockbot.StockFeesAccountProp)) == "" {
		return nil
	}
	return leg
}

// processOrder posts the fee, interest and instrument legs of the order
// concurrently.
func (d *Dispatcher) processOrder(book *ledger.Book, payload *TransactionPayload, exchangeAccount *AccountPayload, purchase bool) (*Result, error) {
	stockBook := stockbot.GetStockBook(book)
	model := stockbot.ModelBoth
	if stockBook != nil {
		model = stockbot.GetCalculationModel(stockBook)
	}

	post := [3]func() (string, error){
		func() (string, error) { return d.postFees(book, exchangeAccount, payload) },
		func() (string, error) { return d.postInterest(book, exchangeAccount, payload, purchase) },
		func() (string, error) { return d.postInstrumentTrade(book, exchangeAccount, payload, purchase, model) },
	}

	var wg sync.WaitGroup
	var records [3]string
	var errs [3]error
	for i, fn := range post {
		i, fn := i, fn
		wg.Add(1)
		go func() {
			defer wg.Done()
			records[i], errs[i] = fn()
		}()
	}
	wg.Wait()

	var responses []string
	for i, record := range records {
		if errs[i] != nil {
			return nil, errs[i]
		}
		if record != "" {
			responses = append(responses, record)
		}
	}
	return &Result{Result: responses}, nil
}

// postFees moves the brokerage fees out of the exchange account.
func (d *Dispatcher) postFees(book *ledger.Book, exchangeAccount *AccountPayload, payload *TransactionPayload) (string, error) {
	fees := orderAmountProp(book, payload, stockbot.FeesProp)
	if fees.IsZero() {
		return "", nil
	}
	tradeDate, err := date.Parse(payload.Property(string(stockbot.TradeDateProp)))
	if err != nil {
		return "", err
	}
	feesAccountName := exchangeAccount.Property(string(stockbot.StockFeesAccountProp))
	feesAccount := book.Account(feesAccountName)
	if feesAccount == nil {
		feesAccount = book.NewAccount(feesAccountName, ledger.Outgoing).Create()
	}
	exchange := book.Account(exchangeAccount.Name)
	if exchange == nil {
		return "", fmt.Errorf("exchange account %q not found", exchangeAccount.Name)
	}
	tx := book.NewTransaction().
		SetAmount(fees).
		From(exchange).
		To(feesAccount).
		SetDescription(payload.Description).
		SetDate(tradeDate).
		AddRemoteID(string(stockbot.FeesProp) + "_" + payload.ID).
		Post()
	return record(book, tx), nil
}

// postInterest moves accrued interest between the exchange account and the
// "<instrument> Interest" account, direction depending on the order side.
func (d *Dispatcher) postInterest(book *ledger.Book, exchangeAccount *AccountPayload, payload *TransactionPayload, purchase bool) (string, error) {
	interest := orderAmountProp(book, payload, stockbot.InterestProp)
	if interest.IsZero() {
		return "", nil
	}
	tradeDate, err := date.Parse(payload.Property(string(stockbot.TradeDateProp)))
	if err != nil {
		return "", err
	}
	instrument := payload.Property(string(stockbot.InstrumentProp))
	interestAccountName := instrument + " Interest"
	interestAccount := book.Account(interestAccountName)
	if interestAccount == nil {
		interestAccount = book.NewAccount(interestAccountName, ledger.Asset).Create()
	}
	exchange := book.Account(exchangeAccount.Name)
	if exchange == nil {
		return "", fmt.Errorf("exchange account %q not found", exchangeAccount.Name)
	}
	from, to := exchange, interestAccount
	if !purchase {
		from, to = interestAccount, exchange
	}
	tx := book.NewTransaction().
		SetAmount(interest).
		From(from).
		To(to).
		SetDescription(payload.Description).
		SetDate(tradeDate).
		AddRemoteID(string(stockbot.InterestProp) + "_" + payload.ID).
		Post()
	return record(book, tx), nil
}

// postInstrumentTrade posts the net trade against the instrument account,
// stamping the per-share price derived from the payload amount less interest
// and fees.
func (d *Dispatcher) postInstrumentTrade(book *ledger.Book, exchangeAccount *AccountPayload, payload *TransactionPayload, purchase bool, model stockbot.CalculationModel) (string, error) {
	quantity, _ := orderQuantity(book, payload)
	fees := orderAmountProp(book, payload, stockbot.FeesProp)
	interest := orderAmountProp(book, payload, stockbot.InterestProp)
	tradeDate, err := date.Parse(payload.Property(string(stockbot.TradeDateProp)))
	if err != nil {
		return "", err
	}

	instrument := payload.Property(string(stockbot.InstrumentProp))
	instrumentAccount := book.Account(instrument)
	if instrumentAccount == nil {
		instrumentAccount = book.NewAccount(instrument, ledger.Asset).Create()
	}
	exchange := book.Account(exchangeAccount.Name)
	if exchange == nil {
		return "", fmt.Errorf("exchange account %q not found", exchangeAccount.Name)
	}

	total, err := book.ParseValue(payload.Amount)
	if err != nil {
		return "", fmt.Errorf("order %s: bad amount %q", payload.ID, payload.Amount)
	}
	// Fees are a cost on top of a purchase, a deduction from a sale.
	amount := total.Minus(interest).Minus(fees)
	if !purchase {
		amount = total.Minus(interest).Plus(fees)
	}
	price := amount.Div(quantity)

	from, to := exchange, instrumentAccount
	if !purchase {
		from, to = instrumentAccount, exchange
	}

	tx := book.NewTransaction().
		SetAmount(amount).
		From(from).
		To(to).
		SetDescription(payload.Description).
		SetDate(tradeDate).
		SetProperty(string(stockbot.QuantityProp), quantity.String()).
		SetProperty(string(stockbot.PriceProp), price.String()).
		SetProperty(string(stockbot.OrderProp), orderIndex(book, payload)).
		SetProperty(string(stockbot.SettlementDateProp), payload.Date).
		SetProperty(string(stockbot.FeesProp), fees.String()).
		SetProperty(string(stockbot.InterestProp), interest.String()).
		AddRemoteID(string(stockbot.InstrumentProp) + "_" + payload.ID)

	if model == stockbot.ModelBoth {
		if priceHist := histPrice(book, payload, interest, fees, quantity, purchase); priceHist != nil && !priceHist.IsZero() {
			tx.SetProperty(string(stockbot.PriceHistProp), priceHist.String())
		}
	}

	tx.Post()
	return record(book, tx), nil
}

// histPrice derives the historical per-share price from the cost_hist
// property, nil when absent.
func histPrice(book *ledger.Book, payload *TransactionPayload, interest, fees, quantity ledger.Amount, purchase bool) *ledger.Amount {
	costHistProp := payload.Property(string(stockbot.CostHistProp))
	if costHistProp == "" {
		return nil
	}
	costHist, err := book.ParseValue(costHistProp)
	if err != nil {
		return nil
	}
	amountHist := costHist.Abs().Minus(interest).Minus(fees)
	if !purchase {
		amountHist = costHist.Abs().Minus(interest).Plus(fees)
	}
	price := amountHist.Div(quantity)
	return &price
}

// orderQuantity parses the quantity property, absolute value.
func orderQuantity(book *ledger.Book, payload *TransactionPayload) (ledger.Amount, bool) {
	v := payload.Property(string(stockbot.QuantityProp))
	if v == "" {
		return ledger.Amount{}, false
	}
	quantity, err := book.ParseValue(v)
	if err != nil {
		return ledger.Amount{}, false
	}
	return quantity.Abs(), true
}

// orderIndex normalizes the order property to an integer string, empty when
// absent or malformed.
func orderIndex(book *ledger.Book, payload *TransactionPayload) string {
	v := payload.Property(string(stockbot.OrderProp))
	if v == "" {
		return ""
	}
	order, err := book.ParseValue(v)
	if err != nil {
		return ""
	}
	return order.Round(0).String()
}

func orderAmountProp(book *ledger.Book, payload *TransactionPayload, prop stockbot.Prop) ledger.Amount {
	v := payload.Property(string(prop))
	if v == "" {
		return ledger.Amount{}
	}
	amount, err := book.ParseValue(v)
	if err != nil {
		return ledger.Amount{}
	}
	return amount
}

// record renders a one-line human-readable trace of a posting.
func record(book *ledger.Book, tx *ledger.Transaction) string {
	return fmt.Sprintf("%s %s %s %s %s", tx.Date(), book.FormatValue(tx.Amount()), tx.CreditAccount().Name(), tx.DebitAccount().Name(), tx.Description())
}
