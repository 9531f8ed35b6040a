package stockbot

import (
	"encoding/json"
	"fmt"
	"log"
	"slices"

	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// purchaseLogEntry is one matched purchase leg recorded on a sale.
type purchaseLogEntry struct {
	Quantity string `json:"qt"`
	Price    string `json:"pr"`
	Date     string `json:"dt"`
	Rate     string `json:"rt,omitempty"`
}

func newPurchaseLogEntry(stockBook *ledger.Book, quantity, price ledger.Amount, d string, excRate *ledger.Amount) purchaseLogEntry {
	entry := purchaseLogEntry{
		Quantity: quantity.Fixed(stockBook.FractionDigits()),
		Price:    price.String(),
		Date:     d,
	}
	if excRate != nil {
		entry.Rate = excRate.String()
	}
	return entry
}

// CalculateRealizedResultsForAccount matches the open sale lots of the
// account against its open purchase lots in FIFO order and records realized
// gain/loss and FX gain/loss postings, plus mark-to-market postings when
// autoMtM is set. A zero beforeDate defaults to today. A pending rebuild
// triggers a reset first.
func (b *Bot) CalculateRealizedResultsForAccount(stockBookID, stockAccountID string, autoMtM bool, beforeDate date.Date) (*Summary, error) {
	stockBook, stockAccount, err := b.stockAccount(stockBookID, stockAccountID)
	if err != nil {
		return nil, err
	}
	if beforeDate.IsZero() {
		beforeDate = date.Today()
	}

	summary := NewSummary(stockAccountID)

	if stockAccount.NeedsRebuild() {
		if _, err := resetRealizedResultsForAccount(stockBook, stockAccount, false, nil); err != nil {
			return nil, err
		}
		// Re-read the account state after the reset.
		stockBook, stockAccount, err = b.stockAccount(stockBookID, stockAccountID)
		if err != nil {
			return nil, err
		}
	}

	stockExcCode := stockAccount.ExchangeCode()
	financialBook := GetFinancialBook(stockBook, stockExcCode)
	if financialBook == nil {
		return summary, nil // No priced book for this exchange code: skip.
	}

	txs, err := stockBook.Transactions(accountQuery(stockAccount, false, beforeDate))
	if err != nil {
		return nil, err
	}

	var sales, purchases []*ledger.Transaction
	for _, tx := range txs {
		if tx.Checked() {
			continue
		}
		if IsSale(tx) {
			sales = append(sales, tx)
		}
		if IsPurchase(tx) {
			purchases = append(purchases, tx)
		}
	}
	slices.SortStableFunc(sales, CompareFIFO)
	slices.SortStableFunc(purchases, CompareFIFO)

	c := &realizedContext{
		stockBook:     stockBook,
		financialBook: financialBook,
		baseBook:      GetBaseBook(financialBook),
		stockAccount:  stockAccount,
		stockExcCode:  stockExcCode,
		autoMtM:       autoMtM,
		summary:       summary,
	}
	for _, sale := range sales {
		if err := c.processSale(sale, purchases); err != nil {
			return nil, err
		}
	}

	checkLastTxDate(stockAccount, sales, purchases)

	return summary, nil
}

// checkLastTxDate advances the account realized date to the latest processed
// transaction date, only if it advances the stored value.
func checkLastTxDate(stockAccount *StockAccount, sales, purchases []*ledger.Transaction) {
	var last *ledger.Transaction
	if len(sales) > 0 {
		last = sales[len(sales)-1]
	}
	if len(purchases) > 0 {
		lastPurchase := purchases[len(purchases)-1]
		if last == nil || lastPurchase.DateValue() > last.DateValue() {
			last = lastPurchase
		}
	}
	if last == nil {
		return
	}
	if stored := stockAccount.RealizedDateValue(); last.DateValue() > stored {
		stockAccount.SetRealizedDate(last.Date()).Update()
	}
}

func isShortSale(purchase, sale *ledger.Transaction) bool {
	return CompareFIFO(sale, purchase) < 0
}

// realizedContext carries the books and account of one calculation run.
type realizedContext struct {
	stockBook     *ledger.Book
	financialBook *ledger.Book
	baseBook      *ledger.Book
	stockAccount  *StockAccount
	stockExcCode  string
	autoMtM       bool
	summary       *Summary
}

// processSale consumes open purchase lots in FIFO order until the sale
// quantity is exhausted, splitting the last purchase lot (and the sale
// itself) when quantities do not align, then records the aggregated
// realized and FX results for the sale.
func (c *realizedContext) processSale(sale *ledger.Transaction, purchases []*ledger.Transaction) error {
	salePrice := amountProp(sale, SalePriceProp, PriceProp)
	if salePrice == nil {
		return fmt.Errorf("sale transaction %s: missing sale price", sale.ID())
	}
	fwdSalePrice := amountProp(sale, FwdSalePriceProp)

	soldQuantity := sale.Amount()
	saleExcRate := excRate(c.baseBook, c.financialBook, sale, SaleExcRateProp)
	fwdSaleRate := fwdExcRate(sale, FwdSaleExcRateProp, saleExcRate)

	var purchaseTotal, saleTotal, gainTotal ledger.Amount
	var fwdPurchaseTotal, fwdSaleTotal ledger.Amount
	var gainBaseNoFxTotal, gainBaseWithFxTotal *ledger.Amount

	unrealizedAccount := supportAccount(c.financialBook, c.stockAccount.Name(), UnrealizedSuffix, ledger.Liability, c.summary, c.stockExcCode)
	var unrealizedBaseAccount *ledger.Account
	if c.baseBook != nil {
		unrealizedBaseAccount = supportAccount(c.baseBook, c.stockAccount.Name(), UnrealizedSuffix, ledger.Liability, c.summary, c.stockExcCode)
	}

	var purchaseLog, fwdPurchaseLog []purchaseLogEntry

	for _, purchase := range purchases {
		if purchase.Checked() {
			continue
		}

		shortSale := isShortSale(purchase, sale)

		purchaseExcRate := excRate(c.baseBook, c.financialBook, purchase, PurchaseExcRateProp)
		fwdPurchaseRate := fwdExcRate(purchase, FwdPurchaseExcRateProp, purchaseExcRate)
		fwdPurchasePrice := amountProp(purchase, FwdPurchasePriceProp)
		purchasePrice := amountProp(purchase, PurchasePriceProp, PriceProp)
		if purchasePrice == nil {
			return fmt.Errorf("purchase transaction %s: missing purchase price", purchase.ID())
		}
		purchaseQuantity := purchase.Amount()

		if soldQuantity.Gte(purchaseQuantity) {
			// Full consumption of the purchase lot.
			matched := purchaseQuantity
			saleAmount := salePrice.Times(matched)
			purchaseAmount := purchasePrice.Times(matched)
			fwdSaleAmount := saleAmount
			if fwdSalePrice != nil {
				fwdSaleAmount = fwdSalePrice.Times(matched)
			}
			fwdPurchaseAmount := purchaseAmount
			if fwdPurchasePrice != nil {
				fwdPurchaseAmount = fwdPurchasePrice.Times(matched)
			}
			gain := saleAmount.Minus(purchaseAmount)
			legNoFX := gainBaseNoFX(gain, purchaseExcRate, saleExcRate, shortSale)
			legWithFX := gainBaseWithFX(purchaseAmount, purchaseExcRate, saleAmount, saleExcRate)

			if !shortSale {
				purchaseTotal = purchaseTotal.Plus(purchaseAmount)
				saleTotal = saleTotal.Plus(saleAmount)
				fwdPurchaseTotal = fwdPurchaseTotal.Plus(fwdPurchaseAmount)
				fwdSaleTotal = fwdSaleTotal.Plus(fwdSaleAmount)
				gainTotal = gainTotal.Plus(gain)
				gainBaseNoFxTotal = plusOpt(gainBaseNoFxTotal, legNoFX)
				gainBaseWithFxTotal = plusOpt(gainBaseWithFxTotal, legWithFX)
				purchaseLog = append(purchaseLog, newPurchaseLogEntry(c.stockBook, matched, *purchasePrice, gainDateOf(purchase).String(), purchaseExcRate))
				if fwdPurchasePrice != nil {
					fwdPurchaseLog = append(fwdPurchaseLog, newPurchaseLogEntry(c.stockBook, matched, *fwdPurchasePrice, purchase.Date().String(), fwdPurchaseRate))
				} else {
					fwdPurchaseLog = append(fwdPurchaseLog, newPurchaseLogEntry(c.stockBook, matched, *purchasePrice, purchase.Date().String(), purchaseExcRate))
				}
			}

			purchase.
				SetProperty(string(PurchasePriceProp), purchasePrice.String()).
				SetProperty(string(PurchaseAmountProp), purchaseAmount.String()).
				SetProperty(string(PurchaseExcRateProp), amountString(purchaseExcRate)).
				SetProperty(string(FwdPurchaseAmountProp), fwdPurchaseAmount.String())

			if shortSale {
				purchase.
					SetProperty(string(SalePriceProp), salePrice.String()).
					SetProperty(string(SaleExcRateProp), amountString(saleExcRate)).
					SetProperty(string(SaleAmountProp), saleAmount.String()).
					SetProperty(string(SaleDateProp), sale.Date().String()).
					SetProperty(string(GainAmountProp), gain.String()).
					SetProperty(string(ShortSaleProp), "true").
					SetProperty(string(FwdSaleAmountProp), fwdSaleAmount.String())
			}
			purchase.Update()

			if shortSale {
				// Short-sale results post at match time, on the purchase leg.
				c.recordRealizedResult(unrealizedAccount, purchase, gain, legNoFX)
				c.recordFxGain(unrealizedBaseAccount, purchase, legWithFX, legNoFX)
				if c.autoMtM {
					c.markToMarket(purchase, unrealizedAccount, *purchasePrice, gain)
				}
			}

			purchase.Check()

			soldQuantity = soldQuantity.Minus(matched)
		} else {
			// Partial consumption: split the purchase lot.
			remaining := purchaseQuantity.Minus(soldQuantity)
			matched := purchaseQuantity.Minus(remaining)

			saleAmount := salePrice.Times(matched)
			purchaseAmount := purchasePrice.Times(matched)
			fwdSaleAmount := saleAmount
			if fwdSalePrice != nil {
				fwdSaleAmount = fwdSalePrice.Times(matched)
			}
			fwdPurchaseAmount := purchaseAmount
			if fwdPurchasePrice != nil {
				fwdPurchaseAmount = fwdPurchasePrice.Times(matched)
			}
			gain := saleAmount.Minus(purchaseAmount)
			legNoFX := gainBaseNoFX(gain, purchaseExcRate, saleExcRate, shortSale)
			legWithFX := gainBaseWithFX(purchaseAmount, purchaseExcRate, saleAmount, saleExcRate)

			purchase.SetAmount(remaining).Update()

			split := c.stockBook.NewTransaction().
				SetDate(purchase.Date()).
				SetAmount(matched).
				From(purchase.CreditAccount()).
				To(purchase.DebitAccount()).
				SetDescription(purchase.Description()).
				SetProperty(string(OrderProp), purchase.Property(string(OrderProp))).
				SetProperty(string(DateProp), purchase.Property(string(DateProp))).
				SetProperty(string(ParentIDProp), purchase.ID()).
				SetProperty(string(PurchasePriceProp), purchasePrice.String()).
				SetProperty(string(PurchaseAmountProp), purchaseAmount.String()).
				SetProperty(string(PurchaseExcRateProp), amountString(purchaseExcRate)).
				SetProperty(string(FwdPurchasePriceProp), amountString(fwdPurchasePrice)).
				SetProperty(string(FwdPurchaseAmountProp), fwdPurchaseAmount.String()).
				SetProperty(string(FwdPurchaseExcRateProp), amountString(fwdPurchaseRate))

			if shortSale {
				split.
					SetProperty(string(SaleExcRateProp), amountString(saleExcRate)).
					SetProperty(string(SalePriceProp), salePrice.String()).
					SetProperty(string(SaleAmountProp), saleAmount.String()).
					SetProperty(string(FwdSaleExcRateProp), amountString(fwdSaleRate)).
					SetProperty(string(FwdSalePriceProp), amountString(fwdSalePrice)).
					SetProperty(string(FwdSaleAmountProp), fwdSaleAmount.String()).
					SetProperty(string(SaleDateProp), sale.Date().String()).
					SetProperty(string(GainAmountProp), gain.String()).
					SetProperty(string(ShortSaleProp), "true")
			}

			split.Post().Check()

			if shortSale {
				c.recordRealizedResult(unrealizedAccount, split, gain, legNoFX)
				c.recordFxGain(unrealizedBaseAccount, split, legWithFX, legNoFX)
				if c.autoMtM {
					c.markToMarket(split, unrealizedAccount, *purchasePrice, gain)
				}
			}

			soldQuantity = soldQuantity.Minus(matched)

			if !shortSale {
				purchaseTotal = purchaseTotal.Plus(purchaseAmount)
				saleTotal = saleTotal.Plus(saleAmount)
				fwdSaleTotal = fwdSaleTotal.Plus(fwdSaleAmount)
				fwdPurchaseTotal = fwdPurchaseTotal.Plus(fwdPurchaseAmount)
				gainTotal = gainTotal.Plus(gain)
				gainBaseNoFxTotal = plusOpt(gainBaseNoFxTotal, legNoFX)
				gainBaseWithFxTotal = plusOpt(gainBaseWithFxTotal, legWithFX)
				purchaseLog = append(purchaseLog, newPurchaseLogEntry(c.stockBook, matched, *purchasePrice, gainDateOf(purchase).String(), purchaseExcRate))
				if fwdPurchasePrice != nil {
					fwdPurchaseLog = append(fwdPurchaseLog, newPurchaseLogEntry(c.stockBook, matched, *fwdPurchasePrice, purchase.Date().String(), fwdPurchaseRate))
				} else {
					fwdPurchaseLog = append(fwdPurchaseLog, newPurchaseLogEntry(c.stockBook, matched, *purchasePrice, purchase.Date().String(), purchaseExcRate))
				}
			}
		}

		if soldQuantity.Lte(ledger.Amount{}) {
			break
		}
	}

	digits := c.stockBook.FractionDigits()
	rounded := soldQuantity.Round(digits)
	if rounded.IsZero() {
		// Fully matched: stamp the aggregated results on the sale.
		if len(purchaseLog) > 0 {
			sale.
				SetProperty(string(PurchaseAmountProp), purchaseTotal.String()).
				SetProperty(string(SaleAmountProp), saleTotal.String()).
				SetProperty(string(GainAmountProp), gainTotal.String()).
				SetProperty(string(PurchaseLogProp), marshalPurchaseLog(purchaseLog)).
				SetProperty(string(SaleExcRateProp), amountString(saleExcRate))
			if len(fwdPurchaseLog) > 0 {
				if !fwdPurchaseTotal.IsZero() {
					sale.SetProperty(string(FwdPurchaseAmountProp), fwdPurchaseTotal.String())
				}
				if !fwdSaleTotal.IsZero() {
					sale.SetProperty(string(FwdSaleAmountProp), fwdSaleTotal.String())
				}
				sale.
					SetProperty(string(FwdPurchaseLogProp), marshalPurchaseLog(fwdPurchaseLog)).
					SetProperty(string(FwdSaleExcRateProp), amountString(fwdSaleRate))
			}
			sale.Update()
		}
		sale.Check()
	} else if rounded.Gt(ledger.Amount{}) {
		// Purchases exhausted: split the sale, keeping the matched portion
		// on a checked child.
		remainingSale := sale.Amount().Minus(soldQuantity)

		if !remainingSale.IsZero() {
			sale.
				SetProperty(string(SaleExcRateProp), amountString(saleExcRate)).
				SetProperty(string(FwdSaleExcRateProp), amountString(fwdSaleRate)).
				SetAmount(soldQuantity).
				Update()

			split := c.stockBook.NewTransaction().
				SetDate(sale.Date()).
				SetAmount(remainingSale).
				From(sale.CreditAccount()).
				To(sale.DebitAccount()).
				SetDescription(sale.Description()).
				SetProperty(string(OrderProp), sale.Property(string(OrderProp))).
				SetProperty(string(DateProp), sale.Property(string(DateProp))).
				SetProperty(string(ParentIDProp), sale.ID()).
				SetProperty(string(SalePriceProp), salePrice.String()).
				SetProperty(string(SaleExcRateProp), amountString(saleExcRate)).
				SetProperty(string(FwdSalePriceProp), amountString(fwdSalePrice)).
				SetProperty(string(FwdSaleExcRateProp), amountString(fwdSaleRate))

			if len(purchaseLog) > 0 {
				split.
					SetProperty(string(PurchaseAmountProp), purchaseTotal.String()).
					SetProperty(string(SaleAmountProp), saleTotal.String()).
					SetProperty(string(GainAmountProp), gainTotal.String()).
					SetProperty(string(PurchaseLogProp), marshalPurchaseLog(purchaseLog))
				if len(fwdPurchaseLog) > 0 {
					if !fwdPurchaseTotal.IsZero() {
						split.SetProperty(string(FwdPurchaseAmountProp), fwdPurchaseTotal.String())
					}
					if !fwdSaleTotal.IsZero() {
						split.SetProperty(string(FwdSaleAmountProp), fwdSaleTotal.String())
					}
					split.SetProperty(string(FwdPurchaseLogProp), marshalPurchaseLog(fwdPurchaseLog))
				}
			}

			split.Post().Check()
		}
	}

	c.recordRealizedResult(unrealizedAccount, sale, gainTotal, gainBaseNoFxTotal)
	c.recordFxGain(unrealizedBaseAccount, sale, gainBaseWithFxTotal, gainBaseNoFxTotal)
	if c.autoMtM {
		c.markToMarket(sale, unrealizedAccount, *salePrice, gainTotal)
	}
	return nil
}

// recordRealizedResult posts the realized gain or loss of a lot between the
// "<name> Realized" and "<name> Unrealized" accounts of the financial book.
// A zero rounded gain posts nothing.
func (c *realizedContext) recordRealizedResult(unrealizedAccount *ledger.Account, tx *ledger.Transaction, gain ledger.Amount, gainBaseNoFX *ledger.Amount) {
	gainDate := gainDateOf(tx)
	isBaseBook := c.baseBook == nil || c.baseBook.ID() == c.financialBook.ID()

	digits := c.financialBook.FractionDigits()
	rounded := gain.Round(digits)

	switch {
	case rounded.Gt(ledger.Amount{}):
		realizedAccount := c.realizedAccount(ledger.Incoming)
		posting := c.financialBook.NewTransaction().
			AddRemoteID(tx.ID()).
			SetDate(gainDate).
			SetAmount(gain).
			SetDescription("#stock_gain").
			From(realizedAccount).
			To(unrealizedAccount)
		if !isBaseBook && gainBaseNoFX != nil {
			posting.
				SetProperty(string(ExcAmountProp), gainBaseNoFX.Abs().String()).
				SetProperty(string(ExcCodeProp), GetExcCode(c.baseBook))
		}
		posting.Post().Check()

	case rounded.Lt(ledger.Amount{}):
		realizedAccount := c.realizedAccount(ledger.Outgoing)
		posting := c.financialBook.NewTransaction().
			AddRemoteID(tx.ID()).
			SetDate(gainDate).
			SetAmount(gain.Abs()).
			SetDescription("#stock_loss").
			From(unrealizedAccount).
			To(realizedAccount)
		if !isBaseBook && gainBaseNoFX != nil {
			posting.
				SetProperty(string(ExcAmountProp), gainBaseNoFX.Abs().String()).
				SetProperty(string(ExcCodeProp), GetExcCode(c.baseBook))
		}
		posting.Post().Check()
	}
}

// realizedAccount returns the "<name> Realized" account, accepting the
// legacy "<name> Realized Gain"/"Realized Loss" names, creating the account
// when absent.
func (c *realizedContext) realizedAccount(typ ledger.AccountType) *ledger.Account {
	name := c.stockAccount.Name() + " " + RealizedSuffix
	if account := c.financialBook.Account(name); account != nil {
		return account
	}
	legacy := "Realized Gain"
	if typ == ledger.Outgoing {
		legacy = "Realized Loss"
	}
	if account := c.financialBook.Account(c.stockAccount.Name() + " " + legacy); account != nil {
		return account
	}
	return supportAccount(c.financialBook, c.stockAccount.Name(), RealizedSuffix, typ, c.summary, c.stockExcCode)
}

// recordFxGain posts the difference between the gain at point-in-time rates
// and the gain at the fixed single-leg rate, between the base-book exchange
// account and the base-book unrealized account. Missing FX inputs log and
// skip.
func (c *realizedContext) recordFxGain(unrealizedBaseAccount *ledger.Account, tx *ledger.Transaction, gainBaseWithFx, gainBaseNoFx *ledger.Amount) {
	if c.baseBook == nil || unrealizedBaseAccount == nil {
		return
	}
	if gainBaseWithFx == nil {
		log.Println("missing gain with FX")
		return
	}
	if gainBaseNoFx == nil {
		log.Println("missing gain no FX")
		return
	}

	gainDate := gainDateOf(tx)
	name := excAccountName(unrealizedBaseAccount, c.stockExcCode)
	excAccount := c.baseBook.Account(name)
	if excAccount == nil {
		excAccount = c.baseBook.NewAccount(name, excAccountType(c.baseBook))
		for _, group := range excAccountGroups(c.baseBook) {
			excAccount.AddGroup(group)
		}
		excAccount.Create()
		c.summary.TrackAccountCreated(c.stockExcCode, name)
	}

	fxGain := gainBaseWithFx.Minus(*gainBaseNoFx)
	rounded := fxGain.Round(c.baseBook.FractionDigits())

	switch {
	case rounded.Gt(ledger.Amount{}):
		c.baseBook.NewTransaction().
			AddRemoteID("fx_" + tx.ID()).
			SetDate(gainDate).
			SetAmount(fxGain).
			SetDescription("#exchange_gain").
			SetProperty(string(ExcAmountProp), "0").
			From(excAccount).
			To(unrealizedBaseAccount).
			Post().Check()
	case rounded.Lt(ledger.Amount{}):
		c.baseBook.NewTransaction().
			AddRemoteID("fx_" + tx.ID()).
			SetDate(gainDate).
			SetAmount(fxGain.Abs()).
			SetDescription("#exchange_loss").
			SetProperty(string(ExcAmountProp), "0").
			From(unrealizedBaseAccount).
			To(excAccount).
			Post().Check()
	}
}

// markToMarket adjusts the financial instrument account to fair value at the
// lot trade date. Idempotent per triggering transaction id.
func (c *realizedContext) markToMarket(tx *ledger.Transaction, unrealizedAccount *ledger.Account, price, gain ledger.Amount) {
	if gain.Round(c.financialBook.FractionDigits()).IsZero() {
		return
	}

	d := gainDateOf(tx)

	instrument := c.financialBook.Account(c.stockAccount.Name())
	if instrument == nil {
		log.Printf("no financial instrument account for %s, skipping mark-to-market", c.stockAccount.Name())
		return
	}

	totalQuantity, err := accountBalance(c.stockBook, c.stockAccount.Name(), d)
	if err != nil {
		log.Println(err)
		return
	}
	balance, err := accountBalance(c.financialBook, instrument.Name(), d)
	if err != nil {
		log.Println(err)
		return
	}
	newBalance := totalQuantity.Times(price)
	amount := newBalance.Minus(balance)

	rounded := amount.Round(c.financialBook.FractionDigits())
	switch {
	case rounded.Gt(ledger.Amount{}):
		c.financialBook.NewTransaction().
			SetDate(d).
			SetAmount(amount).
			SetDescription("#mtm").
			SetProperty(string(PriceProp), price.Fixed(c.financialBook.FractionDigits())).
			SetProperty(string(OpenQuantityProp), totalQuantity.Fixed(c.stockBook.FractionDigits())).
			From(unrealizedAccount).
			To(instrument).
			AddRemoteID("mtm_" + tx.ID()).
			Post().Check()
	case rounded.Lt(ledger.Amount{}):
		c.financialBook.NewTransaction().
			SetDate(d).
			SetAmount(amount.Abs()).
			SetDescription("#mtm").
			SetProperty(string(PriceProp), price.Fixed(c.financialBook.FractionDigits())).
			SetProperty(string(OpenQuantityProp), totalQuantity.Fixed(c.stockBook.FractionDigits())).
			From(instrument).
			To(unrealizedAccount).
			AddRemoteID("mtm_" + tx.ID()).
			Post().Check()
	}
}

// accountBalance returns the cumulative balance of the named account as of
// the given date.
func accountBalance(book *ledger.Book, accountName string, d date.Date) (ledger.Amount, error) {
	report, err := book.BalancesReport("account:'" + accountName + "' on:" + d.String())
	if err != nil {
		return ledger.Amount{}, err
	}
	return report.Cumulative(accountName), nil
}

// gainDateOf returns the historical date of a forwarded lot, or the
// transaction date.
func gainDateOf(tx *ledger.Transaction) date.Date {
	if v := tx.Property(string(DateProp)); v != "" {
		if d, err := date.Parse(v); err == nil {
			return d
		}
	}
	return tx.Date()
}

// plusOpt accumulates optional amounts: a nil leg is skipped, a nil total
// starts at zero on the first present leg.
func plusOpt(total, leg *ledger.Amount) *ledger.Amount {
	if leg == nil {
		return total
	}
	if total == nil {
		sum := *leg
		return &sum
	}
	sum := total.Plus(*leg)
	return &sum
}

// amountString renders an optional amount, empty when nil so SetProperty
// skips it.
func amountString(a *ledger.Amount) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func marshalPurchaseLog(entries []purchaseLogEntry) string {
	data, err := json.Marshal(entries)
	if err != nil {
		return ""
	}
	return string(data)
}
