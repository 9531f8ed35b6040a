package stockbot

import (
	"log"

	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// ResetRealizedResults reverts every computed result of the account: derived
// postings in the financial and base books are trashed, split lots are
// restored to their original quantity, and the stamped matching properties
// are removed. With full set, forwarded lots are also restored to their
// historical date and order, reopening closed periods.
func (b *Bot) ResetRealizedResults(stockBookID, stockAccountID string, full bool) (*Summary, error) {
	stockBook, stockAccount, err := b.stockAccount(stockBookID, stockAccountID)
	if err != nil {
		return nil, err
	}
	return resetRealizedResultsForAccount(stockBook, stockAccount, full, nil)
}

// resetRealizedResultsForAccount reverts the account results. A non-nil
// override restricts the reset to those transactions instead of the account
// query.
func resetRealizedResultsForAccount(stockBook *ledger.Book, stockAccount *StockAccount, full bool, override []*ledger.Transaction) (*Summary, error) {
	summary := NewSummary(stockAccount.ID())

	stockExcCode := stockAccount.ExchangeCode()
	financialBook := GetFinancialBook(stockBook, stockExcCode)
	if financialBook == nil {
		return summary, nil // No priced book for this exchange code: skip.
	}
	baseBook := GetBaseBook(financialBook)

	txs := override
	if txs == nil {
		var err error
		txs, err = stockBook.Transactions(accountQuery(stockAccount, full, date.Date{}))
		if err != nil {
			return nil, err
		}
	}

	for _, tx := range txs {
		log.Printf("resetting transaction: %s", tx.ID())

		if tx.Checked() {
			tx.Uncheck()
		}

		removeDerivedTransactions(financialBook, tx.ID())
		removeDerivedTransactions(financialBook, "mtm_"+tx.ID())
		if baseBook != nil {
			removeDerivedTransactions(baseBook, "fx_"+tx.ID())
		}

		originalAmount := tx.Property(string(OriginalAmountProp))
		originalQuantity := tx.Property(string(OriginalQuantityProp))

		if full {
			tx.SetProperty(string(OrderProp), tx.Property(string(HistOrderProp)))
			if v := tx.Property(string(DateProp)); v != "" {
				if d, err := date.Parse(v); err == nil {
					tx.SetDate(d)
				}
			}
			if hist := tx.Property(string(HistQuantityProp)); hist != "" {
				tx.SetProperty(string(OriginalQuantityProp), hist)
				originalQuantity = hist
			}
			tx.
				DeleteProperty(string(DateProp)).
				DeleteProperty(string(HistOrderProp)).
				DeleteProperty(string(HistQuantityProp)).
				DeleteProperty(string(FwdPurchasePriceProp)).
				DeleteProperty(string(FwdSalePriceProp)).
				DeleteProperty(string(FwdPurchaseExcRateProp)).
				DeleteProperty(string(FwdSaleExcRateProp))
		}

		switch {
		case originalQuantity == "":
			// Bot-created split child: no original quantity to restore.
			tx.Trash()

		case IsSale(tx):
			if originalAmount != "" && tx.Property(string(SalePriceProp)) == "" {
				if price, ok := legacyPrice(originalAmount, originalQuantity); ok {
					tx.SetProperty(string(SalePriceProp), price.String())
				}
			}
			restored, err := ledger.ParseAmount(originalQuantity)
			if err != nil {
				log.Printf("transaction %s: bad original quantity %q", tx.ID(), originalQuantity)
				continue
			}
			tx.
				DeleteProperty(string(GainAmountProp)).
				DeleteProperty(string(GainLogProp)).
				DeleteProperty(string(PurchaseLogProp)).
				DeleteProperty(string(PurchaseAmountProp)).
				DeleteProperty(string(SaleAmountProp)).
				DeleteProperty(string(ShortSaleProp)).
				DeleteProperty(string(PurchasePriceProp)).
				DeleteProperty(string(PurchaseExcRateProp)).
				DeleteProperty(string(SaleExcRateProp)).
				DeleteProperty(string(ExcRateProp)).
				DeleteProperty(string(OriginalAmountProp)).
				DeleteProperty(string(FwdPurchaseAmountProp)).
				DeleteProperty(string(FwdPurchaseLogProp)).
				DeleteProperty(string(FwdSaleAmountProp)).
				SetAmount(restored).
				Update()

		case IsPurchase(tx):
			if originalAmount != "" && tx.Property(string(PurchasePriceProp)) == "" {
				if price, ok := legacyPrice(originalAmount, originalQuantity); ok {
					tx.SetProperty(string(PurchasePriceProp), price.String())
				}
			}
			restored, err := ledger.ParseAmount(originalQuantity)
			if err != nil {
				log.Printf("transaction %s: bad original quantity %q", tx.ID(), originalQuantity)
				continue
			}
			tx.
				DeleteProperty(string(SaleDateProp)).
				DeleteProperty(string(SalePriceProp)).
				DeleteProperty(string(SaleAmountProp)).
				DeleteProperty(string(ShortSaleProp)).
				DeleteProperty(string(GainAmountProp)).
				DeleteProperty(string(GainLogProp)).
				DeleteProperty(string(PurchaseAmountProp)).
				DeleteProperty(string(ExcRateProp)).
				DeleteProperty(string(PurchaseExcRateProp)).
				DeleteProperty(string(SaleExcRateProp)).
				DeleteProperty(string(OriginalAmountProp)).
				DeleteProperty(string(FwdSaleAmountProp)).
				DeleteProperty(string(FwdPurchaseAmountProp)).
				SetAmount(restored).
				Update()
		}
	}

	stockAccount.ClearNeedsRebuild()

	if full {
		stockAccount.
			DeleteRealizedDate().
			DeleteForwardedDate().
			DeleteForwardedExcRate().
			DeleteForwardedPrice()
	}

	// The realized date restarts at the period opening.
	if forwardedDate := stockAccount.ForwardedDate(); !forwardedDate.IsZero() {
		stockAccount.SetRealizedDate(forwardedDate)
	} else {
		stockAccount.DeleteRealizedDate()
	}
	stockAccount.Update()

	return summary.Done("Done."), nil
}

// removeDerivedTransactions trashes every transaction carrying the remote id.
func removeDerivedTransactions(book *ledger.Book, remoteID string) {
	txs, err := book.Transactions("remoteId:" + remoteID)
	if err != nil {
		log.Println(err)
		return
	}
	for _, tx := range txs {
		if tx.Checked() {
			tx.Uncheck()
		}
		tx.Trash()
	}
}

// legacyPrice reconstructs a lot price from pre-split totals recorded before
// prices were stamped per lot.
func legacyPrice(originalAmount, originalQuantity string) (ledger.Amount, bool) {
	amount, err := ledger.ParseAmount(originalAmount)
	if err != nil {
		return ledger.Amount{}, false
	}
	quantity, err := ledger.ParseAmount(originalQuantity)
	if err != nil || quantity.IsZero() {
		return ledger.Amount{}, false
	}
	return amount.Div(quantity), true
}
