package stockbot

import (
	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// validationAccount accumulates the unchecked lot activity of a permanent
// account while scanning for uncalculated results.
type validationAccount struct {
	stockAccount       *StockAccount
	uncheckedPurchases []*ledger.Transaction
	uncheckedSales     []*ledger.Transaction
}

func newValidationAccount(account *ledger.Account) *validationAccount {
	return &validationAccount{stockAccount: NewStockAccount(account)}
}

func (v *validationAccount) account() *ledger.Account { return v.stockAccount.Account() }

func (v *validationAccount) needsRebuild() bool { return v.stockAccount.NeedsRebuild() }

// hasUncalculatedResults reports pending matching work: both unchecked
// purchases and unchecked sales exist.
func (v *validationAccount) hasUncalculatedResults() bool {
	return len(v.uncheckedPurchases) > 0 && len(v.uncheckedSales) > 0
}

func (v *validationAccount) pushUncheckedPurchase(tx *ledger.Transaction) {
	v.uncheckedPurchases = append(v.uncheckedPurchases, tx)
}

func (v *validationAccount) pushUncheckedSale(tx *ledger.Transaction) {
	v.uncheckedSales = append(v.uncheckedSales, tx)
}

// hasExchangeRatesMissing reports whether a lot of a foreign-currency
// account lacks exchange-rate data on either leg.
func (v *validationAccount) hasExchangeRatesMissing(baseCurrency string) bool {
	if v.stockAccount.ExchangeCode() == baseCurrency {
		return false
	}
	lots := append(append([]*ledger.Transaction{}, v.uncheckedPurchases...), v.uncheckedSales...)
	for _, tx := range lots {
		if tx.Property(keys(TradeExcRateProp, TradeExcRateHistProp, ExcRateProp, PurchaseExcRateProp, SaleExcRateProp)...) == "" {
			return true
		}
	}
	return false
}

// uncalculatedAccountsQuery scans unchecked transactions, skipping periods
// already closed by the book closing date.
func uncalculatedAccountsQuery(stockBook *ledger.Book) string {
	if closing := stockBook.ClosingDate(); !closing.IsZero() {
		opening := closing.Add(1)
		return "after:" + opening.String() + " is:unchecked"
	}
	return "is:unchecked"
}

// GetUncalculatedAccounts scans the stock book for permanent accounts whose
// realized results are not up to date: unmatched purchase+sale activity, a
// pending rebuild, or (when a base book is given) missing exchange-rate
// data.
func GetUncalculatedAccounts(stockBook, baseBook *ledger.Book) ([]*ledger.Account, error) {
	baseCurrency := ""
	if baseBook != nil {
		baseCurrency = GetExcCode(baseBook)
	}

	validations := make(map[string]*validationAccount)
	var names []string
	for _, account := range stockBook.Accounts() {
		if account.Permanent() {
			validations[account.Name()] = newValidationAccount(account)
			names = append(names, account.Name())
		}
	}

	txs, err := stockBook.Transactions(uncalculatedAccountsQuery(stockBook))
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		account := permanentAccountOf(tx)
		if account == nil {
			continue
		}
		validation := validations[account.Name()]
		if validation == nil || validation.needsRebuild() || validation.hasUncalculatedResults() {
			continue
		}
		contra := contraAccountOf(tx)
		if contra == nil {
			continue
		}
		switch contra.Name() {
		case BuyAccountName:
			validation.pushUncheckedPurchase(tx)
		case SellAccountName:
			validation.pushUncheckedSale(tx)
		}
	}

	var uncalculated []*ledger.Account
	for _, name := range names {
		validation := validations[name]
		if validation.needsRebuild() || validation.hasUncalculatedResults() {
			uncalculated = append(uncalculated, validation.account())
			continue
		}
		if baseCurrency != "" && validation.hasExchangeRatesMissing(baseCurrency) {
			uncalculated = append(uncalculated, validation.account())
		}
	}
	return uncalculated, nil
}

// IsAccountUncalculated reports whether the account still has unmatched
// purchase+sale activity before the given forward date. Used as a
// precondition gate before forwarding.
func IsAccountUncalculated(stockBook *ledger.Book, account *ledger.Account, forwardDate date.Date) (bool, error) {
	validation := newValidationAccount(account)
	txs, err := stockBook.Transactions("account:'" + account.Name() + "' before:" + forwardDate.String())
	if err != nil {
		return false, err
	}
	for _, tx := range txs {
		if validation.hasUncalculatedResults() {
			break
		}
		if tx.Checked() {
			continue
		}
		contra := contraAccountOf(tx)
		if contra == nil {
			continue
		}
		switch contra.Name() {
		case BuyAccountName:
			validation.pushUncheckedPurchase(tx)
		case SellAccountName:
			validation.pushUncheckedSale(tx)
		}
	}
	return validation.hasUncalculatedResults(), nil
}
