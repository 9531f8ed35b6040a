package stockbot

import (
	"encoding/json"
	"fmt"
	"log"
	"slices"

	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// ForwardDate moves the open lots of the account to a new opening date,
// leaving a checked log of their previous state behind. The closing date is
// the day before the forward date. Lowering an existing forward date rewinds
// the logs first (owner-only, and only while no book of the collection is
// locked or closed).
func (b *Bot) ForwardDate(stockBookID, stockAccountID string, forwardDate date.Date) (*Summary, error) {
	stockBook, stockAccount, err := b.stockAccount(stockBookID, stockAccountID)
	if err != nil {
		return nil, err
	}

	dateValue := forwardDate.Value()
	realizedDateValue := stockAccount.RealizedDateValue()
	forwardedDateValue := stockAccount.ForwardedDateValue()

	summary := NewSummary(stockAccountID)

	uncalculated, err := IsAccountUncalculated(stockBook, stockAccount.Account(), forwardDate)
	if err != nil {
		return nil, err
	}
	if uncalculated {
		return summary.Reject("Cannot set forward date: account has uncalculated results"), nil
	}

	if forwardedDateValue != 0 && dateValue == forwardedDateValue {
		return summary.Reject(fmt.Sprintf("Cannot set forward date: account forwarded date is already %s", stockBook.FormatDate(stockAccount.ForwardedDate()))), nil
	}

	if forwardedDateValue != 0 && dateValue < forwardedDateValue {
		if !isUserBookOwner(stockBook) {
			return summary.Reject("Cannot lower forward date: user must be book owner"), nil
		}
		if !isCollectionUnlocked(stockBook) {
			return summary.Reject("Cannot lower forward date: collection has locked/closed book(s)"), nil
		}
		return b.fixAndForwardDateForAccount(stockBook, stockAccount, forwardDate)
	}

	if realizedDateValue != 0 && dateValue <= realizedDateValue {
		return summary.Reject(fmt.Sprintf("Cannot set forward date: account has realized results up to %s", stockBook.FormatDate(stockAccount.RealizedDate()))), nil
	}

	return b.forwardDateForAccount(stockBook, stockAccount, forwardDate, false)
}

// fixAndForwardDateForAccount rewinds previously forwarded lots to the state
// they had at the new (earlier) forward date, then forwards again.
func (b *Bot) fixAndForwardDateForAccount(stockBook *ledger.Book, stockAccount *StockAccount, forwardDate date.Date) (*Summary, error) {
	// Revert results of the current period first.
	if _, err := resetRealizedResultsForAccount(stockBook, stockAccount, false, nil); err != nil {
		return nil, err
	}

	txs, err := stockBook.Transactions("account:'" + stockAccount.Name() + "' after:" + stockAccount.ForwardedDate().String())
	if err != nil {
		return nil, err
	}
	var forwarded []*ledger.Transaction
	for _, tx := range txs {
		if tx.Property(string(FwdLogProp)) != "" {
			forwarded = append(forwarded, tx)
		}
	}

	for _, tx := range forwarded {
		log.Printf("fixing transaction: %s", tx.ID())

		previous := getForwardedTransactionPreviousState(stockBook, stockAccount, tx, forwardDate)
		if previous != tx {
			tx.
				SetDate(previous.Date()).
				SetProperties(previous.Properties()).
				DeleteProperty(string(FwdTxProp)).
				DeleteProperty(string(FwdTxRemoteIDsProp)).
				Update()
			stockAccount.PushTrash(previous)
		}
	}
	stockAccount.CleanTrash()

	// Revert results up to the new forward date.
	resetTxs, err := stockBook.Transactions("account:'" + stockAccount.Name() + "' after:" + forwardDate.String())
	if err != nil {
		return nil, err
	}
	if _, err := resetRealizedResultsForAccount(stockBook, stockAccount, false, resetTxs); err != nil {
		return nil, err
	}

	newForward, err := b.forwardDateForAccount(stockBook, stockAccount, forwardDate, true)
	if err != nil {
		return nil, err
	}
	if newForward.Rejected() {
		return newForward, nil
	}
	return NewSummary(stockAccount.ID()).Done(fmt.Sprintf("Done! %d fixed and %s", len(forwarded), newForward.Result)), nil
}

func (b *Bot) forwardDateForAccount(stockBook *ledger.Book, stockAccount *StockAccount, forwardDate date.Date, fixingForward bool) (*Summary, error) {
	if stockAccount.NeedsRebuild() {
		return NewSummary(stockAccount.ID()).Reject("Cannot set forward date: account needs rebuild"), nil
	}

	stockExcCode := stockAccount.ExchangeCode()
	financialBook := GetFinancialBook(stockBook, stockExcCode)
	if financialBook == nil {
		return nil, fmt.Errorf("no financial book for exchange code %q", stockExcCode)
	}

	// Without a base book the financial book plays the base role and no
	// exchange rates are stamped.
	baseBook := GetBaseBook(stockBook)
	if baseBook == nil {
		baseBook = financialBook
	}
	baseExcCode := GetExcCode(baseBook)

	closingDate := forwardDate.Add(-1)

	openQuantity, err := accountBalanceRaw(stockBook, stockAccount.Name(), closingDate)
	if err != nil {
		return nil, err
	}
	openAmountBase, err := accountBalanceRaw(baseBook, stockAccount.Name(), closingDate)
	if err != nil {
		return nil, err
	}
	openAmountLocal, err := accountBalanceRaw(financialBook, stockAccount.Name(), closingDate)
	if err != nil {
		return nil, err
	}

	needLiquidationTx := true
	if openQuantity.IsZero() && fixingForward {
		recovered, err := tryOpenQuantityFromLiquidationTx(stockBook, stockAccount, closingDate)
		if err != nil {
			return nil, err
		}
		if !recovered.IsZero() {
			openQuantity = recovered
			needLiquidationTx = false
		}
	}

	// Opening price and exchange rate of the new period.
	var fwdPrice, fwdRate *ledger.Amount
	if !openQuantity.IsZero() {
		price := openAmountLocal.Div(openQuantity)
		fwdPrice = &price
	}
	if !openAmountLocal.IsZero() {
		rate := openAmountBase.Div(openAmountLocal)
		fwdRate = &rate
	}

	all, err := stockBook.Transactions("account:'" + stockAccount.Name() + "' before:" + forwardDate.String())
	if err != nil {
		return nil, err
	}
	var open []*ledger.Transaction
	for _, tx := range all {
		if !tx.Checked() {
			open = append(open, tx)
		}
	}
	sortFIFO(open)

	var logTransactionIDs []string
	var transactionsToCheck []*ledger.Transaction
	order := -len(open)

	for _, tx := range open {
		log.Printf("forwarding transaction: %s", tx.ID())

		logTransaction := buildLogTransaction(stockBook, tx).Post()
		forwardTransaction(tx, logTransaction, stockExcCode, baseExcCode, fwdPrice, fwdRate, forwardDate, order)

		logTransactionIDs = append(logTransactionIDs, logTransaction.ID())
		transactionsToCheck = append(transactionsToCheck, logTransaction)
		order++
	}

	liquidationTxID := ""
	if needLiquidationTx && !openQuantity.IsZero() {
		liquidation := buildLiquidationTransaction(stockBook, stockAccount, openQuantity, closingDate, forwardDate)
		ids, _ := json.Marshal(logTransactionIDs)
		liquidation.SetProperty(string(FwdLiquidationProp), string(ids)).Post()
		liquidationTxID = liquidation.ID()
		transactionsToCheck = append(transactionsToCheck, liquidation)
	}

	stockBook.BatchCheck(transactionsToCheck)

	// The gap accumulated on the unrealized account during the period moves
	// to the forwarded account, keeping next-period results clean.
	urName := stockAccount.Name() + " " + UnrealizedSuffix
	urBalanceLocal, err := periodBalance(financialBook, urName, stockAccount.ForwardedDate(), forwardDate)
	if err != nil {
		return nil, err
	}
	urBalanceBase, err := periodBalance(baseBook, urName, stockAccount.ForwardedDate(), forwardDate)
	if err != nil {
		return nil, err
	}

	model := GetCalculationModel(stockBook)
	if model != ModelHistoricalOnly && liquidationTxID != "" && !urBalanceLocal.IsZero() {
		buildForwardedResultTransaction(financialBook, baseBook, stockAccount, closingDate, urBalanceLocal, urBalanceBase).
			AddRemoteID("fwd_" + liquidationTxID).
			SetChecked(true).
			Create()
	}

	updateStockAccount(stockAccount, stockExcCode, baseExcCode, fwdPrice, fwdRate, forwardDate)

	if isForwardedDateSameOnAllAccounts(stockBook, forwardDate) && stockBook.ClosingDate() != closingDate {
		// Let pending checks settle before the book refuses new postings.
		b.sleep(b.closeDelay)
		stockBook.SetClosingDate(closingDate).Update()
		return NewSummary(stockAccount.ID()).Done(fmt.Sprintf("Done! %d forwarded to %s and book closed on %s", len(open), stockBook.FormatDate(forwardDate), stockBook.FormatDate(closingDate))), nil
	}
	return NewSummary(stockAccount.ID()).Done(fmt.Sprintf("Done! %d forwarded to %s", len(open), stockBook.FormatDate(forwardDate))), nil
}

// forwardTransaction moves an open lot to the forward date, preserving its
// historical date, order and quantity, and stamping the opening price and
// rate it will match against.
func forwardTransaction(tx, logTransaction *ledger.Transaction, stockExcCode, baseExcCode string, fwdPrice, fwdRate *ledger.Amount, forwardDate date.Date, order int) {
	if tx.Property(string(DateProp)) == "" {
		tx.SetProperty(string(DateProp), tx.Date().String())
	}
	if tx.Property(string(HistQuantityProp)) == "" {
		tx.SetProperty(string(HistQuantityProp), tx.Property(string(OriginalQuantityProp)))
	}
	if tx.Property(string(HistOrderProp)) == "" {
		tx.SetProperty(string(HistOrderProp), tx.Property(string(OrderProp)))
	}
	if IsPurchase(tx) {
		tx.SetProperty(string(FwdPurchasePriceProp), amountString(fwdPrice))
		if stockExcCode != baseExcCode {
			tx.SetProperty(string(FwdPurchaseExcRateProp), amountString(fwdRate))
		}
	}
	if IsSale(tx) {
		tx.SetProperty(string(FwdSalePriceProp), amountString(fwdPrice))
		if stockExcCode != baseExcCode {
			tx.SetProperty(string(FwdSaleExcRateProp), amountString(fwdRate))
		}
	}
	tx.
		DeleteProperty(string(OriginalAmountProp)).
		SetProperty(string(OriginalQuantityProp), tx.Amount().String()).
		SetProperty(string(OrderProp), fmt.Sprintf("%d", order)).
		SetProperty(string(FwdLogProp), logTransaction.ID()).
		SetDate(forwardDate).
		Update()
}

func updateStockAccount(stockAccount *StockAccount, stockExcCode, baseExcCode string, fwdPrice, fwdRate *ledger.Amount, forwardDate date.Date) {
	stockAccount.
		SetRealizedDate(forwardDate).
		SetForwardedDate(forwardDate).
		SetForwardedPrice(fwdPrice)
	if stockExcCode != baseExcCode {
		stockAccount.SetForwardedExcRate(fwdRate)
	}
	stockAccount.Update()
}

// isForwardedDateSameOnAllAccounts reports whether every active instrument
// account of the book was forwarded to the given date.
func isForwardedDateSameOnAllAccounts(stockBook *ledger.Book, forwardedDate date.Date) bool {
	for _, account := range stockBook.Accounts() {
		sa := NewStockAccount(account)
		if sa.Permanent() && !sa.Archived() && sa.ExchangeCode() != "" {
			if sa.ForwardedDate() != forwardedDate {
				return false
			}
		}
	}
	return true
}

// buildLogTransaction copies a lot so its pre-forward state survives as
// history.
func buildLogTransaction(stockBook *ledger.Book, tx *ledger.Transaction) *ledger.Transaction {
	remoteIDs := tx.RemoteIDs()
	if remoteIDs == nil {
		remoteIDs = []string{}
	}
	ids, _ := json.Marshal(remoteIDs)
	return stockBook.NewTransaction().
		SetAmount(tx.Amount()).
		From(tx.CreditAccount()).
		To(tx.DebitAccount()).
		SetDate(tx.Date()).
		SetDescription(tx.Description()).
		SetProperties(tx.Properties()).
		SetProperty(string(FwdTxProp), tx.ID()).
		SetProperty(string(FwdTxRemoteIDsProp), string(ids))
}

// buildLiquidationTransaction zeroes the account quantity at the closing
// date, balancing the logs left behind.
func buildLiquidationTransaction(stockBook *ledger.Book, stockAccount *StockAccount, quantity ledger.Amount, closingDate, forwardDate date.Date) *ledger.Transaction {
	from := BuyAccount(stockBook)
	to := stockAccount.Account()
	if quantity.IsNegative() {
		from = stockAccount.Account()
		to = SellAccount(stockBook)
	}
	return stockBook.NewTransaction().
		SetAmount(quantity.Abs()).
		From(from).
		To(to).
		SetDate(closingDate).
		SetDescription(fmt.Sprintf("%s units forwarded to %s", quantity.Neg(), forwardDate))
}

func isUserBookOwner(stockBook *ledger.Book) bool {
	return stockBook.Permission() == ledger.PermissionOwner
}

// isCollectionUnlocked reports whether no book of the collection carries a
// lock or closing date.
func isCollectionUnlocked(stockBook *ledger.Book) bool {
	collection := stockBook.Collection()
	if collection == nil {
		return true
	}
	for _, book := range collection.Books() {
		if !book.LockDate().IsZero() {
			return false
		}
		if !book.ClosingDate().IsZero() {
			return false
		}
	}
	return true
}

// getForwardedTransactionPreviousState walks the fwd_log chain back until it
// reaches a state dated at or before the target forward date. Intermediate
// states are staged for deletion. Returns the transaction itself when the
// chain is broken.
func getForwardedTransactionPreviousState(stockBook *ledger.Book, stockAccount *StockAccount, tx *ledger.Transaction, forwardDate date.Date) *ledger.Transaction {
	visited := map[string]bool{tx.ID(): true}
	current := tx
	for {
		previousStateID := current.Property(string(FwdLogProp))
		if previousStateID == "" || visited[previousStateID] {
			return current
		}
		previous := stockBook.Transaction(previousStateID)
		if previous == nil {
			return current
		}
		if previous.DateValue() <= forwardDate.Value() {
			return previous
		}
		visited[previousStateID] = true
		stockAccount.PushTrash(previous)
		current = previous
	}
}

// tryOpenQuantityFromLiquidationTx recovers the open quantity from the
// liquidation transaction of a previous forward, signed from the instrument
// side.
func tryOpenQuantityFromLiquidationTx(stockBook *ledger.Book, stockAccount *StockAccount, closingDate date.Date) (ledger.Amount, error) {
	txs, err := stockBook.Transactions("account:'" + stockAccount.Name() + "' on:" + closingDate.String())
	if err != nil {
		return ledger.Amount{}, err
	}
	for _, tx := range txs {
		if tx.Property(string(FwdLiquidationProp)) == "" {
			continue
		}
		if IsPurchase(tx) {
			return tx.Amount(), nil
		}
		if IsSale(tx) {
			return tx.Amount().Neg(), nil
		}
	}
	return ledger.Amount{}, nil
}

// buildForwardedResultTransaction moves the unrealized balance accumulated
// over the closed period to the forwarded account.
func buildForwardedResultTransaction(financialBook, baseBook *ledger.Book, stockAccount *StockAccount, closingDate date.Date, localAmount, baseAmount ledger.Amount) *ledger.Transaction {
	isBaseBook := baseBook == nil || baseBook.ID() == financialBook.ID()

	unrealizedAccount := supportAccount(financialBook, stockAccount.Name(), UnrealizedSuffix, TypeByAccountSuffix(financialBook, UnrealizedSuffix), nil, stockAccount.ExchangeCode())
	forwardedAccount := supportAccount(financialBook, stockAccount.Name(), ForwardedSuffix, ledger.Liability, nil, stockAccount.ExchangeCode())

	from, to := forwardedAccount, unrealizedAccount
	description := "#stock_gain_fwd"
	if !localAmount.Gt(ledger.Amount{}) {
		from, to = unrealizedAccount, forwardedAccount
		description = "#stock_loss_fwd"
	}

	tx := financialBook.NewTransaction().
		From(from).
		To(to).
		SetAmount(localAmount.Abs()).
		SetDate(closingDate).
		SetDescription(description)
	if HasBaseBookDefined(financialBook) && !isBaseBook {
		tx.
			SetProperty(string(ExcAmountProp), baseAmount.Abs().String()).
			SetProperty(string(ExcCodeProp), GetExcCode(baseBook))
	}
	return tx
}

// accountBalanceRaw returns the signed cumulative balance of the account as
// of the date, unrounded.
func accountBalanceRaw(book *ledger.Book, accountName string, d date.Date) (ledger.Amount, error) {
	report, err := book.BalancesReport("account:'" + accountName + "' on:" + d.String())
	if err != nil {
		return ledger.Amount{}, err
	}
	return report.CumulativeRaw(accountName), nil
}

// periodBalance returns the rounded balance of the account over the window
// (afterDate, beforeDate), tolerating a missing account.
func periodBalance(book *ledger.Book, accountName string, afterDate, beforeDate date.Date) (ledger.Amount, error) {
	if book == nil {
		return ledger.Amount{}, nil
	}
	query := "account:'" + accountName + "'"
	if !afterDate.IsZero() {
		query += " after:" + afterDate.String()
	}
	query += " before:" + beforeDate.String()
	report, err := book.BalancesReport(query)
	if err != nil {
		return ledger.Amount{}, err
	}
	return report.Cumulative(accountName), nil
}

func sortFIFO(txs []*ledger.Transaction) {
	slices.SortStableFunc(txs, CompareFIFO)
}
