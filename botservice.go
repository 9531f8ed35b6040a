package stockbot

import (
	"log"
	"strconv"
	"strings"

	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// CalculationModel selects which cost basis the bot maintains.
type CalculationModel int

const (
	// ModelBoth maintains fair results with historical price tracking.
	ModelBoth CalculationModel = iota
	// ModelHistoricalOnly suppresses fair-value artifacts such as the
	// forwarded-result transaction.
	ModelHistoricalOnly
	// ModelFairOnly maintains fair results without historical tracking.
	ModelFairOnly
)

func isFlaggedAsHistorical(stockBook *ledger.Book) bool {
	return strings.EqualFold(strings.TrimSpace(stockBook.Property(string(StockHistoricalProp))), "true")
}

func isFlaggedAsFair(stockBook *ledger.Book) bool {
	return strings.EqualFold(strings.TrimSpace(stockBook.Property(string(StockFairProp))), "true")
}

// GetCalculationModel resolves the calculation model from the stock book
// flags.
func GetCalculationModel(stockBook *ledger.Book) CalculationModel {
	historical, fair := isFlaggedAsHistorical(stockBook), isFlaggedAsFair(stockBook)
	switch {
	case historical && !fair:
		return ModelHistoricalOnly
	case fair && !historical:
		return ModelFairOnly
	default:
		return ModelBoth
	}
}

// IsStockBook reports whether the book tracks share quantities: flagged as
// the stock book, or using zero fraction digits.
func IsStockBook(book *ledger.Book) bool {
	return book.Property(string(StockBookProp)) != "" || book.FractionDigits() == 0
}

// GetStockBook locates the stock book within the collection of the given
// book, or nil.
func GetStockBook(book *ledger.Book) *ledger.Book {
	if book.Collection() == nil {
		return nil
	}
	for _, connected := range book.Collection().Books() {
		if connected.Property(string(StockBookProp)) != "" {
			return connected
		}
		if connected.FractionDigits() == 0 {
			return connected
		}
	}
	return nil
}

// GetFinancialBook locates the priced book for the given exchange code
// within the collection of the given book, or nil.
func GetFinancialBook(book *ledger.Book, excCode string) *ledger.Book {
	if book.Collection() == nil {
		return nil
	}
	for _, connected := range book.Collection().Books() {
		if connected.FractionDigits() != 0 && GetExcCode(connected) == excCode {
			return connected
		}
	}
	return nil
}

// GetBaseBook locates the reporting-currency book of the collection: the
// book flagged exc_base, falling back to a USD book.
func GetBaseBook(book *ledger.Book) *ledger.Book {
	if book.Collection() == nil {
		log.Printf("book %s has no collection", book.Name())
		return nil
	}
	for _, connected := range book.Collection().Books() {
		if connected.Property(string(ExcBaseProp)) != "" {
			return connected
		}
	}
	for _, connected := range book.Collection().Books() {
		if GetExcCode(connected) == "USD" {
			return connected
		}
	}
	log.Println("no base book")
	return nil
}

// HasBaseBookDefined reports whether the collection explicitly flags a base
// book.
func HasBaseBookDefined(book *ledger.Book) bool {
	if book.Collection() == nil {
		return false
	}
	for _, connected := range book.Collection().Books() {
		if connected.Property(string(ExcBaseProp)) != "" {
			return true
		}
	}
	return false
}

// GetExcCode returns the exchange code of a book.
func GetExcCode(book *ledger.Book) string {
	return book.Property(keys(ExcCodeProp, ExchangeCodeProp)...)
}

// IsSale reports whether the transaction is a sale lot: a posted
// transaction debiting the Sell clearing account.
func IsSale(tx *ledger.Transaction) bool {
	return tx.Posted() && tx.DebitAccount() != nil && tx.DebitAccount().Type() == ledger.Outgoing
}

// IsPurchase reports whether the transaction is a purchase lot: a posted
// transaction crediting the Buy clearing account.
func IsPurchase(tx *ledger.Transaction) bool {
	return tx.Posted() && tx.CreditAccount() != nil && tx.CreditAccount().Type() == ledger.Incoming
}

// CompareFIFO orders lot transactions for matching: ledger date first, the
// explicit order property next (absent defaults to 0), creation time last.
func CompareFIFO(tx1, tx2 *ledger.Transaction) int {
	if ret := tx1.DateValue() - tx2.DateValue(); ret != 0 {
		return ret
	}
	order1, _ := strconv.Atoi(tx1.Property(string(OrderProp)))
	order2, _ := strconv.Atoi(tx2.Property(string(OrderProp)))
	if ret := order1 - order2; ret != 0 {
		return ret
	}
	if !tx1.CreatedAt().IsZero() && !tx2.CreatedAt().IsZero() {
		switch {
		case tx1.CreatedAt().Before(tx2.CreatedAt()):
			return -1
		case tx1.CreatedAt().After(tx2.CreatedAt()):
			return 1
		}
	}
	return 0
}

// accountQuery builds the lot query for a stock account. Unless full, the
// query starts after the forwarded date so closed periods stay untouched.
func accountQuery(stockAccount *StockAccount, full bool, beforeDate date.Date) string {
	query := "account:'" + stockAccount.Name() + "'"
	if !full && !stockAccount.ForwardedDate().IsZero() {
		query += " after:" + stockAccount.ForwardedDate().String()
	}
	if !beforeDate.IsZero() {
		query += " before:" + beforeDate.String()
	}
	return query
}

// gainBaseNoFX converts a local gain to base currency at a single leg rate:
// the purchase rate on a short sale, the sale rate otherwise. Nil when
// either rate is missing.
func gainBaseNoFX(gainLocal ledger.Amount, purchaseRate, saleRate *ledger.Amount, shortSale bool) *ledger.Amount {
	if purchaseRate == nil || saleRate == nil {
		return nil
	}
	var gain ledger.Amount
	if shortSale {
		gain = gainLocal.Times(*purchaseRate)
	} else {
		gain = gainLocal.Times(*saleRate)
	}
	return &gain
}

// gainBaseWithFX values each leg at its contemporaneous rate and subtracts.
// Nil when either rate is missing.
func gainBaseWithFX(purchaseAmount ledger.Amount, purchaseRate *ledger.Amount, saleAmount ledger.Amount, saleRate *ledger.Amount) *ledger.Amount {
	if purchaseRate == nil || saleRate == nil {
		return nil
	}
	gain := saleAmount.Times(*saleRate).Minus(purchaseAmount.Times(*purchaseRate))
	return &gain
}

func hasProvidedTradeExcRates(tx *ledger.Transaction) bool {
	return tx.Property(keys(TradeExcRateProp, TradeExcRateHistProp)...) != ""
}

// tradeExcRate returns the historical trade exchange rate provided on the
// transaction, or nil.
func tradeExcRate(tx *ledger.Transaction) *ledger.Amount {
	return amountProp(tx, TradeExcRateHistProp)
}

// fwdTradeExcRate returns the last forwarded exchange rate, falling back to
// the originally provided trade rate.
func fwdTradeExcRate(tx *ledger.Transaction, fwdExcRateProp Prop) *ledger.Amount {
	if rate := amountProp(tx, fwdExcRateProp); rate != nil {
		return rate
	}
	return amountProp(tx, TradeExcRateProp)
}

// fwdExcRate resolves the forward exchange rate of a lot, falling back to
// the contemporaneous rate.
func fwdExcRate(tx *ledger.Transaction, fwdExcRateProp Prop, fallback *ledger.Amount) *ledger.Amount {
	if hasProvidedTradeExcRates(tx) {
		return fwdTradeExcRate(tx, fwdExcRateProp)
	}
	if rate := amountProp(tx, fwdExcRateProp); rate != nil {
		return rate
	}
	return fallback
}

// excRate resolves the local-to-base exchange rate of a lot. Resolution
// order: none without a distinct base book; provided trade rates; the rate
// already stamped on the lot; the rate replicated on the base-book mirror of
// the originating financial transaction.
func excRate(baseBook, financialBook *ledger.Book, tx *ledger.Transaction, excRateProp Prop) *ledger.Amount {
	if !HasBaseBookDefined(financialBook) {
		return nil
	}
	if baseBook.Property(string(ExcCodeProp)) == financialBook.Property(string(ExcCodeProp)) {
		return nil
	}
	if hasProvidedTradeExcRates(tx) {
		return tradeExcRate(tx)
	}
	if rate := amountProp(tx, excRateProp); rate != nil {
		return rate
	}
	if len(tx.RemoteIDs()) == 0 {
		return nil
	}
	for _, remoteID := range tx.RemoteIDs() {
		financialTx := financialBook.Transaction(remoteID)
		if financialTx == nil {
			continue
		}
		baseTxs, err := baseBook.Transactions("remoteId:" + financialTx.ID())
		if err != nil {
			log.Println(err)
			continue
		}
		for _, baseTx := range baseTxs {
			if rate := amountProp(baseTx, ExcRateProp, ExcBaseRateProp); rate != nil {
				return rate
			}
		}
	}
	return nil
}

// amountProp parses the first non-empty amount property among keys, nil when
// absent or malformed.
func amountProp(tx *ledger.Transaction, props ...Prop) *ledger.Amount {
	v := tx.Property(keys(props...)...)
	if v == "" {
		return nil
	}
	a, err := ledger.ParseAmount(v)
	if err != nil {
		log.Printf("transaction %s: bad amount %q in %v: %v", tx.ID(), v, props, err)
		return nil
	}
	return &a
}

// BuyAccount returns the Buy clearing account, creating it when absent.
func BuyAccount(book *ledger.Book) *ledger.Account {
	account := book.Account(BuyAccountName)
	if account == nil {
		account = book.NewAccount(BuyAccountName, ledger.Incoming).Create()
	}
	return account
}

// SellAccount returns the Sell clearing account, creating it when absent.
func SellAccount(book *ledger.Book) *ledger.Account {
	account := book.Account(SellAccountName)
	if account == nil {
		account = book.NewAccount(SellAccountName, ledger.Outgoing).Create()
	}
	return account
}

// supportAccount returns the "<name> <suffix>" account in the book, creating
// it with the given type and the groups shared by its siblings when absent.
func supportAccount(book *ledger.Book, stockAccountName, suffix string, typ ledger.AccountType, summary *Summary, excCode string) *ledger.Account {
	name := stockAccountName + " " + suffix
	account := book.Account(name)
	if account != nil {
		return account
	}
	account = book.NewAccount(name, typ)
	for _, group := range groupsByAccountSuffix(book, suffix) {
		account.AddGroup(group)
	}
	account.Create()
	if summary != nil {
		summary.TrackAccountCreated(excCode, name)
	}
	return account
}

// groupsByAccountSuffix returns the groups every existing "<x> <suffix>"
// account belongs to.
func groupsByAccountSuffix(book *ledger.Book, suffix string) []*ledger.Group {
	var accounts []*ledger.Account
	for _, account := range book.Accounts() {
		if strings.HasSuffix(account.Name(), " "+suffix) {
			accounts = append(accounts, account)
		}
	}
	if len(accounts) == 0 {
		return nil
	}
	var groups []*ledger.Group
	for _, group := range book.Groups() {
		shared := true
		for _, account := range accounts {
			if !account.InGroup(group) {
				shared = false
				break
			}
		}
		if shared {
			groups = append(groups, group)
		}
	}
	return groups
}

// TypeByAccountSuffix infers the account type for a new "<x> <suffix>"
// account from the most common type among its siblings.
func TypeByAccountSuffix(book *ledger.Book, suffix string) ledger.AccountType {
	var types []ledger.AccountType
	for _, account := range book.Accounts() {
		if strings.HasSuffix(account.Name(), " "+suffix) {
			types = append(types, account.Type())
		}
	}
	return typeMode(types)
}

// typeMode returns the most common type among the siblings. A lone sibling
// is not a trend: overriding the LIABILITY default takes at least two
// accounts of the same type, and ties resolve to the earliest type to pass
// the threshold.
func typeMode(types []ledger.AccountType) ledger.AccountType {
	counts := make(map[ledger.AccountType]int)
	mode := ledger.Liability
	max := 1
	for _, typ := range types {
		counts[typ]++
		if counts[typ] > max {
			max = counts[typ]
			mode = typ
		}
	}
	return mode
}

// excAccountName resolves the base-book exchange account for an unrealized
// account, honoring an exc_account group override.
func excAccountName(connectedAccount *ledger.Account, connectedCode string) string {
	for _, group := range connectedAccount.Groups() {
		if name := group.Property(string(ExcAccountProp)); name != "" {
			return name
		}
	}
	return ExchangeAccountPrefix + connectedCode
}

// excAccountNames lists the accounts of the book playing the exchange role.
func excAccountNames(book *ledger.Book) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, account := range book.Accounts() {
		add(account.Property(string(ExcAccountProp)))
		if strings.HasPrefix(account.Name(), ExchangeAccountPrefix) {
			add(account.Name())
		}
	}
	return names
}

// excAccountGroups returns the groups of the existing exchange accounts.
func excAccountGroups(book *ledger.Book) []*ledger.Group {
	var groups []*ledger.Group
	seen := make(map[*ledger.Group]bool)
	for _, name := range excAccountNames(book) {
		account := book.Account(name)
		if account == nil {
			continue
		}
		for _, group := range account.Groups() {
			if !seen[group] {
				seen[group] = true
				groups = append(groups, group)
			}
		}
	}
	return groups
}

// excAccountType infers the type for a new exchange account from the
// existing ones, defaulting to LIABILITY.
func excAccountType(book *ledger.Book) ledger.AccountType {
	var types []ledger.AccountType
	for _, name := range excAccountNames(book) {
		if account := book.Account(name); account != nil {
			types = append(types, account.Type())
		}
	}
	return typeMode(types)
}

// FlagStockAccountForRebuildIfNeeded flags the permanent account of a stock
// transaction for rebuild when the transaction dates inside the already
// realized period.
func FlagStockAccountForRebuildIfNeeded(stockTx *ledger.Transaction) {
	account := permanentAccountOf(stockTx)
	if account == nil {
		return
	}
	stockAccount := NewStockAccount(account)
	realized := stockAccount.RealizedDateValue()
	if realized != 0 && stockTx.DateValue() <= realized {
		stockAccount.FlagNeedsRebuild().Update()
	}
}

// permanentAccountOf returns the permanent leg of a lot transaction, or nil.
func permanentAccountOf(tx *ledger.Transaction) *ledger.Account {
	if tx.CreditAccount() != nil && tx.CreditAccount().Permanent() {
		return tx.CreditAccount()
	}
	if tx.DebitAccount() != nil && tx.DebitAccount().Permanent() {
		return tx.DebitAccount()
	}
	return nil
}

// contraAccountOf returns the non-permanent leg of a lot transaction.
func contraAccountOf(tx *ledger.Transaction) *ledger.Account {
	if tx.CreditAccount() != nil && tx.CreditAccount().Permanent() {
		return tx.DebitAccount()
	}
	return tx.CreditAccount()
}
