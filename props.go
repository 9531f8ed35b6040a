package stockbot

// Prop is a typed key for the custom properties the bot reads and writes on
// books, accounts, groups and transactions. Keeping the set closed prevents
// key drift between read and write sites.
type Prop string

// Transaction properties.
const (
	PriceProp            Prop = "price"
	OpenQuantityProp     Prop = "open_quantity"
	OriginalQuantityProp Prop = "original_quantity"
	OriginalAmountProp   Prop = "original_amount"
	OrderProp            Prop = "order"
	DateProp             Prop = "date"
	HistOrderProp        Prop = "hist_order"
	HistQuantityProp     Prop = "hist_quantity"
	ParentIDProp         Prop = "parent_id"

	SalePriceProp       Prop = "sale_price"
	SaleAmountProp      Prop = "sale_amount"
	SaleDateProp        Prop = "sale_date"
	SaleExcRateProp     Prop = "sale_exc_rate"
	PurchasePriceProp   Prop = "purchase_price"
	PurchaseAmountProp  Prop = "purchase_amount"
	PurchaseExcRateProp Prop = "purchase_exc_rate"
	ShortSaleProp       Prop = "short_sale"
	GainAmountProp      Prop = "gain_amount"
	GainLogProp         Prop = "gain_log"
	PurchaseLogProp     Prop = "purchase_log"

	ExcRateProp     Prop = "exc_rate"
	ExcBaseRateProp Prop = "exc_base_rate"
	ExcAmountProp   Prop = "exc_amount"
	ExcCodeProp     Prop = "exc_code"

	FwdSalePriceProp       Prop = "fwd_sale_price"
	FwdSaleAmountProp      Prop = "fwd_sale_amount"
	FwdSaleExcRateProp     Prop = "fwd_sale_exc_rate"
	FwdPurchasePriceProp   Prop = "fwd_purchase_price"
	FwdPurchaseAmountProp  Prop = "fwd_purchase_amount"
	FwdPurchaseExcRateProp Prop = "fwd_purchase_exc_rate"
	FwdPurchaseLogProp     Prop = "fwd_purchase_log"
	FwdLogProp             Prop = "fwd_log"
	FwdTxProp              Prop = "fwd_tx"
	FwdTxRemoteIDsProp     Prop = "fwd_tx_remote_ids"
	FwdLiquidationProp     Prop = "fwd_liquidation"

	TradeDateProp       Prop = "trade_date"
	SettlementDateProp  Prop = "settlement_date"
	QuantityProp        Prop = "quantity"
	InstrumentProp      Prop = "instrument"
	FeesProp            Prop = "fees"
	InterestProp        Prop = "interest"
	TradeExcRateProp      Prop = "trade_exc_rate"
	TradeExcRateHistProp  Prop = "trade_exc_rate_hist"
	PriceHistProp         Prop = "price_hist"
	CostHistProp          Prop = "cost_hist"
	SalePriceHistProp     Prop = "sale_price_hist"
	PurchasePriceHistProp Prop = "purchase_price_hist"
)

// Book properties.
const (
	StockBookProp       Prop = "stock_book"
	StockHistoricalProp Prop = "stock_historical"
	StockFairProp       Prop = "stock_fair"
	ExcBaseProp         Prop = "exc_base"
	ExchangeCodeProp    Prop = "exchange_code"
)

// Account and group properties.
const (
	StockExcCodeProp     Prop = "stock_exc_code"
	StockFeesAccountProp Prop = "stock_fees_account"
	ExcAccountProp       Prop = "exc_account"

	RealizedDateProp     Prop = "realized_date"
	ForwardedDateProp    Prop = "forwarded_date"
	ForwardedPriceProp   Prop = "forwarded_price"
	ForwardedExcRateProp Prop = "forwarded_exc_rate"
	NeedsRebuildProp     Prop = "needs_rebuild"
)

// Well-known account names and name suffixes.
const (
	BuyAccountName  = "Buy"
	SellAccountName = "Sell"

	UnrealizedSuffix = "Unrealized"
	RealizedSuffix   = "Realized"
	ForwardedSuffix  = "Forwarded"

	ExchangeAccountPrefix = "Exchange_"
)

// keys converts a list of typed property keys for the ledger API.
func keys(props ...Prop) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = string(p)
	}
	return out
}
