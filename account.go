package stockbot

import (
	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// StockAccount wraps a permanent account of the stock book, exposing typed
// accessors for the bookkeeping properties and a deferred-deletion buffer
// for corrective rewrites.
type StockAccount struct {
	account *ledger.Account
	trash   []*ledger.Transaction
}

// NewStockAccount wraps a ledger account.
func NewStockAccount(a *ledger.Account) *StockAccount {
	return &StockAccount{account: a}
}

func (s *StockAccount) ID() string               { return s.account.ID() }
func (s *StockAccount) Name() string             { return s.account.Name() }
func (s *StockAccount) Account() *ledger.Account { return s.account }
func (s *StockAccount) Permanent() bool          { return s.account.Permanent() }
func (s *StockAccount) Archived() bool           { return s.account.Archived() }

// ExchangeCode returns the exchange code of the instrument, read from the
// account groups or from the account itself.
func (s *StockAccount) ExchangeCode() string {
	for _, g := range s.account.Groups() {
		if code := g.Property(string(StockExcCodeProp)); code != "" {
			return code
		}
	}
	return s.account.Property(string(StockExcCodeProp))
}

// RealizedDate is the latest date through which results are computed; the
// zero date means no results yet.
func (s *StockAccount) RealizedDate() date.Date {
	return s.dateProp(RealizedDateProp)
}

// RealizedDateValue returns the realized date as a sortable yyyymmdd value,
// 0 when unset.
func (s *StockAccount) RealizedDateValue() int { return s.RealizedDate().Value() }

func (s *StockAccount) SetRealizedDate(d date.Date) *StockAccount {
	s.account.SetProperty(string(RealizedDateProp), d.String())
	return s
}

func (s *StockAccount) DeleteRealizedDate() *StockAccount {
	s.account.DeleteProperty(string(RealizedDateProp))
	return s
}

// ForwardedDate is the opening date of the current period, zero when the
// account was never forwarded.
func (s *StockAccount) ForwardedDate() date.Date {
	return s.dateProp(ForwardedDateProp)
}

// ForwardedDateValue returns the forwarded date as a sortable yyyymmdd
// value, 0 when unset.
func (s *StockAccount) ForwardedDateValue() int { return s.ForwardedDate().Value() }

func (s *StockAccount) SetForwardedDate(d date.Date) *StockAccount {
	s.account.SetProperty(string(ForwardedDateProp), d.String())
	return s
}

func (s *StockAccount) DeleteForwardedDate() *StockAccount {
	s.account.DeleteProperty(string(ForwardedDateProp))
	return s
}

// ForwardedPrice is the opening price stamped at forward time, nil when
// unset.
func (s *StockAccount) ForwardedPrice() *ledger.Amount {
	return s.amountProp(ForwardedPriceProp)
}

func (s *StockAccount) SetForwardedPrice(a *ledger.Amount) *StockAccount {
	if a != nil {
		s.account.SetProperty(string(ForwardedPriceProp), a.String())
	}
	return s
}

func (s *StockAccount) DeleteForwardedPrice() *StockAccount {
	s.account.DeleteProperty(string(ForwardedPriceProp))
	return s
}

// ForwardedExcRate is the opening local-to-base exchange rate stamped at
// forward time, nil when unset.
func (s *StockAccount) ForwardedExcRate() *ledger.Amount {
	return s.amountProp(ForwardedExcRateProp)
}

func (s *StockAccount) SetForwardedExcRate(a *ledger.Amount) *StockAccount {
	if a != nil {
		s.account.SetProperty(string(ForwardedExcRateProp), a.String())
	}
	return s
}

func (s *StockAccount) DeleteForwardedExcRate() *StockAccount {
	s.account.DeleteProperty(string(ForwardedExcRateProp))
	return s
}

// NeedsRebuild reports whether a corrective rewrite invalidated computed
// results; while set, both calculation and forwarding are blocked.
func (s *StockAccount) NeedsRebuild() bool {
	return s.account.Property(string(NeedsRebuildProp)) == "true"
}

func (s *StockAccount) FlagNeedsRebuild() *StockAccount {
	s.account.SetProperty(string(NeedsRebuildProp), "true")
	return s
}

func (s *StockAccount) ClearNeedsRebuild() *StockAccount {
	s.account.DeleteProperty(string(NeedsRebuildProp))
	return s
}

// Update persists the staged property writes.
func (s *StockAccount) Update() *StockAccount {
	s.account.Update()
	return s
}

// PushTrash stages a transaction for deferred deletion.
func (s *StockAccount) PushTrash(tx *ledger.Transaction) {
	s.trash = append(s.trash, tx)
}

// CleanTrash deletes every staged transaction in one flush. Deletion is
// deferred to a single final step so a partial failure never double-deletes.
func (s *StockAccount) CleanTrash() {
	for _, tx := range s.trash {
		if tx.Checked() {
			tx.Uncheck()
		}
		tx.Trash()
	}
	s.trash = nil
}

func (s *StockAccount) dateProp(key Prop) date.Date {
	v := s.account.Property(string(key))
	if v == "" {
		return date.Date{}
	}
	d, err := date.Parse(v)
	if err != nil {
		return date.Date{}
	}
	return d
}

func (s *StockAccount) amountProp(key Prop) *ledger.Amount {
	v := s.account.Property(string(key))
	if v == "" {
		return nil
	}
	a, err := ledger.ParseAmount(v)
	if err != nil {
		return nil
	}
	return &a
}
