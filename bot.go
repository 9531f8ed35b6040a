// Package stockbot automates stock bookkeeping on a collection of
// double-entry books: it matches purchase and sale lots under FIFO,
// records realized and foreign-exchange gains, and rolls cost basis
// forward when closing accounting periods.
package stockbot

import (
	"fmt"
	"time"

	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

// Bot runs the bookkeeping engines against a collection of books.
//
// Invocations are sequential: the bot does not serialize concurrent calls
// on the same account, it relies on the caller for that and on remote-id
// tagging to keep accidental reprocessing convergent.
type Bot struct {
	collection *ledger.Collection

	// closeDelay is applied before writing a book closing date, for
	// backends where transaction checks confirm asynchronously. The
	// in-memory ledger confirms synchronously so it defaults to zero.
	closeDelay time.Duration
	sleep      func(time.Duration)
}

// NewBot creates a bot over a collection of books.
func NewBot(c *ledger.Collection) *Bot {
	return &Bot{collection: c, sleep: time.Sleep}
}

// SetCloseDelay sets the delay applied before closing a book.
func (b *Bot) SetCloseDelay(d time.Duration) *Bot {
	b.closeDelay = d
	return b
}

// Collection returns the collection the bot operates on.
func (b *Bot) Collection() *ledger.Collection { return b.collection }

// Book returns the collection book with the given id or name.
func (b *Bot) Book(idOrName string) (*ledger.Book, error) {
	for _, book := range b.collection.Books() {
		if book.ID() == idOrName {
			return book, nil
		}
	}
	for _, book := range b.collection.Books() {
		if book.Name() == idOrName {
			return book, nil
		}
	}
	return nil, fmt.Errorf("book %s: not found", idOrName)
}

// stockAccount resolves a stock book and one of its permanent accounts.
func (b *Bot) stockAccount(stockBookID, stockAccountID string) (*ledger.Book, *StockAccount, error) {
	stockBook, err := b.Book(stockBookID)
	if err != nil {
		return nil, nil, err
	}
	account := stockBook.Account(stockAccountID)
	if account == nil {
		return nil, nil, fmt.Errorf("book %s: account %s: not found", stockBookID, stockAccountID)
	}
	return stockBook, NewStockAccount(account), nil
}

// IsAccountUncalculated reports whether the account has unmatched lot
// activity before the given forward date.
func (b *Bot) IsAccountUncalculated(stockBookID, stockAccountID string, forwardDate date.Date) (bool, error) {
	stockBook, stockAccount, err := b.stockAccount(stockBookID, stockAccountID)
	if err != nil {
		return false, err
	}
	return IsAccountUncalculated(stockBook, stockAccount.Account(), forwardDate)
}
