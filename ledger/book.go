// Package ledger is the access facade to a collection of double-entry books:
// accounts, groups, transactions, query-string searches and balance reports.
// It is backed by a deterministic in-memory engine so that the bookkeeping
// engines and their tests run against the exact API they consume in
// production.
package ledger

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/etnz/stockbot/date"
	"github.com/oklog/ulid/v2"
)

// Permission is the level of access the current user has on a book.
type Permission string

const (
	PermissionOwner  Permission = "OWNER"
	PermissionEditor Permission = "EDITOR"
	PermissionViewer Permission = "VIEWER"
)

// Collection is a set of connected books sharing accounts by name.
type Collection struct {
	books []*Book
}

// NewCollection creates an empty collection.
func NewCollection() *Collection { return &Collection{} }

// Books returns the books of the collection in insertion order.
func (c *Collection) Books() []*Book { return c.books }

// Add attaches a book to the collection.
func (c *Collection) Add(b *Book) *Collection {
	b.collection = c
	c.books = append(c.books, b)
	return c
}

// Book is a double-entry ledger book.
type Book struct {
	id             string
	name           string
	currency       string
	fractionDigits int
	permission     Permission
	closingDate    date.Date
	lockDate       date.Date
	properties     map[string]string

	collection *Collection

	accounts     []*Account
	groups       []*Group
	transactions []*Transaction

	clock   func() time.Time
	entropy *ulid.MonotonicEntropy

	// mu guards id minting and the transaction log: event handlers post
	// concurrently.
	mu sync.Mutex
}

// NewBook creates a book for the given currency code. Fraction digits
// default to the currency's (per ISO 4217), or 2 when the code is unknown.
func NewBook(name, currencyCode string) *Book {
	digits := 2
	if cur := money.GetCurrency(currencyCode); cur != nil {
		digits = cur.Fraction
	}
	b := &Book{
		name:           name,
		currency:       currencyCode,
		fractionDigits: digits,
		permission:     PermissionOwner,
		properties:     make(map[string]string),
		clock:          time.Now,
	}
	b.entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	b.id = b.newID()
	return b
}

// newID mints a sortable unique id.
func (b *Book) newID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(b.clock()), b.entropy).String()
}

// SetClock overrides the book clock, mostly for deterministic tests.
func (b *Book) SetClock(fn func() time.Time) *Book {
	b.clock = fn
	return b
}

func (b *Book) ID() string             { return b.id }
func (b *Book) Name() string           { return b.name }
func (b *Book) Currency() string       { return b.currency }
func (b *Book) FractionDigits() int    { return b.fractionDigits }
func (b *Book) Permission() Permission { return b.permission }
func (b *Book) Collection() *Collection {
	return b.collection
}

// SetFractionDigits overrides the book precision (a stock book tracks share
// quantities with zero fraction digits).
func (b *Book) SetFractionDigits(digits int) *Book {
	b.fractionDigits = digits
	return b
}

func (b *Book) SetPermission(p Permission) *Book {
	b.permission = p
	return b
}

// Property returns the first non-empty property among the given keys.
func (b *Book) Property(keys ...string) string {
	for _, k := range keys {
		if v := b.properties[k]; v != "" {
			return v
		}
	}
	return ""
}

func (b *Book) SetProperty(key, value string) *Book {
	if value == "" {
		return b
	}
	b.properties[key] = value
	return b
}

// ClosingDate returns the period-closing date of the book, zero when open.
func (b *Book) ClosingDate() date.Date { return b.closingDate }

func (b *Book) SetClosingDate(d date.Date) *Book {
	b.closingDate = d
	return b
}

// LockDate returns the edition lock date of the book, zero when unlocked.
func (b *Book) LockDate() date.Date { return b.lockDate }

func (b *Book) SetLockDate(d date.Date) *Book {
	b.lockDate = d
	return b
}

// Update persists pending book mutations. The in-memory engine mutates in
// place so this is a no-op kept for call-site parity with a remote backend.
func (b *Book) Update() *Book { return b }

// ParseValue parses an amount using the book locale rules.
func (b *Book) ParseValue(s string) (Amount, error) { return ParseAmount(s) }

// FormatValue formats an amount with the book currency and precision.
func (b *Book) FormatValue(a Amount) string {
	cur := money.GetCurrency(b.currency)
	if cur == nil {
		return a.Fixed(b.fractionDigits)
	}
	shifted := a.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(shifted.IntPart())
}

// FormatDate formats a date the way the book renders it in queries.
func (b *Book) FormatDate(d date.Date) string { return d.String() }

// Transaction returns the transaction with the given id, or nil, searching
// trashed transactions too.
func (b *Book) Transaction(id string) *Transaction {
	for _, tx := range b.transactions {
		if tx.id == id {
			return tx
		}
	}
	return nil
}

// Transactions returns the posted transactions matching the query, in
// insertion order. See parseQuery for the grammar.
func (b *Book) Transactions(query string) ([]*Transaction, error) {
	q, err := parseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", b.name, err)
	}
	var out []*Transaction
	for _, tx := range b.transactions {
		if q.matches(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// BatchCheck checks all given transactions in a single call.
func (b *Book) BatchCheck(txs []*Transaction) {
	for _, tx := range txs {
		tx.checked = true
	}
}
