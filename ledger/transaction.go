package ledger

import (
	"time"

	"github.com/etnz/stockbot/date"
)

// Transaction is a double-entry transaction between a credit and a debit
// account. A posted transaction stays editable until it is checked.
type Transaction struct {
	book        *Book
	id          string
	dt          date.Date
	amount      Amount
	credit      *Account
	debit       *Account
	description string
	properties  map[string]string
	remoteIDs   []string
	posted      bool
	checked     bool
	trashed     bool
	createdAt   time.Time
}

// NewTransaction builds a detached transaction; call Post or Create to
// record it in the book.
func (b *Book) NewTransaction() *Transaction {
	return &Transaction{
		book:       b,
		properties: make(map[string]string),
	}
}

func (t *Transaction) ID() string            { return t.id }
func (t *Transaction) Book() *Book           { return t.book }
func (t *Transaction) Date() date.Date       { return t.dt }
func (t *Transaction) DateValue() int        { return t.dt.Value() }
func (t *Transaction) Amount() Amount        { return t.amount }
func (t *Transaction) CreditAccount() *Account { return t.credit }
func (t *Transaction) DebitAccount() *Account  { return t.debit }
func (t *Transaction) Description() string   { return t.description }
func (t *Transaction) Posted() bool          { return t.posted }
func (t *Transaction) Checked() bool         { return t.checked }
func (t *Transaction) Trashed() bool         { return t.trashed }
func (t *Transaction) CreatedAt() time.Time  { return t.createdAt }
func (t *Transaction) RemoteIDs() []string   { return t.remoteIDs }

func (t *Transaction) SetDate(d date.Date) *Transaction {
	t.dt = d
	return t
}

func (t *Transaction) SetAmount(a Amount) *Transaction {
	t.amount = a
	return t
}

// From sets the credit account.
func (t *Transaction) From(a *Account) *Transaction {
	t.credit = a
	return t
}

// To sets the debit account.
func (t *Transaction) To(a *Account) *Transaction {
	t.debit = a
	return t
}

func (t *Transaction) SetDescription(d string) *Transaction {
	t.description = d
	return t
}

// Property returns the first non-empty property among the given keys.
func (t *Transaction) Property(keys ...string) string {
	for _, k := range keys {
		if v := t.properties[k]; v != "" {
			return v
		}
	}
	return ""
}

// Properties returns a copy of the transaction properties.
func (t *Transaction) Properties() map[string]string {
	out := make(map[string]string, len(t.properties))
	for k, v := range t.properties {
		out[k] = v
	}
	return out
}

// SetProperty sets a property; an empty value is ignored so optional
// attributes can be stamped unconditionally.
func (t *Transaction) SetProperty(key, value string) *Transaction {
	if value == "" {
		return t
	}
	t.properties[key] = value
	return t
}

// SetProperties replaces all transaction properties.
func (t *Transaction) SetProperties(props map[string]string) *Transaction {
	t.properties = make(map[string]string, len(props))
	for k, v := range props {
		t.properties[k] = v
	}
	return t
}

func (t *Transaction) DeleteProperty(key string) *Transaction {
	delete(t.properties, key)
	return t
}

// AddRemoteID links the transaction to an originating remote transaction.
func (t *Transaction) AddRemoteID(id string) *Transaction {
	if id == "" {
		return t
	}
	t.remoteIDs = append(t.remoteIDs, id)
	return t
}

// HasRemoteID reports whether the transaction carries the given remote id.
func (t *Transaction) HasRemoteID(id string) bool {
	for _, r := range t.remoteIDs {
		if r == id {
			return true
		}
	}
	return false
}

// SetChecked presets the checked flag for Create.
func (t *Transaction) SetChecked(checked bool) *Transaction {
	t.checked = checked
	return t
}

// Post records the transaction in the book.
func (t *Transaction) Post() *Transaction {
	if t.posted {
		return t
	}
	t.id = t.book.newID()
	t.createdAt = t.book.clock()
	t.posted = true
	t.book.mu.Lock()
	t.book.transactions = append(t.book.transactions, t)
	t.book.mu.Unlock()
	return t
}

// Create posts the transaction honoring a preset checked flag.
func (t *Transaction) Create() *Transaction { return t.Post() }

// Check marks the transaction as fully matched/closed.
func (t *Transaction) Check() *Transaction {
	t.checked = true
	return t
}

// Uncheck reopens the transaction.
func (t *Transaction) Uncheck() *Transaction {
	t.checked = false
	return t
}

// Update persists pending mutations (no-op in memory, kept for call-site
// parity with a remote backend).
func (t *Transaction) Update() *Transaction { return t }

// Trash soft-deletes the transaction: it stops matching queries except
// is:trashed but remains reachable by id.
func (t *Transaction) Trash() *Transaction {
	t.trashed = true
	return t
}

// Untrash restores a trashed transaction.
func (t *Transaction) Untrash() *Transaction {
	t.trashed = false
	return t
}
