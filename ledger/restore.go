package ledger

import (
	"fmt"
	"time"

	"github.com/etnz/stockbot/date"
)

// State snapshots used by storage backends to persist and reload books
// without re-minting identities. Ids are preserved so cross-references held
// in properties (parent ids, forward-log chains, remote ids) survive a
// round trip.

// BookState is the persistent identity and settings of a book.
type BookState struct {
	ID             string
	Name           string
	Currency       string
	FractionDigits int
	Permission     Permission
	ClosingDate    date.Date
	LockDate       date.Date
	Properties     map[string]string
}

// AccountState is the persistent state of an account. Groups holds group
// names; groups must be restored before accounts.
type AccountState struct {
	ID         string
	Name       string
	Type       AccountType
	Archived   bool
	Properties map[string]string
	Groups     []string
}

// GroupState is the persistent state of a group.
type GroupState struct {
	ID         string
	Name       string
	Hidden     bool
	Properties map[string]string
}

// TransactionState is the persistent state of a transaction. Accounts are
// referenced by name; accounts must be restored first.
type TransactionState struct {
	ID            string
	Date          date.Date
	Amount        Amount
	CreditAccount string
	DebitAccount  string
	Description   string
	Properties    map[string]string
	RemoteIDs     []string
	Posted        bool
	Checked       bool
	Trashed       bool
	CreatedAt     time.Time
}

// State snapshots the book settings.
func (b *Book) State() BookState {
	props := make(map[string]string, len(b.properties))
	for k, v := range b.properties {
		props[k] = v
	}
	return BookState{
		ID:             b.id,
		Name:           b.name,
		Currency:       b.currency,
		FractionDigits: b.fractionDigits,
		Permission:     b.permission,
		ClosingDate:    b.closingDate,
		LockDate:       b.lockDate,
		Properties:     props,
	}
}

// State snapshots the account.
func (a *Account) State() AccountState {
	groups := make([]string, 0, len(a.groups))
	for _, g := range a.groups {
		groups = append(groups, g.name)
	}
	return AccountState{
		ID:         a.id,
		Name:       a.name,
		Type:       a.typ,
		Archived:   a.archived,
		Properties: a.Properties(),
		Groups:     groups,
	}
}

// State snapshots the group.
func (g *Group) State() GroupState {
	props := make(map[string]string, len(g.properties))
	for k, v := range g.properties {
		props[k] = v
	}
	return GroupState{ID: g.id, Name: g.name, Hidden: g.hidden, Properties: props}
}

// State snapshots the transaction.
func (t *Transaction) State() TransactionState {
	var credit, debit string
	if t.credit != nil {
		credit = t.credit.name
	}
	if t.debit != nil {
		debit = t.debit.name
	}
	return TransactionState{
		ID:            t.id,
		Date:          t.dt,
		Amount:        t.amount,
		CreditAccount: credit,
		DebitAccount:  debit,
		Description:   t.description,
		Properties:    t.Properties(),
		RemoteIDs:     append([]string(nil), t.remoteIDs...),
		Posted:        t.posted,
		Checked:       t.checked,
		Trashed:       t.trashed,
		CreatedAt:     t.createdAt,
	}
}

// TransactionStates snapshots the full transaction log in insertion order,
// trashed transactions included.
func (b *Book) TransactionStates() []TransactionState {
	out := make([]TransactionState, 0, len(b.transactions))
	for _, t := range b.transactions {
		out = append(out, t.State())
	}
	return out
}

// RestoreBook recreates a persisted book inside the collection.
func (c *Collection) RestoreBook(s BookState) *Book {
	b := NewBook(s.Name, s.Currency)
	b.id = s.ID
	b.fractionDigits = s.FractionDigits
	b.permission = s.Permission
	b.closingDate = s.ClosingDate
	b.lockDate = s.LockDate
	for k, v := range s.Properties {
		b.properties[k] = v
	}
	c.Add(b)
	return b
}

// RestoreGroup recreates a persisted group.
func (b *Book) RestoreGroup(s GroupState) *Group {
	g := b.NewGroup(s.Name).SetHidden(s.Hidden)
	g.id = s.ID
	for k, v := range s.Properties {
		g.properties[k] = v
	}
	b.groups = append(b.groups, g)
	return g
}

// RestoreAccount recreates a persisted account. Groups are resolved by name
// and must already be restored.
func (b *Book) RestoreAccount(s AccountState) (*Account, error) {
	a := b.NewAccount(s.Name, s.Type).SetArchived(s.Archived)
	a.id = s.ID
	for k, v := range s.Properties {
		a.properties[k] = v
	}
	for _, name := range s.Groups {
		g := b.Group(name)
		if g == nil {
			return nil, fmt.Errorf("account %s: unknown group %q", s.Name, name)
		}
		a.AddGroup(g)
	}
	b.accounts = append(b.accounts, a)
	return a, nil
}

// RestoreTransaction recreates a persisted transaction. Accounts are
// resolved by name and must already be restored.
func (b *Book) RestoreTransaction(s TransactionState) (*Transaction, error) {
	t := b.NewTransaction().
		SetDate(s.Date).
		SetAmount(s.Amount).
		SetDescription(s.Description)
	if s.CreditAccount != "" {
		credit := b.Account(s.CreditAccount)
		if credit == nil {
			return nil, fmt.Errorf("transaction %s: unknown account %q", s.ID, s.CreditAccount)
		}
		t.From(credit)
	}
	if s.DebitAccount != "" {
		debit := b.Account(s.DebitAccount)
		if debit == nil {
			return nil, fmt.Errorf("transaction %s: unknown account %q", s.ID, s.DebitAccount)
		}
		t.To(debit)
	}
	for k, v := range s.Properties {
		t.properties[k] = v
	}
	t.id = s.ID
	t.remoteIDs = append([]string(nil), s.RemoteIDs...)
	t.posted = s.Posted
	t.checked = s.Checked
	t.trashed = s.Trashed
	t.createdAt = s.CreatedAt
	if s.Posted {
		b.mu.Lock()
		b.transactions = append(b.transactions, t)
		b.mu.Unlock()
	}
	return t, nil
}
