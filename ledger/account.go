package ledger

// AccountType classifies an account for balance and permanence rules.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Incoming  AccountType = "INCOMING"
	Outgoing  AccountType = "OUTGOING"
)

// Account is a named account in a book.
type Account struct {
	book       *Book
	id         string
	name       string
	typ        AccountType
	archived   bool
	properties map[string]string
	groups     []*Group
}

// NewAccount builds a detached account; call Create to attach it to the book.
func (b *Book) NewAccount(name string, typ AccountType) *Account {
	return &Account{
		book:       b,
		name:       name,
		typ:        typ,
		properties: make(map[string]string),
	}
}

// Create attaches the account to its book and assigns its id.
func (a *Account) Create() *Account {
	a.id = a.book.newID()
	a.book.accounts = append(a.book.accounts, a)
	return a
}

// Account returns the account with the given id or name, or nil.
func (b *Book) Account(idOrName string) *Account {
	for _, a := range b.accounts {
		if a.id == idOrName {
			return a
		}
	}
	for _, a := range b.accounts {
		if a.name == idOrName {
			return a
		}
	}
	return nil
}

// Accounts returns the accounts of the book in insertion order.
func (b *Book) Accounts() []*Account { return b.accounts }

func (a *Account) ID() string        { return a.id }
func (a *Account) Name() string      { return a.name }
func (a *Account) Type() AccountType { return a.typ }
func (a *Account) Book() *Book       { return a.book }

// Permanent reports whether the account is a balance-sheet account
// (asset or liability), carrying its balance across periods.
func (a *Account) Permanent() bool { return a.typ == Asset || a.typ == Liability }

func (a *Account) Archived() bool { return a.archived }

func (a *Account) SetArchived(archived bool) *Account {
	a.archived = archived
	return a
}

func (a *Account) SetName(name string) *Account {
	a.name = name
	return a
}

func (a *Account) SetType(typ AccountType) *Account {
	a.typ = typ
	return a
}

// Property returns the first non-empty property among the given keys.
func (a *Account) Property(keys ...string) string {
	for _, k := range keys {
		if v := a.properties[k]; v != "" {
			return v
		}
	}
	return ""
}

// Properties returns a copy of the account properties.
func (a *Account) Properties() map[string]string {
	out := make(map[string]string, len(a.properties))
	for k, v := range a.properties {
		out[k] = v
	}
	return out
}

// SetProperty sets a property; an empty value is ignored.
func (a *Account) SetProperty(key, value string) *Account {
	if value == "" {
		return a
	}
	a.properties[key] = value
	return a
}

func (a *Account) DeleteProperty(key string) *Account {
	delete(a.properties, key)
	return a
}

func (a *Account) Groups() []*Group { return a.groups }

func (a *Account) AddGroup(g *Group) *Account {
	for _, existing := range a.groups {
		if existing == g {
			return a
		}
	}
	a.groups = append(a.groups, g)
	return a
}

// InGroup reports whether the account belongs to the given group.
func (a *Account) InGroup(g *Group) bool {
	for _, existing := range a.groups {
		if existing == g {
			return true
		}
	}
	return false
}

// Update persists pending account mutations (no-op in memory, kept for
// call-site parity with a remote backend).
func (a *Account) Update() *Account { return a }
