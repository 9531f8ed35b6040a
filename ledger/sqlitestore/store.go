// Package sqlitestore persists a ledger collection in a single SQLite file,
// so the bot state survives between CLI runs.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/etnz/stockbot/date"
	"github.com/etnz/stockbot/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY,
	seq INTEGER,
	name TEXT NOT NULL,
	currency TEXT NOT NULL,
	fraction_digits INTEGER NOT NULL,
	permission TEXT NOT NULL,
	closing_date TEXT,
	lock_date TEXT,
	properties TEXT
);
CREATE TABLE IF NOT EXISTS groups (
	id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL REFERENCES books(id),
	seq INTEGER,
	name TEXT NOT NULL,
	hidden INTEGER NOT NULL,
	properties TEXT
);
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL REFERENCES books(id),
	seq INTEGER,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	archived INTEGER NOT NULL,
	properties TEXT,
	groups TEXT
);
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL REFERENCES books(id),
	seq INTEGER,
	date TEXT,
	amount TEXT NOT NULL,
	credit_account TEXT,
	debit_account TEXT,
	description TEXT,
	properties TEXT,
	remote_ids TEXT,
	posted INTEGER NOT NULL,
	checked INTEGER NOT NULL,
	trashed INTEGER NOT NULL,
	created_at TEXT
);
`

// Store is a SQLite-backed snapshot of a ledger collection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save replaces the stored snapshot with the given collection.
func (s *Store) Save(c *ledger.Collection) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"transactions", "accounts", "groups", "books"} {
		if _, err = tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	for seq, book := range c.Books() {
		if err = saveBook(tx, seq, book); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func saveBook(tx *sql.Tx, seq int, book *ledger.Book) error {
	b := book.State()
	props, err := json.Marshal(b.Properties)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO books
		(id, seq, name, currency, fraction_digits, permission, closing_date, lock_date, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, seq, b.Name, b.Currency, b.FractionDigits, string(b.Permission),
		dateString(b.ClosingDate), dateString(b.LockDate), string(props),
	)
	if err != nil {
		return fmt.Errorf("saving book %s: %w", b.Name, err)
	}

	for i, group := range book.Groups() {
		g := group.State()
		props, err := json.Marshal(g.Properties)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO groups (id, book_id, seq, name, hidden, properties)
			VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, b.ID, i, g.Name, g.Hidden, string(props),
		)
		if err != nil {
			return fmt.Errorf("saving group %s: %w", g.Name, err)
		}
	}

	for i, account := range book.Accounts() {
		a := account.State()
		props, err := json.Marshal(a.Properties)
		if err != nil {
			return err
		}
		groups, err := json.Marshal(a.Groups)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO accounts (id, book_id, seq, name, type, archived, properties, groups)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, b.ID, i, a.Name, string(a.Type), a.Archived, string(props), string(groups),
		)
		if err != nil {
			return fmt.Errorf("saving account %s: %w", a.Name, err)
		}
	}

	for i, t := range book.TransactionStates() {
		props, err := json.Marshal(t.Properties)
		if err != nil {
			return err
		}
		remoteIDs, err := json.Marshal(t.RemoteIDs)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO transactions
			(id, book_id, seq, date, amount, credit_account, debit_account, description,
			 properties, remote_ids, posted, checked, trashed, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, b.ID, i, dateString(t.Date), t.Amount.String(), t.CreditAccount,
			t.DebitAccount, t.Description, string(props), string(remoteIDs),
			t.Posted, t.Checked, t.Trashed, t.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("saving transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

// Load rebuilds the collection from the stored snapshot.
func (s *Store) Load() (*ledger.Collection, error) {
	c := ledger.NewCollection()

	rows, err := s.db.Query(`
		SELECT id, name, currency, fraction_digits, permission, closing_date, lock_date, properties
		FROM books ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []ledger.BookState
	for rows.Next() {
		var b ledger.BookState
		var permission, closing, lock, props string
		if err := rows.Scan(&b.ID, &b.Name, &b.Currency, &b.FractionDigits, &permission, &closing, &lock, &props); err != nil {
			return nil, err
		}
		b.Permission = ledger.Permission(permission)
		if b.ClosingDate, err = parseDate(closing); err != nil {
			return nil, err
		}
		if b.LockDate, err = parseDate(lock); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(props), &b.Properties); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range books {
		book := c.RestoreBook(b)
		if err := s.loadGroups(book, b.ID); err != nil {
			return nil, err
		}
		if err := s.loadAccounts(book, b.ID); err != nil {
			return nil, err
		}
		if err := s.loadTransactions(book, b.ID); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *Store) loadGroups(book *ledger.Book, bookID string) error {
	rows, err := s.db.Query(`SELECT id, name, hidden, properties FROM groups WHERE book_id = ? ORDER BY seq`, bookID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var g ledger.GroupState
		var props string
		if err := rows.Scan(&g.ID, &g.Name, &g.Hidden, &props); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(props), &g.Properties); err != nil {
			return err
		}
		book.RestoreGroup(g)
	}
	return rows.Err()
}

func (s *Store) loadAccounts(book *ledger.Book, bookID string) error {
	rows, err := s.db.Query(`SELECT id, name, type, archived, properties, groups FROM accounts WHERE book_id = ? ORDER BY seq`, bookID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a ledger.AccountState
		var typ, props, groups string
		if err := rows.Scan(&a.ID, &a.Name, &typ, &a.Archived, &props, &groups); err != nil {
			return err
		}
		a.Type = ledger.AccountType(typ)
		if err := json.Unmarshal([]byte(props), &a.Properties); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(groups), &a.Groups); err != nil {
			return err
		}
		if _, err := book.RestoreAccount(a); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) loadTransactions(book *ledger.Book, bookID string) error {
	rows, err := s.db.Query(`
		SELECT id, date, amount, credit_account, debit_account, description,
		       properties, remote_ids, posted, checked, trashed, created_at
		FROM transactions WHERE book_id = ? ORDER BY seq`, bookID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t ledger.TransactionState
		var dt, amount, props, remoteIDs, createdAt string
		if err := rows.Scan(&t.ID, &dt, &amount, &t.CreditAccount, &t.DebitAccount, &t.Description,
			&props, &remoteIDs, &t.Posted, &t.Checked, &t.Trashed, &createdAt); err != nil {
			return err
		}
		if t.Date, err = parseDate(dt); err != nil {
			return err
		}
		if t.Amount, err = ledger.ParseAmount(amount); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(props), &t.Properties); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(remoteIDs), &t.RemoteIDs); err != nil {
			return err
		}
		if createdAt != "" {
			if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
				return err
			}
		}
		if _, err := book.RestoreTransaction(t); err != nil {
			return err
		}
	}
	return rows.Err()
}

func dateString(d date.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDate(s string) (date.Date, error) {
	if s == "" {
		return date.Date{}, nil
	}
	return date.Parse(s)
}
