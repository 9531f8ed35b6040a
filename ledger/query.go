package ledger

import (
	"fmt"
	"strings"

	"github.com/etnz/stockbot/date"
)

// query is the parsed form of a transaction search string.
//
// Grammar (terms are conjunctive, order irrelevant):
//
//	account:'NAME'  after:DATE  before:DATE  on:DATE
//	is:unchecked|checked|trashed  remoteId:ID
//
// after is an inclusive lower bound, before an exclusive upper bound;
// dates are ISO-8601.
type query struct {
	account  string
	after    date.Date
	before   date.Date
	on       date.Date
	checked  *bool
	trashed  bool
	remoteID string
}

func parseQuery(s string) (query, error) {
	var q query
	for _, term := range splitTerms(s) {
		key, value, found := strings.Cut(term, ":")
		if !found {
			return q, fmt.Errorf("invalid query term %q", term)
		}
		value = strings.Trim(value, `'"`)
		switch key {
		case "account":
			q.account = value
		case "after":
			d, err := date.Parse(value)
			if err != nil {
				return q, fmt.Errorf("invalid query term %q: %w", term, err)
			}
			q.after = d
		case "before":
			d, err := date.Parse(value)
			if err != nil {
				return q, fmt.Errorf("invalid query term %q: %w", term, err)
			}
			q.before = d
		case "on":
			d, err := date.Parse(value)
			if err != nil {
				return q, fmt.Errorf("invalid query term %q: %w", term, err)
			}
			q.on = d
		case "is":
			switch value {
			case "checked":
				v := true
				q.checked = &v
			case "unchecked":
				v := false
				q.checked = &v
			case "trashed":
				q.trashed = true
			default:
				return q, fmt.Errorf("invalid query term %q", term)
			}
		case "remoteId":
			q.remoteID = value
		default:
			return q, fmt.Errorf("unknown query key %q", key)
		}
	}
	return q, nil
}

// splitTerms splits a query on spaces, keeping quoted values together.
func splitTerms(s string) []string {
	var terms []string
	var sb strings.Builder
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			sb.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			sb.WriteRune(r)
		case r == ' ':
			if sb.Len() > 0 {
				terms = append(terms, sb.String())
				sb.Reset()
			}
		default:
			sb.WriteRune(r)
		}
	}
	if sb.Len() > 0 {
		terms = append(terms, sb.String())
	}
	return terms
}

func (q query) matches(tx *Transaction) bool {
	if !tx.posted {
		return false
	}
	if tx.trashed != q.trashed {
		return false
	}
	if q.account != "" {
		creditMatch := tx.credit != nil && tx.credit.name == q.account
		debitMatch := tx.debit != nil && tx.debit.name == q.account
		if !creditMatch && !debitMatch {
			return false
		}
	}
	if !q.after.IsZero() && tx.DateValue() < q.after.Value() {
		return false
	}
	if !q.before.IsZero() && tx.DateValue() >= q.before.Value() {
		return false
	}
	if !q.on.IsZero() && tx.DateValue() != q.on.Value() {
		return false
	}
	if q.checked != nil && tx.checked != *q.checked {
		return false
	}
	if q.remoteID != "" && !tx.HasRemoteID(q.remoteID) {
		return false
	}
	return true
}
