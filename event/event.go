// Package event routes ledger webhook payloads to the bot operations that
// keep the stock books consistent: trade splitting on post, rebuild flagging
// on uncheck, cascade deletion of derived postings, and account/group
// mirroring between connected books.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
)

// Type identifies a ledger event.
type Type string

const (
	TransactionPosted    Type = "TRANSACTION_POSTED"
	TransactionChecked   Type = "TRANSACTION_CHECKED"
	TransactionUnchecked Type = "TRANSACTION_UNCHECKED"
	TransactionUpdated   Type = "TRANSACTION_UPDATED"
	TransactionDeleted   Type = "TRANSACTION_DELETED"
	TransactionRestored  Type = "TRANSACTION_RESTORED"
	AccountCreated       Type = "ACCOUNT_CREATED"
	AccountUpdated       Type = "ACCOUNT_UPDATED"
	AccountDeleted       Type = "ACCOUNT_DELETED"
	GroupCreated         Type = "GROUP_CREATED"
	GroupUpdated         Type = "GROUP_UPDATED"
	GroupDeleted         Type = "GROUP_DELETED"
	BookUpdated          Type = "BOOK_UPDATED"
)

// Event is one ledger webhook payload.
type Event struct {
	Type   Type            `json:"type"`
	BookID string          `json:"bookId"`
	Agent  Agent           `json:"agent"`
	Data   json.RawMessage `json:"data"`
}

// Agent identifies the bot or user that triggered the event.
type Agent struct {
	ID string `json:"id"`
}

// TransactionPayload is the transaction carried by a transaction event.
type TransactionPayload struct {
	ID            string            `json:"id"`
	Posted        bool              `json:"posted"`
	Amount        string            `json:"amount"`
	Date          string            `json:"date"`
	Description   string            `json:"description"`
	Properties    map[string]string `json:"properties"`
	CreditAccount *AccountPayload   `json:"creditAccount"`
	DebitAccount  *AccountPayload   `json:"debitAccount"`
}

// Property returns a transaction property, empty when absent.
func (t *TransactionPayload) Property(key string) string {
	if t.Properties == nil {
		return ""
	}
	return t.Properties[key]
}

// AccountPayload is the account carried by an account event or embedded in a
// transaction payload.
type AccountPayload struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Archived   bool              `json:"archived"`
	Properties map[string]string `json:"properties"`
}

// Property returns an account property, empty when absent.
func (a *AccountPayload) Property(key string) string {
	if a == nil || a.Properties == nil {
		return ""
	}
	return a.Properties[key]
}

// GroupPayload is the group carried by a group event.
type GroupPayload struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Hidden     bool              `json:"hidden"`
	Properties map[string]string `json:"properties"`
}

// Parse decodes a raw webhook body.
func Parse(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("parsing event: %w", err)
	}
	if e.Type == "" {
		return nil, fmt.Errorf("parsing event: missing type")
	}
	return &e, nil
}

// Transaction extracts the transaction payload of a transaction event.
func (e *Event) Transaction() (*TransactionPayload, error) {
	var payload TransactionPayload
	if err := e.object("$.object.transaction", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Account extracts the account payload of an account event.
func (e *Event) Account() (*AccountPayload, error) {
	var payload AccountPayload
	if err := e.object("$.object", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Group extracts the group payload of a group event.
func (e *Event) Group() (*GroupPayload, error) {
	var payload GroupPayload
	if err := e.object("$.object", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// object resolves a path inside the event data and decodes the node into
// out. Payloads arrive with bot-specific envelopes around the object, so
// navigation is by path rather than by a fixed struct.
func (e *Event) object(path string, out any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s: empty data", e.Type)
	}
	var doc any
	if err := json.Unmarshal(e.Data, &doc); err != nil {
		return fmt.Errorf("event %s: %w", e.Type, err)
	}
	node, err := jsonpath.Get(path, doc)
	if err != nil {
		return fmt.Errorf("event %s: %s: %w", e.Type, path, err)
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("event %s: %s: %w", e.Type, path, err)
	}
	return nil
}
