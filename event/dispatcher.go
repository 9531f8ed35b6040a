package event

import (
	"fmt"
	"log"

	"github.com/etnz/stockbot"
)

// AgentID identifies postings created by this bot, so its own events are not
// reprocessed.
const AgentID = "stock-bot"

// exchangeBotAgentID is the currency-mirroring bot whose postings carry the
// exchange rates; its events never describe trades.
const exchangeBotAgentID = "exchange-bot"

// Result is the outcome of one handled event. Validation problems embed in
// Error; Result carries the human-readable records of what was posted.
type Result struct {
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func falseResult() *Result { return &Result{Result: false} }

// Dispatcher routes events to their handlers.
type Dispatcher struct {
	bot *stockbot.Bot
}

// NewDispatcher creates a dispatcher over the bot.
func NewDispatcher(bot *stockbot.Bot) *Dispatcher {
	return &Dispatcher{bot: bot}
}

// Handle processes one event. Platform failures return an error; validation
// problems return a Result with Error set.
func (d *Dispatcher) Handle(e *Event) (*Result, error) {
	book, err := d.bot.Book(e.BookID)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", e.Type, err)
	}

	switch e.Type {
	case TransactionPosted:
		return d.interceptOrder(book, e)
	case TransactionRestored:
		return d.handleTransactionRestored(book, e)
	case TransactionChecked:
		return d.handleTransactionChecked(book, e)
	case TransactionUnchecked:
		return d.handleTransactionUnchecked(book, e)
	case TransactionUpdated:
		return d.handleTransactionUpdated(book, e)
	case TransactionDeleted:
		return d.handleTransactionDeleted(book, e)
	case AccountCreated, AccountUpdated:
		return d.handleAccountCreatedOrUpdated(book, e)
	case AccountDeleted:
		return d.handleAccountDeleted(book, e)
	case GroupCreated, GroupUpdated:
		return d.handleGroupCreatedOrUpdated(book, e)
	case GroupDeleted:
		return d.handleGroupDeleted(book, e)
	case BookUpdated:
		return falseResult(), nil
	default:
		log.Printf("unhandled event type: %s", e.Type)
		return falseResult(), nil
	}
}
