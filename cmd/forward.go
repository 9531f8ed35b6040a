package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/stockbot/date"
)

// forwardCmd holds the flags for the 'forward' subcommand.
type forwardCmd struct {
	book    string
	account string
	date    string
}

func (*forwardCmd) Name() string     { return "forward" }
func (*forwardCmd) Synopsis() string { return "move the open lots of an account to a new opening date" }
func (*forwardCmd) Usage() string {
	return `sbot forward -book <id> -account <id> -date <date>

  Closes the period the day before the given date: open lots are rewritten
  to the new date with their historical state logged, a liquidation entry
  balances the logs, and the unrealized gap moves to the Forwarded account.
`
}

func (c *forwardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.book, "book", "", "Stock book id or name")
	f.StringVar(&c.account, "account", "", "Stock account id or name")
	f.StringVar(&c.date, "date", "", "New opening date")
}

func (c *forwardCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.book == "" || c.account == "" || c.date == "" {
		fmt.Fprintln(os.Stderr, "-book, -account and -date are required")
		return subcommands.ExitUsageError
	}
	forwardDate, err := date.Parse(c.date)
	if err != nil {
		return fail(err)
	}

	bot, save, err := OpenBot()
	if err != nil {
		return fail(err)
	}

	summary, err := bot.ForwardDate(c.book, c.account, forwardDate)
	if err != nil {
		return fail(err)
	}
	printSummary(summary)

	if err := save(); err != nil {
		return fail(err)
	}
	if summary.Rejected() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
