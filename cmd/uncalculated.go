package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/stockbot"
)

// uncalculatedCmd holds the flags for the 'uncalculated' subcommand.
type uncalculatedCmd struct {
	book string
}

func (*uncalculatedCmd) Name() string     { return "uncalculated" }
func (*uncalculatedCmd) Synopsis() string { return "list stock accounts with uncalculated results" }
func (*uncalculatedCmd) Usage() string {
	return `sbot uncalculated -book <id>

  Lists the accounts with unmatched purchase and sale activity, a pending
  rebuild, or missing exchange-rate data.
`
}

func (c *uncalculatedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.book, "book", "", "Stock book id or name")
}

func (c *uncalculatedCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.book == "" {
		fmt.Fprintln(os.Stderr, "-book is required")
		return subcommands.ExitUsageError
	}

	bot, _, err := OpenBot()
	if err != nil {
		return fail(err)
	}
	stockBook, err := bot.Book(c.book)
	if err != nil {
		return fail(err)
	}

	accounts, err := stockbot.GetUncalculatedAccounts(stockBook, stockbot.GetBaseBook(stockBook))
	if err != nil {
		return fail(err)
	}
	for _, account := range accounts {
		fmt.Println(account.Name())
	}
	return subcommands.ExitSuccess
}
