package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// resetCmd holds the flags for the 'reset' subcommand.
type resetCmd struct {
	book    string
	account string
	full    bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "revert computed results for a stock account" }
func (*resetCmd) Usage() string {
	return `sbot reset -book <id> -account <id> [-full]

  Unchecks matched lots, restores split quantities and trashes derived
  postings. With -full, forwarded lots also return to their historical
  dates, reopening closed periods.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.book, "book", "", "Stock book id or name")
	f.StringVar(&c.account, "account", "", "Stock account id or name")
	f.BoolVar(&c.full, "full", false, "Also revert forwarded lots to their historical state")
}

func (c *resetCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.book == "" || c.account == "" {
		fmt.Fprintln(os.Stderr, "-book and -account are required")
		return subcommands.ExitUsageError
	}

	bot, save, err := OpenBot()
	if err != nil {
		return fail(err)
	}

	summary, err := bot.ResetRealizedResults(c.book, c.account, c.full)
	if err != nil {
		return fail(err)
	}
	printSummary(summary)

	if err := save(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
