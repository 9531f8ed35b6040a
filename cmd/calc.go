package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/stockbot/date"
)

// calcCmd holds the flags for the 'calc' subcommand.
type calcCmd struct {
	book    string
	account string
	mtm     bool
	before  string
}

func (*calcCmd) Name() string     { return "calc" }
func (*calcCmd) Synopsis() string { return "compute realized results for a stock account" }
func (*calcCmd) Usage() string {
	return `sbot calc -book <id> -account <id> [-mtm] [-before <date>]

  Matches open sale lots against open purchase lots in FIFO order and
  records realized and FX gain/loss postings.
`
}

func (c *calcCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.book, "book", "", "Stock book id or name")
	f.StringVar(&c.account, "account", "", "Stock account id or name")
	f.BoolVar(&c.mtm, "mtm", false, "Also record mark-to-market postings")
	f.StringVar(&c.before, "before", "", "Only match lots strictly before this date (default today)")
}

func (c *calcCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.book == "" || c.account == "" {
		fmt.Fprintln(os.Stderr, "-book and -account are required")
		return subcommands.ExitUsageError
	}
	var beforeDate date.Date
	if c.before != "" {
		var err error
		beforeDate, err = date.Parse(c.before)
		if err != nil {
			return fail(err)
		}
	}

	bot, save, err := OpenBot()
	if err != nil {
		return fail(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fail(err)
	}

	summary, err := bot.CalculateRealizedResultsForAccount(c.book, c.account, c.mtm || cfg.AutoMtM, beforeDate)
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
