package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/stockbot/event"
)

// replayCmd holds the flags for the 'replay' subcommand.
type replayCmd struct {
	file string
}

func (*replayCmd) Name() string     { return "replay" }
func (*replayCmd) Synopsis() string { return "feed recorded ledger events through the dispatcher" }
func (*replayCmd) Usage() string {
	return `sbot replay -file <events.jsonl>

  Reads one JSON event per line and dispatches each against the loaded
  collection, printing the per-event results.
`
}

func (c *replayCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "Path to the events file (one JSON event per line)")
}

func (c *replayCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		return subcommands.ExitUsageError
	}

	in, err := os.Open(c.file)
	if err != nil {
		return fail(err)
	}
	defer in.Close()

	bot, save, err := OpenBot()
	if err != nil {
		return fail(err)
	}
	dispatcher := event.NewDispatcher(bot)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		e, err := event.Parse(scanner.Bytes())
		if err != nil {
			return fail(fmt.Errorf("line %d: %w", line, err))
		}
		result, err := dispatcher.Handle(e)
		if err != nil {
			return fail(fmt.Errorf("line %d: %w", line, err))
		}
		rendered, err := json.Marshal(result)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("%d %s: %s\n", line, e.Type, rendered)
	}
	if err := scanner.Err(); err != nil {
		return fail(err)
	}

	if err := save(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
