// Package cmd implements the CLI application driving the stock bot.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"

	"github.com/etnz/stockbot"
	"github.com/etnz/stockbot/ledger"
	"github.com/etnz/stockbot/ledger/sqlitestore"
)

// Register the subcommands.
// A main package calls Register() to allow subcommands, and Execute() on the
// user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&calcCmd{}, "results")
	c.Register(&resetCmd{}, "results")
	c.Register(&uncalculatedCmd{}, "results")

	c.Register(&forwardCmd{}, "periods")

	c.Register(&replayCmd{}, "events")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var storePath = flag.String("store", "stockbot.db", "Path to the ledger collection store (SQLite)")
var configPath = flag.String("config", "", "Path to the YAML configuration file")

// Config is the YAML file configuration. Flags take precedence.
type Config struct {
	// Store is the path to the SQLite collection store.
	Store string `yaml:"store"`
	// CloseDelay postpones book closing after a forward, in Go duration
	// syntax.
	CloseDelay time.Duration `yaml:"close_delay"`
	// AutoMtM enables mark-to-market postings during calculation.
	AutoMtM bool `yaml:"auto_mtm"`
}

// LoadConfig reads the YAML configuration, empty when no file is configured.
func LoadConfig() (Config, error) {
	var cfg Config
	if *configPath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(*configPath)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", *configPath, err)
	}
	return cfg, nil
}

// OpenBot loads the collection from the store and wraps it in a bot. The
// returned save function persists the collection back.
func OpenBot() (*stockbot.Bot, func() error, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	path := *storePath
	if cfg.Store != "" && !flagProvided("store") {
		path = cfg.Store
	}

	store, err := sqlitestore.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	collection, err := store.Load()
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("loading collection: %w", err)
	}

	bot := stockbot.NewBot(collection)
	bot.SetCloseDelay(cfg.CloseDelay)

	save := func() error {
		defer store.Close()
		return store.Save(collection)
	}
	return bot, save, nil
}

// Collection gives commands raw access to the loaded books.
func Collection(bot *stockbot.Bot) *ledger.Collection { return bot.Collection() }

func flagProvided(name string) bool {
	provided := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			provided = true
		}
	})
	return provided
}

// printSummary renders a per-account summary line.
func printSummary(s *stockbot.Summary) {
	switch {
	case s.Error != "":
		fmt.Printf("%s: ERROR %s\n", s.AccountID, s.Error)
	case s.Result != "":
		fmt.Printf("%s: %s\n", s.AccountID, s.Result)
	default:
		fmt.Printf("%s: done\n", s.AccountID)
	}
	for excCode, names := range s.CreatedAccounts {
		for _, name := range names {
			fmt.Printf("%s: created account %s (%s)\n", s.AccountID, name, excCode)
		}
	}
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}
