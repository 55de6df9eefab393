// Command seed fills a parent's account with sample data.
//
//	seed -email parent@example.com            demo kids with 30 days of history
//	seed -email parent@example.com -reseed    regenerate the window for existing kids
//	seed -email parent@example.com -cleanup   remove duplicate kids by name
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dukerupert/happyloop/internal/config"
	"github.com/dukerupert/happyloop/internal/database"
	"github.com/dukerupert/happyloop/internal/logging"
	"github.com/dukerupert/happyloop/internal/progress"
	"github.com/dukerupert/happyloop/internal/seed"
	"github.com/dukerupert/happyloop/internal/store"
)

func main() {
	email := flag.String("email", "", "email of the parent account to seed (required)")
	reseed := flag.Bool("reseed", false, "clear and regenerate the window for the parent's existing kids")
	cleanup := flag.Bool("cleanup", false, "remove duplicate kids, keeping the newest per name")
	days := flag.Int("days", 0, "length of the generated history; overrides HAPPYLOOP_SEED_DAYS")
	flag.Parse()

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*email, *reseed, *cleanup, *days); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(email string, reseed, cleanup bool, days int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel)
	if days > 0 {
		cfg.Seed.Days = days
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	kids := store.NewKidStore(db)
	tasks := store.NewTaskStore(db)
	logs := store.NewTaskLogStore(db)
	svc := seed.NewService(
		store.NewParentStore(db), kids, tasks, logs, store.NewRewardStore(db),
		progress.NewService(logs, kids, tasks, logger),
		seed.Options{Days: cfg.Seed.Days, RandomSeed: uint64(cfg.Seed.Seed)},
		logger,
	)

	parentID, err := svc.ParentIDByEmail(email)
	if err != nil {
		return err
	}

	var out any
	switch {
	case cleanup:
		out, err = svc.CleanupDuplicateKids(parentID)
	case reseed:
		out, err = svc.Reseed(parentID)
	default:
		out, err = svc.Populate(parentID)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
