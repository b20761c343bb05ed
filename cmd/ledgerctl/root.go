package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sikndrR/fitnessApp/internal/config"
	"github.com/sikndrR/fitnessApp/internal/domain"
	"github.com/sikndrR/fitnessApp/internal/feed"
	"github.com/sikndrR/fitnessApp/internal/identity"
	"github.com/sikndrR/fitnessApp/internal/persistence/backend"
)

// app carries the flags shared by every subcommand.
type app struct {
	cfg     config.Config
	email   string
	name    string
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Load()}

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect and edit nutrition and exercise ledgers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `ledgerctl reads and writes a user's ledger in the configured store.
The store is chosen with --backend or STORE_BACKEND; the user with --email or LEDGER_EMAIL.`,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.email, "email", os.Getenv("LEDGER_EMAIL"), "Email of the ledger owner")
	flags.StringVar(&a.name, "name", "", "Display name recorded at registration")
	flags.StringVar(&a.cfg.StoreBackend, "backend", a.cfg.StoreBackend, "Store backend: memory, sqlite or postgres")
	flags.StringVar(&a.cfg.SQLitePath, "sqlite-path", a.cfg.SQLitePath, "SQLite database file")
	flags.StringVar(&a.cfg.PostgresURL, "postgres-url", a.cfg.PostgresURL, "Postgres connection string")
	flags.BoolVar(&a.cfg.EventsEnabled, "events", a.cfg.EventsEnabled, "Publish change events to Kafka")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log publish failures and store details")

	root.AddCommand(
		newRegisterCmd(a),
		newEnsureDateCmd(a),
		newEntryCmd(a, domain.CategoryFood),
		newEntryCmd(a, domain.CategoryExercises),
		newGoalsCmd(a),
		newSummaryCmd(a),
		newDatesCmd(a),
		newExportCmd(a),
		newNormalizeCmd(),
		newTokenCmd(a),
	)
	return root
}

var errNoEmail = errors.New("--email or LEDGER_EMAIL is required")

// withLedger opens the store, binds the session and runs fn.
func (a *app) withLedger(ctx context.Context, fn func(*domain.Ledger, identity.Session) error) error {
	if a.email == "" {
		return errNoEmail
	}
	session, err := identity.NewSession(a.email, a.name)
	if err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	store, closeStore, err := backend.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	logger := log.New(io.Discard, "", 0)
	if a.verbose {
		logger = log.New(os.Stderr, "[ledgerctl] ", log.LstdFlags)
	}
	opts := []domain.Option{domain.WithLogger(logger)}
	if a.cfg.EventsEnabled {
		producer := feed.NewKafkaProducer(a.cfg.KafkaBrokers)
		defer producer.Close()
		opts = append(opts, domain.WithPublisher(feed.NewPublisher(producer, a.cfg.EventsTopic, feed.WithLogger(logger))))
	}
	return fn(domain.NewLedger(store, opts...), session)
}

// dateArg returns args[0] or today's UTC date.
func dateArg(l *domain.Ledger, args []string) string {
	if len(args) > 0 && args[0] != "today" {
		return args[0]
	}
	return l.Today()
}
