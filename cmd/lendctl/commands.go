package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/lending-service/cmd/api/config"
	"github.com/lending-service/cmd/api/database"
	"github.com/lending-service/cmd/api/identity"
	"github.com/lending-service/cmd/api/lending"
	"github.com/spf13/cobra"
)

type configLoader func() (config.Config, error)

var errNoDatabase = errors.New("DATABASE_URL must be set")

/* Connects to PostgreSQL. The caller closes the returned *sql.DB. */
func openStore(cfg config.Config) (*database.Store, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, errNoDatabase
	}
	db, err := database.ConnectDb(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting with db: %w", err)
	}
	return database.NewStore(db), db, nil
}

func newMigrateCmd(load configLoader) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or revert the schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.MigrationsPath
			}
			store, db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if args[0] == "up" {
				err = database.MigrationUp(store, path)
			} else {
				err = database.MigrationDown(store, path)
			}
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Fprintln(cmd.OutOrStdout(), "no change")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "migrations directory (default DATABASE_MIGRATIONS_PATH)")
	return cmd
}

type seedBook struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	CoverImage    string `json:"cover_image"`
	PublishedYear int    `json:"published_year"`
	Category      string `json:"category"`
}

/* Decodes a JSON array of books. */
func readSeedFile(path string) ([]lending.CreateBookRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	var entries []seedBook
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}

	reqs := make([]lending.CreateBookRequest, 0, len(entries))
	for i, e := range entries {
		req := lending.CreateBookRequest{
			Title:         e.Title,
			Author:        e.Author,
			ISBN:          e.ISBN,
			CoverImage:    e.CoverImage,
			PublishedYear: e.PublishedYear,
			Category:      e.Category,
		}
		if err := lending.FilledFields(req); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

/* Creates every book through the service so they are stored exactly as the API would store them. */
func seedBooks(ctx context.Context, svc lending.ServiceAPI, reqs []lending.CreateBookRequest) (int, error) {
	for i, req := range reqs {
		if _, err := svc.CreateBook(ctx, req); err != nil {
			return i, fmt.Errorf("creating %q: %w", req.Title, err)
		}
	}
	return len(reqs), nil
}

func newSeedCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE",
		Short: "Create the books listed in a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := readSeedFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			store, db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := seedBooks(cmd.Context(), lending.NewService(store, nil, 0), reqs)
			fmt.Fprintf(cmd.OutOrStdout(), "created %d book(s)\n", n)
			return err
		},
	}
}

func newReconcileCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Rewrite book availability flags that disagree with the active loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := lending.NewService(store, nil, 0).Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d book(s), repaired %d\n", report.BooksChecked, len(report.Repaired))
			for _, id := range report.Repaired {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newTokenCmd(load configLoader) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token [USER_ID]",
		Short: "Sign a bearer token for a user, a new one when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := uuid.New()
			if len(args) == 1 {
				var err error
				userID, err = uuid.Parse(args[0])
				if err != nil || userID == uuid.Nil {
					return fmt.Errorf("invalid user id %q", args[0])
				}
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			secret, issuer, duration, err := cfg.Tokens()
			if err != nil {
				return err
			}
			if ttl > 0 {
				duration = ttl
			}

			tokens := identity.TokenService{Secret: secret, Issuer: issuer, Duration: duration}
			token, exp, err := tokens.Sign(userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user_id: %s\nexpires: %s\ntoken: %s\n", userID, exp.UTC().Format(time.RFC3339), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default JWT_DURATION)")
	return cmd
}
