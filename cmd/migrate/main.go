package main

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/n1rocket/go-profile-validity/internal/db"
)

type options struct {
	dsn  string
	path string
	yes  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the profile database schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dsn, "database", "", "database connection string (defaults to $DB_DSN)")
	root.PersistentFlags().StringVar(&opts.path, "path", "", "load migrations from this directory instead of the embedded set")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(opts, func(cmd *cobra.Command, m *db.Migrator, _ []string) error {
				if err := m.Up(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every applied migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(opts, func(cmd *cobra.Command, m *db.Migrator, _ []string) error {
				if err := m.Down(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rollback completed successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Run N migrations; negative N rolls back",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(opts, func(cmd *cobra.Command, m *db.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				if err := m.Steps(n); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ran %d migration steps\n", n)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(opts, func(cmd *cobra.Command, m *db.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d (dirty: %v)\n", v, dirty)
				return nil
			}),
		},
		newForceCmd(opts),
	)

	return root
}

func newForceCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "force VERSION",
		Short: "Record VERSION as applied without running migrations",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")

	cmd.RunE = withMigrator(opts, func(cmd *cobra.Command, m *db.Migrator, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}

		if !opts.yes {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Force schema version to %d?", version))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
				return nil
			}
		}

		if err := m.Force(version); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Forced to version %d\n", version)
		return nil
	})
	return cmd
}

type migratorFunc func(cmd *cobra.Command, m *db.Migrator, args []string) error

// withMigrator opens the database for the duration of fn
func withMigrator(opts *options, fn migratorFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dsn := opts.dsn
		if dsn == "" {
			dsn = os.Getenv("DB_DSN")
		}
		if dsn == "" {
			return errors.New("a database connection string is required (--database or DB_DSN)")
		}

		conn, err := sql.Open("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer conn.Close()

		if err := conn.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		return fn(cmd, db.NewMigrator(conn, db.MigrationConfig{Path: opts.path}), args)
	}
}

// confirm asks a yes/no question. Without a terminal on stdin nothing is
// confirmed, so scripts must pass --yes.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return false, errors.New("refusing to force without a terminal; pass --yes")
	}

	fmt.Fprintf(out, "WARNING: this is a dangerous operation.\n%s (yes/no): ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(answer), "yes"), nil
}
