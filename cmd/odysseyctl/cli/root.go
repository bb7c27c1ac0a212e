// Package cli implements the odysseyctl operator commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-books/internal/app"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

// Migrator applies schema migrations.
type Migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

// Deps lets tests replace the infrastructure behind the commands.
type Deps struct {
	LoadConfig  func() (*app.Config, error)
	NewMigrator func(dsn string) (Migrator, error)
	NewJobs     func(redisAddr string) *JobsCLI
}

// DefaultDeps connects to the infrastructure named by the environment.
func DefaultDeps() Deps {
	return Deps{
		LoadConfig: app.LoadConfig,
		NewMigrator: func(dsn string) (Migrator, error) {
			return db.NewMigrator(dsn)
		},
		NewJobs: NewJobsCLI,
	}
}

// NewRootCommand creates the root command with all subcommands registered.
func NewRootCommand(deps Deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "odysseyctl",
		Short: "Operate the Odyssey books ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newMigrateCommand(deps))
	rootCmd.AddCommand(newJobsCommand(deps))

	return rootCmd
}
