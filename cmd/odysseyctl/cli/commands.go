package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(deps Deps) *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres DSN (defaults to PG_DSN)")

	run := func(action func(Migrator, *cobra.Command) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			target := dsn
			if target == "" {
				cfg, err := deps.LoadConfig()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				target = cfg.PGDSN
			}
			m, err := deps.NewMigrator(target)
			if err != nil {
				return err
			}
			defer m.Close()
			return action(m, cmd)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: run(func(m Migrator, cmd *cobra.Command) error {
			if err := m.Up(); err != nil {
				return err
			}
			return printVersion(m, cmd)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		Args:  cobra.NoArgs,
		RunE: run(func(m Migrator, cmd *cobra.Command) error {
			if err := m.Down(); err != nil {
				return err
			}
			return printVersion(m, cmd)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE:  run(printVersion),
	})

	return cmd
}

func printVersion(m Migrator, cmd *cobra.Command) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}

func newJobsCommand(deps Deps) *cobra.Command {
	var redisAddr string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect ledger background jobs",
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "redis address (defaults to REDIS_ADDR)")

	open := func() (*JobsCLI, error) {
		addr := redisAddr
		if addr == "" {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return nil, fmt.Errorf("loading config: %w", err)
			}
			addr = cfg.RedisAddr
		}
		return deps.NewJobs(addr), nil
	}

	var fiscalYearID int64
	trigger := &cobra.Command{
		Use:   "trigger <integrity|warmup|cleanup>",
		Short: "Enqueue a ledger job now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jc, err := open()
			if err != nil {
				return err
			}
			defer jc.Close()
			info, err := jc.Trigger(cmd.Context(), args[0], fiscalYearID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	trigger.Flags().Int64Var(&fiscalYearID, "fiscal-year", 0, "fiscal year id (0 = active year)")

	var scheduled int
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print queue statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jc, err := open()
			if err != nil {
				return err
			}
			defer jc.Close()
			st, err := jc.InspectQueue()
			if err != nil {
				return err
			}
			out := map[string]any{"queue": st}
			if scheduled > 0 {
				tasks, err := jc.ListScheduled(scheduled)
				if err != nil {
					return err
				}
				types := make([]string, 0, len(tasks))
				for _, t := range tasks {
					types = append(types, t.Type)
				}
				out["scheduled"] = types
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	stats.Flags().IntVar(&scheduled, "scheduled", 0, "also list up to N scheduled tasks")

	cmd.AddCommand(trigger, stats)
	return cmd
}
