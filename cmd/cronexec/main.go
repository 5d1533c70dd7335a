// Package main is the entry point for the cronexec CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/prasrvenkat/cronexec"
	"github.com/prasrvenkat/cronexec/internal/config"
	"github.com/spf13/cobra"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd := rootCmd(time.Now)
	if err := cmd.Execute(); err != nil {
		printError(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

// printError renders parse errors with their position.
func printError(w io.Writer, err error) {
	var e *cronexec.Error
	if errors.As(err, &e) {
		fmt.Fprintln(w, e.DisplayRich())
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

// options are the flags shared by every command.
type options struct {
	now      func() time.Time
	logger   *slog.Logger
	logLevel string
	dialect  string
	timezone string
	from     string
}

func rootCmd(now func() time.Time) *cobra.Command {
	opts := &options{now: now, logger: slog.New(slog.DiscardHandler)}

	root := &cobra.Command{
		Use:           "cronexec",
		Short:         "Compute execution times of cron expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", opts.logLevel, err)
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringVarP(&opts.dialect, "dialect", "d", "unix", "Cron dialect (unix, quartz, spring, cron4j)")
	flags.StringVar(&opts.timezone, "tz", "", "IANA zone to evaluate in (default: the reference's zone)")
	flags.StringVar(&opts.from, "from", "", "Reference time in RFC 3339 (default: now)")

	root.AddCommand(
		versionCmd(),
		nextCmd(opts),
		lastCmd(opts),
		matchCmd(opts),
		describeCmd(opts),
		convertCmd(opts),
		listCmd(opts),
		checkCmd(opts),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cronexec %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func nextCmd(opts *options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "next <expression>",
		Short: "Print the next executions of an expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			et, err := opts.schedule(args[0])
			if err != nil {
				return err
			}
			ref, err := opts.reference()
			if err != nil {
				return err
			}
			results := et.NextN(ref, count)
			opts.logger.Debug("next_executions", "expression", args[0], "from", ref, "found", len(results))
			if len(results) == 0 {
				return fmt.Errorf("no execution after %s", ref.Format(time.RFC3339))
			}
			for _, t := range results {
				fmt.Fprintln(cmd.OutOrStdout(), t.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of executions to print")
	return cmd
}

func lastCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "last <expression>",
		Short: "Print the last execution of an expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			et, err := opts.schedule(args[0])
			if err != nil {
				return err
			}
			ref, err := opts.reference()
			if err != nil {
				return err
			}
			last := et.LastExecution(ref)
			if last == nil {
				return fmt.Errorf("no execution before %s", ref.Format(time.RFC3339))
			}
			fmt.Fprintln(cmd.OutOrStdout(), last.Format(time.RFC3339))
			return nil
		},
	}
}

func matchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "match <expression>",
		Short: "Report whether the reference time is an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			et, err := opts.schedule(args[0])
			if err != nil {
				return err
			}
			ref, err := opts.reference()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), et.IsMatch(ref))
			return nil
		},
	}
}

func describeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <expression>",
		Short: "Print the canonical form and fields of an expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := cronexec.DefinitionByName(opts.dialect)
			if err != nil {
				return err
			}
			c, err := cronexec.Parse(def, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", c, def.Name)
			for _, f := range c.Fields() {
				fmt.Fprintf(out, "  %-13s %s\n", f.Name.String()+":", f.Expr)
			}
			return nil
		},
	}
}

func convertCmd(opts *options) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "convert <expression>",
		Short: "Rewrite an expression in another dialect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cronexec.DefinitionByName(opts.dialect)
			if err != nil {
				return err
			}
			target, err := cronexec.DefinitionByName(to)
			if err != nil {
				return err
			}
			c, err := cronexec.Parse(from, args[0])
			if err != nil {
				return err
			}
			out, err := cronexec.Convert(c, target)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "quartz", "Target dialect")
	return cmd
}

func listCmd(opts *options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "list <config>",
		Short: "Print the upcoming executions of every schedule in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := opts.loadSet(args[0])
			if err != nil {
				return err
			}
			ref, err := opts.reference()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range set.Composite.NextN(ref, count) {
				fmt.Fprintf(out, "%s  %s\n", t.Format(time.RFC3339), strings.Join(set.MatchingAt(t), ","))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of executions to print")
	return cmd
}

func checkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <config>",
		Short: "Validate a schedules file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := opts.loadSet(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK (%d schedules)\n", len(set.Entries))
			for _, e := range set.Entries {
				fmt.Fprintf(out, "  %s: %s (%s, %s)\n", e.Name, e.Cron, e.Cron.Definition().Name, e.Location)
			}
			return nil
		},
	}
}

// schedule parses an expression in the selected dialect.
func (o *options) schedule(expr string) (*cronexec.ExecutionTime, error) {
	def, err := cronexec.DefinitionByName(o.dialect)
	if err != nil {
		return nil, err
	}
	return cronexec.ParseSchedule(def, expr)
}

// reference returns --from or the current time, moved into --tz.
func (o *options) reference() (time.Time, error) {
	ref := o.now()
	if o.from != "" {
		parsed, err := time.Parse(time.RFC3339, o.from)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
		ref = parsed
	}
	if o.timezone != "" {
		loc, err := time.LoadLocation(o.timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --tz: %w", err)
		}
		ref = ref.In(loc)
	}
	return ref, nil
}

// loadSet loads, validates and builds a schedules file.
func (o *options) loadSet(path string) (*config.Set, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	set, err := config.Build(cfg)
	if err != nil {
		return nil, err
	}
	o.logger.Info("config_loaded", "path", path, "schedules", len(set.Entries))
	return set, nil
}
