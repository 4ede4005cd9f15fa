package cli

import (
	"encoding/json"
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"github.com/tarmac-project/jstore/record"
)

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <id>",
		Short:         "Print a record as JSON",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(e *env) error {
				rec, ok, err := e.store.Get(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return NewExitError(ExitFailure, fmt.Sprintf("record %q not found", args[0]))
				}
				return newPrinter(cmd.OutOrStdout(), stdoutFile(cmd), opts.Color).JSON(rec)
			})
		},
	}
}

// NewSetCommand creates the set command.
func NewSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <json-object>",
		Short: "Merge a JSON object into a record",
		Long: `Merge the top-level fields of a JSON object into a record. Existing fields
not named in the object are kept.

Example:
  jstore set session '{"year":"2017"}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(args[1])) {
				return NewExitError(ExitCommandError, "value is not valid JSON")
			}
			return withEnv(opts, cmd, func(e *env) error {
				return e.store.Set(args[0], json.RawMessage(args[1]))
			})
		},
	}
}

// NewDelCommand creates the del command.
func NewDelCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "del <id> <field>...",
		Short:         "Delete fields from a record",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(e *env) error {
				return e.store.Del(args[0], args[1:]...)
			})
		},
	}
}

// NewOmitCommand creates the omit command.
func NewOmitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "omit <id> [field...]",
		Short:         "Keep only the named fields of a record",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(e *env) error {
				return e.store.Omit(args[0], args[1:]...)
			})
		},
	}
}

// NewHasCommand creates the has command. It exits with ExitFailure when the
// record is absent.
func NewHasCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "has <id>",
		Short:         "Report whether a record exists",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(e *env) error {
				ok, err := e.store.Has(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				if !ok {
					return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("record %q not found", args[0])}
				}
				return nil
			})
		},
	}
}

// NewCountCommand creates the count command.
func NewCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "count",
		Short:         "Count the records in the namespace",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(e *env) error {
				n, err := e.store.Count()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

// EachOptions holds flags for the each command.
type EachOptions struct {
	*RootOptions
	Match string
	IDs   bool
}

// NewEachCommand creates the each command.
func NewEachCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EachOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "each",
		Short: "List every record in the namespace",
		Long: `List every record in the namespace, one "key<TAB>json" line each, in the
store's insertion order. Keys are printed with their prefix.

Example:
  jstore each --match 'jStoreApp-user:*'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Match, "match", "", "only list keys matching this glob")
	cmd.Flags().BoolVar(&opts.IDs, "ids", false, "print logical ids instead of records")

	return cmd
}

func runEach(opts *EachOptions, cmd *cobra.Command) error {
	var matcher glob.Glob
	if opts.Match != "" {
		g, err := glob.Compile(opts.Match)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --match pattern", err)
		}
		matcher = g
	}

	return withEnv(opts.RootOptions, cmd, func(e *env) error {
		p := newPrinter(cmd.OutOrStdout(), stdoutFile(cmd), opts.Color)

		if opts.IDs {
			ids, err := e.store.IDs()
			if err != nil {
				return err
			}
			for _, id := range ids {
				if matcher == nil || matcher.Match(id) {
					p.Line("%s", id)
				}
			}
			return nil
		}

		return e.store.Each(func(key string, rec record.Record) error {
			if matcher != nil && !matcher.Match(key) {
				return nil
			}
			return p.Record(key, rec)
		})
	})
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <id>",
		Short:         "Remove one record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(e *env) error {
				return e.store.Remove(args[0])
			})
		},
	}
}

// NewRemoveAllCommand creates the remove-all command.
func NewRemoveAllCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove-all",
		Short:         "Remove every record in the namespace",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(e *env) error {
				n, err := e.store.RemoveAll()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", n)
				return nil
			})
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(opts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every key in the store, across all namespaces",
		Long: `Delete every key in the store, including records of other namespaces.
Use remove-all to empty only the current namespace.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return NewExitError(ExitCommandError, "clear deletes every namespace; pass --force to confirm")
			}
			return withEnv(opts, cmd, func(e *env) error {
				return e.store.ClearStore()
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "confirm deleting every namespace")

	return cmd
}
