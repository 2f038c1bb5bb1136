// Package cli implements the edtrun command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viant/edt"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config URL
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the edtrun CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "edtrun",
		Short: "edtrun - event-driven task runtime",
		Long:  "Runs sample task graphs on the event-driven task runtime.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config URL (file, mem, gs, s3 ...)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// loadConfig returns the config at opts.Config, or the defaults.
func (opts *RootOptions) loadConfig(ctx context.Context) (*edt.Config, error) {
	if opts.Config == "" {
		return edt.DefaultConfig(), nil
	}
	return edt.LoadConfig(ctx, opts.Config)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
