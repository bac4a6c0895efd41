package cli

import (
	"github.com/spf13/cobra"
)

// A leafCommand is a single-purpose subcommand: a use string, short/long
// descriptions, and the function that runs it.
type leafCommand struct {
	use, short, long string
	runFunc          func(cmd *cobra.Command, args []string)
}

var _ cobraCommand = (*leafCommand)(nil)

// NewLeafCommand constructs a subcommand that does not itself nest further
// subcommands (review, verify, fetch, pull, push, and the subcommands of
// id and trust all use this shape).
func NewLeafCommand(use, short, long string, runFunc func(cmd *cobra.Command, args []string)) *cobra.Command {
	leaf := &leafCommand{use: use, short: short, long: long, runFunc: runFunc}
	return leaf.Build()
}

// Build constructs the cobra.Command according to the leafCommand's
// settings.
func (leaf *leafCommand) Build() *cobra.Command {
	cmd := cobra.Command{
		Use:   leaf.use,
		Short: leaf.short,
		Long:  leaf.long,
		Run:   leaf.runFunc,
	}
	return &cmd
}
