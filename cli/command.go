package cli

import (
	"github.com/spf13/cobra"
)

// cobraCommand is implemented by every command builder in this package.
type cobraCommand interface {
	Build() *cobra.Command
}
