package tui

import (
	"github.com/blackwell-systems/libraryctl/internal/util"
	"github.com/spf13/cobra"
)

// ShouldUseTUI reports whether cmd should open the interactive table:
// stdout must be a terminal and --no-interactive unset.
func ShouldUseTUI(cmd *cobra.Command) bool {
	if !util.IsTTY() {
		return false
	}
	noInteractive, _ := cmd.Flags().GetBool("no-interactive")
	return !noInteractive
}
