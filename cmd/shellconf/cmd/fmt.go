package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-drift/shellconf/pkg/document"
)

var fmtWrite bool

func init() {
	fmtCmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Rewrite a layout document in canonical form",
		Long: `Print a layout document in canonical form: two-space indentation,
self-closing empty elements, attributes in a fixed order.

With -w the file is replaced atomically instead. Documents with parse problems
are refused, since rewriting them would drop the malformed parts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd.OutOrStdout(), args[0], fmtWrite)
		},
	}
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write the result back to the file")
	RegisterCommand(fmtCmd)
}

func runFmt(stdout io.Writer, path string, write bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	doc, err := document.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if write {
		return document.WriteFile(path, doc)
	}
	return document.Encode(stdout, doc)
}
