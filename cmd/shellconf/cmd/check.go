package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-drift/shellconf/pkg/document"
)

func init() {
	RegisterCommand(&cobra.Command{
		Use:   "check FILE",
		Short: "Validate a layout document",
		Long: `Parse a layout document and print the element tree it declares.

Malformed nodes, duplicate ids and element types the shell does not know are
listed on stderr. The command fails if there is any problem.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], resolved.Types)
		},
	})
}

func runCheck(stdout, stderr io.Writer, path string, types []string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, parseErr := document.Parse(f)
	printTree(stdout, doc)

	problems := splitErrors(parseErr)
	seen := make(map[int64]bool)
	doc.Walk(func(n *document.Node) bool {
		if n.HasID {
			if seen[n.ID] {
				problems = append(problems, fmt.Errorf("%s#%d: duplicate id", n.Type, n.ID))
			}
			seen[n.ID] = true
		}
		if len(types) > 0 && !slices.Contains(types, n.Type) {
			problems = append(problems, fmt.Errorf("%s: unknown element type", nodeLabel(n)))
		}
		return true
	})

	for _, p := range problems {
		fmt.Fprintf(stderr, "%s: %v\n", path, p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %d problem(s)", path, len(problems))
	}
	return nil
}

func printTree(w io.Writer, doc *document.Document) {
	fmt.Fprintf(w, "Root%s\n", formatProperties(doc.Properties))
	var visit func(n *document.Node, depth int)
	visit = func(n *document.Node, depth int) {
		fmt.Fprintf(w, "%s%s%s\n", strings.Repeat("  ", depth), nodeLabel(n), formatProperties(n.Properties))
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, n := range doc.Elements {
		visit(n, 1)
	}
}

func nodeLabel(n *document.Node) string {
	if !n.HasID {
		return n.Type + "#?"
	}
	return fmt.Sprintf("%s#%d", n.Type, n.ID)
}

func formatProperties(props []document.Property) string {
	var sb strings.Builder
	for _, p := range props {
		fmt.Fprintf(&sb, " %s=%q", p.Name, p.Value)
	}
	return sb.String()
}

func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
