package main

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/scaffold-io/scaffold/builtins"
	"github.com/scaffold-io/scaffold/internal/table"
	"github.com/spf13/cobra"
)

func newHelpersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "helpers [pattern]",
		Short: "List the built-in helpers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := builtins.Docs()
			if len(args) == 1 {
				docs = matchHelpers(docs, args[0])
			}
			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(out, docs)
			}
			if len(docs) == 0 {
				fmt.Fprintln(out, "no matching helpers")
				return nil
			}
			t := table.NewTable(out).WithHeader([]string{"Name", "Signature", "Description"})
			for _, doc := range docs {
				sig := fmt.Sprintf("%s(%s)", doc.Name, strings.Join(doc.Args, ", "))
				if doc.Returns != "" {
					sig += " " + doc.Returns
				}
				t.Append([]string{doc.Name, sig, truncate(doc.Doc, 60)})
			}
			return t.Render()
		},
	}
	cmd.Flags().Bool("json", false, "print the helpers as JSON")
	return cmd
}

// matchHelpers returns the helpers whose names fuzzily match pattern, best
// match first.
func matchHelpers(docs []builtins.FuncSpec, pattern string) []builtins.FuncSpec {
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
	}
	var matched []builtins.FuncSpec
	for _, m := range fuzzy.Find(pattern, names) {
		matched = append(matched, docs[m.Index])
	}
	return matched
}
