package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/scaffold-io/scaffold/ast"
	"github.com/scaffold-io/scaffold/parser"
	"github.com/spf13/cobra"
)

func newAstCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ast [file]",
		Short: "Print the syntax tree of a template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, path, err := readTemplate(cmd, args)
			if err != nil {
				return err
			}
			var opts []parser.Option
			if path != "" {
				opts = append(opts, parser.WithPath(path))
			}
			module, err := parser.Parse(cmd.Context(), text, opts...)
			if err != nil {
				return err
			}
			root := &treeNode{}
			ast.Walk(&treeBuilder{parent: root}, module)
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), root.Children[0])
			}
			root.Children[0].print(cmd.OutOrStdout(), 0)
			return nil
		},
	}
	addInputFlags(cmd)
	cmd.Flags().Bool("json", false, "print the tree as JSON")
	return cmd
}

type treeNode struct {
	Type     string      `json:"type"`
	Line     int         `json:"line"`
	Text     string      `json:"text,omitempty"`
	Children []*treeNode `json:"children,omitempty"`
}

var nodeColor = color.New(color.FgCyan).SprintFunc()

func (n *treeNode) print(w io.Writer, depth int) {
	fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), nodeColor(n.Type), n.Text)
	for _, child := range n.Children {
		child.print(w, depth+1)
	}
}

// treeBuilder appends every visited node under parent.
type treeBuilder struct {
	parent *treeNode
}

func (b *treeBuilder) Visit(node ast.Node) ast.Visitor {
	if node == nil {
		return nil
	}
	n := &treeNode{
		Type: strings.TrimPrefix(fmt.Sprintf("%T", node), "*ast."),
		Line: node.Pos().Line,
	}
	switch node.(type) {
	case *ast.Module, *ast.NodeList:
	default:
		n.Text = truncate(strings.ReplaceAll(node.String(), "\n", `\n`), 60)
	}
	b.parent.Children = append(b.parent.Children, n)
	return &treeBuilder{parent: n}
}
