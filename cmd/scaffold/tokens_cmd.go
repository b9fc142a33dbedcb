package main

import (
	"strconv"

	"github.com/scaffold-io/scaffold/internal/lexer"
	"github.com/scaffold-io/scaffold/internal/table"
	"github.com/scaffold-io/scaffold/internal/token"
	"github.com/spf13/cobra"
)

type tokenJSON struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func newTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the tokens of a template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _, err := readTemplate(cmd, args)
			if err != nil {
				return err
			}
			tokens := lexer.Tokenize(text).Tokens()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				out := make([]tokenJSON, 0, len(tokens))
				for _, tok := range tokens {
					out = append(out, tokenJSON{
						Type:   string(tok.Type),
						Value:  tok.Value,
						Line:   tok.Line(),
						Column: tok.Column(),
					})
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			return tokenTable(cmd, tokens).Render()
		},
	}
	addInputFlags(cmd)
	cmd.Flags().Bool("json", false, "print the tokens as JSON")
	return cmd
}

func tokenTable(cmd *cobra.Command, tokens []token.Token) *table.Table {
	t := table.NewTable(cmd.OutOrStdout()).
		WithHeader([]string{"Line", "Col", "Type", "Value"}).
		WithColumnAlignment([]table.Alignment{table.AlignRight, table.AlignRight, table.AlignLeft, table.AlignLeft})
	for _, tok := range tokens {
		t.Append([]string{
			strconv.Itoa(tok.Line()),
			strconv.Itoa(tok.Column()),
			string(tok.Type),
			truncate(strconv.Quote(tok.Value), 48),
		})
	}
	return t
}
