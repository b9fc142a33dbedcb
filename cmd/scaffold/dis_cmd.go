package main

import (
	"fmt"
	"strings"

	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/dis"
	"github.com/scaffold-io/scaffold/vm"
	"github.com/spf13/cobra"
)

func newDisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis [file]",
		Short: "Disassemble a compiled template",
		Example: `  scaffold dis page.html
  scaffold dis -c '{% block a %}x{% endblock %}' --code-id block:a`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, path, err := readTemplate(cmd, args)
			if err != nil {
				return err
			}
			unit, err := vm.Compile(cmd.Context(), path, text)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if id := mustString(cmd, "code-id"); id != "" {
				code, err := findCode(unit, id)
				if err != nil {
					return err
				}
				instructions, err := dis.Disassemble(code)
				if err != nil {
					return err
				}
				dis.Print(instructions, out)
				return nil
			}
			listing, _, err := dis.Listing(unit)
			if err != nil {
				return err
			}
			if stats, _ := cmd.Flags().GetBool("stats"); stats {
				s := unit.Stats()
				fmt.Fprintf(out, "; %d instructions, %d constants, %d blocks, %d macros\n",
					s.InstructionCount, s.ConstantCount, s.BlockCount, s.MacroCount)
			}
			fmt.Fprint(out, listing)
			return nil
		},
	}
	addInputFlags(cmd)
	cmd.Flags().String("code-id", "", `disassemble only this code block, e.g. "main" or "macro:m"`)
	cmd.Flags().Bool("stats", false, "print unit statistics")
	return cmd
}

func findCode(unit *bytecode.Unit, id string) (*bytecode.Code, error) {
	var ids []string
	for _, code := range unit.Codes() {
		if code.ID() == id {
			return code, nil
		}
		ids = append(ids, code.ID())
	}
	return nil, fmt.Errorf("code %q not found (available: %s)", id, strings.Join(ids, ", "))
}
