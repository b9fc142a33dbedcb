package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/pelletier/go-toml/v2"
	"github.com/scaffold-io/scaffold/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var red = color.New(color.FgRed).SprintFunc()

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = formatError(msg)
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", strings.TrimRight(s, "\n"))
	os.Exit(1)
}

// formatError renders template errors with their source context and
// anything else as a red one-liner.
func formatError(err error) string {
	var ferr errors.FormattableError
	if stderrors.As(err, &ferr) {
		return errors.NewFormatter(!color.NoColor).Format(ferr)
	}
	return red(err.Error())
}

func isTerminalIO() bool {
	stdout := os.Stdout.Fd()
	return isatty.IsTerminal(stdout) || isatty.IsCygwinTerminal(stdout)
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") || !isTerminalIO() {
		color.NoColor = true
	}
}

// readTemplate determines the template text and its path. There are three
// possibilities:
//  1. --code <text>
//  2. --stdin (read text from stdin)
//  3. path as args[0]
func readTemplate(cmd *cobra.Command, args []string) (string, string, error) {
	codeSet := cmd.Flags().Changed("code")
	stdinSet, _ := cmd.Flags().GetBool("stdin")
	pathSupplied := len(args) > 0

	count := 0
	for _, set := range []bool{codeSet, stdinSet, pathSupplied} {
		if set {
			count++
		}
	}
	if count > 1 {
		return "", "", stderrors.New("multiple input sources specified")
	}
	if count == 0 {
		return "", "", stderrors.New("no input provided")
	}
	if stdinSet {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", err
		}
		return string(data), "", nil
	}
	if pathSupplied {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), args[0], nil
	}
	code, _ := cmd.Flags().GetString("code")
	return code, "", nil
}

// addInputFlags adds the flags read by readTemplate.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "template text")
	cmd.Flags().Bool("stdin", false, "read the template from stdin")
}

// loadData reads render data from a JSON, YAML or TOML file, chosen by the
// file extension.
func loadData(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &data)
	case ".toml":
		err = toml.Unmarshal(raw, &data)
	case ".json", "":
		err = json.Unmarshal(raw, &data)
	default:
		return nil, fmt.Errorf("unsupported data file format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding data file %s: %w", path, err)
	}
	return data, nil
}

// printJSON writes v as indented JSON, colored unless color is disabled.
func printJSON(w io.Writer, v any) error {
	var out []byte
	var err error
	if color.NoColor {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = prettyjson.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// truncate shortens s to at most width display cells.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
