package main

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/scaffold-io/scaffold/errors"
	"github.com/scaffold-io/scaffold/source"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [name...]",
		Short: "Compile templates and report every error",
		Long: `Compile the named templates, or every template found in the source
directories when no names are given, and report all failures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger(cmd.ErrOrStderr())
			src, closeSource, err := openSource(ctx)
			if err != nil {
				return err
			}
			defer closeSource()

			names := args
			if len(names) == 0 {
				if names, err = templateNames(src, viper.GetString("extension")); err != nil {
					return err
				}
			}
			l, err := loaderFor(src, logger)
			if err != nil {
				return err
			}
			err = l.CompileAll(ctx, names)
			var merr *multierror.Error
			if stderrors.As(err, &merr) {
				fmt.Fprint(cmd.ErrOrStderr(), errors.NewFormatter(!color.NoColor).FormatMultiple(merr.Errors))
				return fmt.Errorf("%d of %d templates failed to compile", len(merr.Errors), len(names))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d templates ok\n", len(l.Compiled()))
			return nil
		},
	}
}

// templateNames lists the templates of a directory or memory source.
// Other sources cannot be listed.
func templateNames(src source.Source, ext string) ([]string, error) {
	if ext == "" {
		ext = ".html"
	}
	switch s := src.(type) {
	case *source.Memory:
		var names []string
		for _, p := range s.Paths() {
			if addressable(p, ext) {
				names = append(names, p)
			}
		}
		return names, nil
	case *source.Dir:
		seen := map[string]bool{}
		var names []string
		for _, root := range s.Roots() {
			err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() || !strings.HasSuffix(p, ext) {
					return nil
				}
				rel, err := filepath.Rel(root, p)
				if err != nil {
					return err
				}
				rel = filepath.ToSlash(rel)
				if addressable(rel, ext) && !seen[rel] {
					seen[rel] = true
					names = append(names, rel)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
		return names, nil
	}
	return nil, stderrors.New("template names are required for this source")
}

// addressable reports whether p can be named in dot notation: dots other
// than the extension's would be read as directory separators.
func addressable(p, ext string) bool {
	return strings.HasSuffix(p, ext) && !strings.Contains(strings.TrimSuffix(p, ext), ".")
}
