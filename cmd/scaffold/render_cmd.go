package main

import (
	"bufio"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [name]",
		Short: "Render a template from the configured source",
		Example: `  scaffold render pages/index --data data.yaml
  scaffold render -c 'Hello {{ name }}!' --data data.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRender,
	}
	addInputFlags(cmd)
	cmd.Flags().StringP("data", "d", "", "JSON, YAML or TOML file holding the render data")
	cmd.Flags().StringP("output", "o", "", "write the output to this file")
	cmd.Flags().Bool("timing", false, "log the render duration")
	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(cmd.ErrOrStderr())

	data, err := loadData(mustString(cmd, "data"))
	if err != nil {
		return err
	}
	l, closeSource, err := newLoader(ctx, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	out := cmd.OutOrStdout()
	if p := mustString(cmd, "output"); p != "" {
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	prof := startProfile()
	defer prof.Stop()

	start := time.Now()
	if len(args) == 1 && !cmd.Flags().Changed("code") {
		if stdin, _ := cmd.Flags().GetBool("stdin"); !stdin {
			err = l.Render(ctx, w, args[0], data)
			logRender(cmd, logger, args[0], start)
			return err
		}
	}
	text, _, err := readTemplate(cmd, args)
	if err != nil {
		return err
	}
	t, err := l.LoadString(ctx, text)
	if err != nil {
		return err
	}
	err = t.Display(ctx, w, data)
	logRender(cmd, logger, "", start)
	return err
}

func logRender(cmd *cobra.Command, logger zerolog.Logger, name string, start time.Time) {
	if timing, _ := cmd.Flags().GetBool("timing"); timing {
		logger.Info().Str("template", name).Dur("duration", time.Since(start)).Msg("rendered")
	}
}

func mustString(cmd *cobra.Command, name string) string {
	s, _ := cmd.Flags().GetString(name)
	return s
}
