package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"synexis/internal/app"
	"synexis/internal/ask"
	"synexis/internal/auth"
	"synexis/internal/extract"
	"synexis/internal/logger"
)

var cliPrincipal = auth.Principal{Name: "cli"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:          "ask [question]",
		Short:        "Ask two models the same question and have a third pick the better answer",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := resolveQuestion(args, file)
			if err != nil {
				return err
			}
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			log := logger.NewWithWriter(stderr, cfg.LogLevel)
			pipeline, err := app.BuildPipeline(cfg, log)
			if err != nil {
				return err
			}
			return run(cmd.Context(), pipeline, question, stdout)
		},
	}
	cmd.SetErr(stderr)
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the question from a .txt, .pdf or .docx file")
	return cmd
}

func resolveQuestion(args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("pass either a question or --file, not both")
	case file != "":
		if !extract.Supported(file) {
			return "", fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, filepath.Base(file))
		}
		content, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return extract.Text(file, content)
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("a question or --file is required")
	}
}

func run(ctx context.Context, p *ask.Pipeline, question string, w io.Writer) error {
	res, err := p.Run(ctx, cliPrincipal, ask.Question(question))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
