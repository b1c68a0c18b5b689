package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dbbs/pkg/glossary"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var format string
	var file string
	var keepGoing bool
	var depthFirst bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a glossary document from stdin or a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open document: %w", err)
				}
				defer f.Close()
				in = f
			}

			return runParse(in, cmd.OutOrStdout(), parseOptions{
				format:     format,
				keepGoing:  keepGoing,
				depthFirst: depthFirst,
			}, logger)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format (json or table)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the document from a file instead of stdin")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Skip bit fragments that fail to parse instead of aborting")
	cmd.Flags().BoolVar(&depthFirst, "depth-first", false, "Walk the document depth-first")
	return cmd
}

type parseOptions struct {
	format     string
	keepGoing  bool
	depthFirst bool
}

func runParse(in io.Reader, out io.Writer, opts parseOptions, logger *zap.Logger) error {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if format != "json" && format != "table" {
		return fmt.Errorf("unsupported format %q", opts.format)
	}

	parserOpts := []glossary.Option{glossary.WithLogger(logger)}
	if opts.depthFirst {
		parserOpts = append(parserOpts, glossary.WithTraversal(glossary.DepthFirst))
	}
	skipped := 0
	if opts.keepGoing {
		parserOpts = append(parserOpts, glossary.WithFragmentErrorHandler(func(err *glossary.FragmentError) {
			skipped++
		}))
	}

	result, err := glossary.NewParser(parserOpts...).Parse(in)
	if err != nil {
		return err
	}
	if skipped > 0 {
		logger.Warn("skipped bit fragments", zap.Int("count", skipped))
	}

	if format == "table" {
		_, err = io.WriteString(out, renderParseResult(result))
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
