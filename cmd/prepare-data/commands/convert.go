package commands

import (
	"path/filepath"
	"strings"

	"go-data-prep/internal/model"
	"go-data-prep/internal/pipeline"
	"go-data-prep/pkg/errors"
	"go-data-prep/pkg/utils"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type convertOptions struct {
	fields  string
	lenient bool
}

func newConvertCmd(g *GlobalOptions) *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert <source> <dest>",
		Short: "Convert one JSON lines file to CSV",
		Long: `Convert one JSON lines file to CSV without touching the configured jobs.
Use "-" as source to read standard input and "-" as dest to write standard output.`,
		Example: `  prepare-data convert --fields title,manufacturer,currency,price listings.txt listings.csv
  cat products.txt | prepare-data convert --fields product_name,model - -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convertOne(cmd, g, opts, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&opts.fields, "fields", "", "Comma-separated output columns, in order (required)")
	cmd.Flags().BoolVar(&opts.lenient, "lenient", false, "Skip malformed lines instead of failing")
	_ = cmd.MarkFlagRequired("fields")
	return cmd
}

func convertOne(cmd *cobra.Command, g *GlobalOptions, opts *convertOptions, source, dest string) error {
	fields := utils.SplitList(opts.fields)
	if len(fields) == 0 {
		return errors.WithHint(
			errors.Wrap(errors.ErrInvalidRequest, "no fields given"),
			"pass --fields a,b,c in column order")
	}

	a, err := g.load(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if dest == "-" {
		src, err := pipeline.OpenSource(source)
		if err != nil {
			return err
		}
		defer src.Close()

		conv := &pipeline.Converter{
			Fields: fields,
			Strict: !opts.lenient,
			Source: source,
			Dest:   "stdout",
			Log:    a.log,
		}
		_, err = conv.Convert(pipeline.NewLineReader(src), cmd.OutOrStdout())
		return err
	}

	job := model.Job{
		Name:   strings.TrimSuffix(filepath.Base(dest), filepath.Ext(dest)),
		Source: source,
		Dest:   dest,
		Fields: fields,
	}
	// paths are taken as given, not resolved under output_dir
	result, err := pipeline.ConvertFile(job, "", !opts.lenient, a.log)
	if err != nil {
		return err
	}

	pterm.Success.Printf("Wrote %d row(s) to %s\n", result.RowsWritten, result.Dest)
	if result.Skipped > 0 {
		pterm.Warning.Printf("Skipped %d malformed line(s)\n", result.Skipped)
	}
	return nil
}
