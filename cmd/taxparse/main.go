// Command taxparse runs the extraction pipeline on local files without the
// HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Aashish23092/tax-form-extraction/config"
	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/export"
	"github.com/Aashish23092/tax-form-extraction/forms"
	"github.com/Aashish23092/tax-form-extraction/service"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	engines    []string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "taxparse",
		Short:         "Extract structured fields from US tax forms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("TAXOCR_CONFIG"), "YAML configuration file")
	root.PersistentFlags().StringSliceVar(&opts.engines, "engines", nil, "override the configured OCR engines (empty disables OCR)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline steps to stderr")

	root.AddCommand(newParseCmd(opts), newClassifyCmd(opts), newEnginesCmd(opts), newFormsCmd(opts))
	return root
}

// setup loads configuration and wires the pipeline for one invocation.
func setup(cmd *cobra.Command, opts *options) (*service.TaxService, []dto.EngineStatus, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("engines") {
		cfg.OCR.Engines = opts.engines
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return service.NewFromConfig(cmd.Context(), cfg, logger)
}

func newParseCmd(opts *options) *cobra.Command {
	var (
		docType  string
		xlsxPath string
		password string
	)
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract and validate the fields of one document",
		Long: `Extract and validate the fields of one document.

Files ending in .txt are read as plain text, .pdf files go through the text
layer (or OCR for scans) and anything else is treated as an image.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			src, err := readSource(args[0], password)
			if err != nil {
				return err
			}

			env := svc.Process(cmd.Context(), src, docType)
			if err := writeJSON(cmd.OutOrStdout(), env); err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := saveXLSX(xlsxPath, env, svc.Registry()); err != nil {
					return err
				}
			}
			if !env.Success {
				return fmt.Errorf("extraction failed: %s", env.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&docType, "type", "t", "auto", "declared document type (w2, 1040, schedule-c, ...) or auto")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the result as an Excel workbook")
	cmd.Flags().StringVar(&password, "password", "", "password for encrypted PDFs")
	return cmd
}

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>",
		Short: "Print the detected form type of a text document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			dt, ok := svc.Classifier().Detect(string(data))
			if !ok {
				return fmt.Errorf("no supported tax form indicators found in %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", dt, dt.DisplayName())
			return nil
		},
	}
}

func newEnginesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "Probe the configured OCR engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, statuses, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"engines": statuses})
		},
	}
}

func newFormsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List supported form types and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range svc.Registry().Forms() {
				fmt.Fprintf(out, "%s\t%s\t%s\n", f.Type(), f.Type().DisplayName(), strings.Join(f.SupportedFields(), ","))
			}
			return nil
		},
	}
}

func readSource(path, password string) (service.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return service.Source{}, err
	}
	src := service.Source{Filename: filepath.Base(path), Password: password}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		src.Text = string(data)
	case ".pdf":
		src.PDF = data
	default:
		src.Images = [][]byte{data}
	}
	return src, nil
}

func saveXLSX(path string, env *dto.ExtractionEnvelope, registry *forms.Registry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	form, _ := registry.Lookup(env.Metadata.DocumentType)
	if err := export.WriteXLSX(f, env, form); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
