package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/internal/extract"
	"github.com/pdiddy/doc2md/internal/formatter"
	"github.com/pdiddy/doc2md/internal/office"
	"github.com/pdiddy/doc2md/internal/prompt"
	"github.com/pdiddy/doc2md/pkg/types"
)

const defaultInputDir = "input_files"

// detectHost finds the office host for legacy .doc files.
var detectHost = office.DetectRuntime

var convertCmd = &cobra.Command{
	Use:   "convert [input-dir]",
	Short: "Convert every document in a directory to Markdown",
	Long: `Convert lists input-dir (not recursively), extracts the text of each .doc,
.docx and .pdf file, sends it to Gemini with a formatting prompt, and writes
<name>.md to the output directory. Other files are counted as skipped.

The run stops before touching any file when no API key is configured. Each
document otherwise succeeds or fails on its own; the command exits non-zero
when any document failed.`,
	Args: cobra.MaximumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		bindAIFlags(cmd)
		f := cmd.Flags()
		_ = viper.BindPFlag("output_dir", f.Lookup("output-dir"))
		_ = viper.BindPFlag("subject", f.Lookup("subject"))
		_ = viper.BindPFlag("types", f.Lookup("types"))
		_ = viper.BindPFlag("skip_existing", f.Lookup("skip-existing"))
		_ = viper.BindPFlag("prompt_template", f.Lookup("prompt-template"))
		_ = viper.BindPFlag("report", f.Lookup("report"))
	},
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.String("output-dir", convert.DefaultOutputDir, "directory for the generated Markdown files")
	f.String("subject", prompt.DefaultSubject, "subject-matter hint included in the prompt")
	f.StringSlice("types", nil, "extensions to process, e.g. .doc,.pdf (default: every available format)")
	f.Bool("skip-existing", false, "leave documents alone whose Markdown already exists")
	f.String("prompt-template", "", "file holding a custom prompt template (Go text/template)")
	f.String("report", "", "write a YAML run report to this path")
	addAIFlags(convertCmd)

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputDir := viper.GetString("input_dir")
	if len(args) == 1 {
		inputDir = args[0]
	}
	if inputDir == "" {
		inputDir = defaultInputDir
	}

	formats, err := parseTypes(viper.GetStringSlice("types"))
	if err != nil {
		return err
	}

	pb, err := loadPrompt(viper.GetString("prompt_template"))
	if err != nil {
		return err
	}

	cfg := types.ConversionConfig{
		InputDir:     inputDir,
		OutputDir:    viper.GetString("output_dir"),
		Subject:      viper.GetString("subject"),
		Types:        formats,
		SkipExisting: viper.GetBool("skip_existing"),
		ReportPath:   viper.GetString("report"),
	}

	// Probing the office host starts soffice; a missing key fails first.
	ai := aiConfig()
	if err := formatter.CheckCredential(ai.APIKey); err != nil {
		return err
	}

	host, hostErr := detectHost()
	if hostErr != nil {
		logger.Warn("legacy .doc support disabled", "reason", hostErr)
	}
	caps := extract.DetectCapabilities(host, hostErr)

	result, err := convert.RunBatch(cmd.Context(), cfg, ai, convert.Deps{
		Registry:     extract.NewRegistry(caps, host, logger),
		Capabilities: caps,
		Prompt:       pb,
		Logger:       logger,
		Out:          cmd.OutOrStdout(),
	})
	return batchError(result, err)
}

// batchError turns a finished batch into the command's error: the run
// error itself, or a count of failed documents.
func batchError(result convert.BatchResult, err error) error {
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed conversion", result.Failed)
	}
	return nil
}

// parseTypes maps extensions such as ".doc" or "pdf" to formats.
func parseTypes(exts []string) ([]types.Format, error) {
	var out []types.Format
	for _, e := range exts {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		f, ok := types.FormatForExt(e)
		if !ok {
			return nil, fmt.Errorf("unsupported type %q: use .doc, .docx or .pdf", e)
		}
		out = append(out, f)
	}
	return out, nil
}

func loadPrompt(path string) (*prompt.Builder, error) {
	if path == "" {
		return prompt.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt template: %w", err)
	}
	return prompt.New(string(data))
}
