package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stock-valuator/internal/app"
	"stock-valuator/models"
	"stock-valuator/valuation"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbol]",
	Short: "Fetch and score one symbol",
	Long:  "Fetch quote, profile and ratios for a symbol and print the scored report as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		template, _ := cmd.Flags().GetString("template")

		application := newApp(cfg)
		report, err := application.AnalyzeSymbol(cmd.Context(), args[0], template)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), report)
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a saved metrics bundle without calling the provider",
	Long: `Read a score request ({"identity": {...}, "metrics": {...}, "templateOverride": "..."})
from a file, or from stdin with --file -, and print the result as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		template, _ := cmd.Flags().GetString("template")

		req, err := readScoreRequest(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}
		if template != "" {
			req.TemplateOverride = template
		}

		result, err := app.New(cfg, nil).Score(req)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), result)
	},
}

var screenCmd = &cobra.Command{
	Use:   "screen [symbols...]",
	Short: "Score and rank several symbols",
	Long: `Score each symbol and print the ranked run as JSON. Without symbols the
current movers list is screened instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		movers, _ := cmd.Flags().GetString("movers")
		template, _ := cmd.Flags().GetString("template")

		run, err := newApp(cfg).Screen(cmd.Context(), app.ScreenRequest{
			Symbols:    args,
			MoversKind: models.ParseMoverKind(movers),
			Template:   strings.ToUpper(template),
		})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), run)
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Print the scoring templates and their thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printPolicies(cmd.OutOrStdout(), app.New(cfg, nil).Templates())
	},
}

func init() {
	analyzeCmd.Flags().String("template", "", "template override (AUTO, DEFAULT, TECH, BANKS, ENERGY)")
	screenCmd.Flags().String("movers", "gainers", "movers list screened when no symbols are given (gainers, losers, active)")
	screenCmd.Flags().String("template", "", "template override applied to every symbol")
	scoreCmd.Flags().String("file", "-", "score request JSON file, - for stdin")
	scoreCmd.Flags().String("template", "", "template override")
}

func readScoreRequest(stdin io.Reader, path string) (models.ScoreRequest, error) {
	r := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return models.ScoreRequest{}, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	return valuation.DecodeScoreRequest(r)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPolicies(w io.Writer, policies []valuation.Policy) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TEMPLATE\tWEIGHTS (V/Q/R)\tP/E\tP/S\tP/B")
	for _, p := range policies {
		fmt.Fprintf(tw, "%s\t%.2f/%.2f/%.2f\t%s\t%s\t%s\n",
			p.Template,
			p.Weights.Valuation, p.Weights.Quality, p.Weights.Risk,
			bandString(p.PE), bandString(p.PS), bandString(p.PB))
	}
	return tw.Flush()
}

// bandString renders a lower-is-better band as good/ok/bad cut points
func bandString(b valuation.Band) string {
	parts := make([]string, 0, 3)
	for _, v := range []float64{b.Good, b.OK, b.Bad} {
		parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, "/")
}
