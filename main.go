package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kuchikomi/internal/config"
	"kuchikomi/internal/formatter"
	"kuchikomi/internal/harvest"
	"kuchikomi/internal/logging"
	"kuchikomi/internal/metrics"
	"kuchikomi/internal/review"
	_ "kuchikomi/internal/sites/directory"
	_ "kuchikomi/internal/sites/maplisting"
	_ "kuchikomi/internal/sites/travelsite"
)

var version = "dev"

var (
	mapListingURL   string
	directoryURL    string
	travelSiteURL   string
	maxReviews      int
	storeName       string
	outputFormat    string
	outputFile      string
	configFile      string
	logLevel        string
	showUI          bool
	proxyURL        string
	metricsTextfile string
)

// errNoReviews makes the command exit non-zero without printing usage.
var errNoReviews = errors.New("no reviews were collected, check the URLs")

func main() {
	var rootCmd = &cobra.Command{
		Use:     "kuchikomi",
		Short:   "Collect customer reviews of a store from map, directory and travel sites",
		Version: version,
		Long: `kuchikomi opens each review platform in its own headless browser, keeps
revealing reviews until the listing is exhausted or the limit is reached, and
writes the normalized, deduplicated records in the chosen format.

A platform that fails to load is logged and skipped; the others still run.`,
		Example: `  # Harvest all three platforms into a JSON file
  kuchikomi --name "Ramen Ichiban" \
    --map-listing "https://www.google.com/maps/place/..." \
    --directory "https://tabelog.com/tokyo/A1301/A130101/13000001/" \
    --travel-site "https://www.tripadvisor.jp/Restaurant_Review-g1066451-d1234567-Reviews-Ramen.html" \
    -o reviews.json

  # At most 100 reviews per platform, rendered as Markdown
  kuchikomi --directory "https://tabelog.com/tokyo/A1301/A130101/13000001/" -n 100 -f markdown

  # Watch the browser and export CSV
  kuchikomi --map-listing "https://www.google.com/maps/place/..." --showui -o reviews.csv`,
		Args:         cobra.NoArgs,
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&mapListingURL, "map-listing", "", "Map listing URL (infinite scroll review panel)")
	rootCmd.Flags().StringVar(&directoryURL, "directory", "", "Restaurant directory URL (paginated review list)")
	rootCmd.Flags().StringVar(&travelSiteURL, "travel-site", "", "Travel review site URL")
	rootCmd.Flags().IntVarP(&maxReviews, "max-reviews", "n", 0, "Max reviews per source (0 for no limit)")
	rootCmd.Flags().StringVar(&storeName, "name", "", "Store name used as the output title")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, csv, text, markdown, html)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	rootCmd.Flags().StringVar(&configFile, "config", "", "Config file with harvest tunables (yaml, json or toml)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL (e.g. http://127.0.0.1:7890), defaults to KUCHIKOMI_PROXY env var")
	rootCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// If output file is specified but format is not, infer format from file extension
	if outputFile != "" && !cmd.Flags().Changed("format") {
		if inferred := inferFormatFromExtension(outputFile); inferred != "" {
			outputFormat = inferred
		}
	}

	if err := validateFlags(); err != nil {
		return err
	}

	log, err := logging.New(logLevel, isatty.IsTerminal(os.Stderr.Fd()))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	launch := cfg.LaunchConfig()
	if showUI {
		launch.Headless = false
	}
	if proxyURL != "" {
		launch.ProxyURL = proxyURL
	}

	reqs := buildRequests()
	if err := harvest.Validate(reqs); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	reg := metrics.InitRegistry()
	engine := harvest.NewEngine(launch, cfg.ScraperOptions())

	log.Info().Int("sources", len(reqs)).Str("name", storeName).Msg("collecting reviews")
	report := engine.Run(ctx, reqs)
	records := report.Records()
	logSummary(log, report)

	if metricsTextfile != "" {
		if err := metrics.WriteTextfile(reg, metricsTextfile); err != nil {
			log.Warn().Err(err).Str("path", metricsTextfile).Msg("failed to write metrics")
		}
	}

	if len(records) == 0 {
		return errNoReviews
	}

	out, err := formatter.Format(formatter.NewReviewContent(storeName, records), outputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		log.Info().Str("path", outputFile).Int("records", len(records)).Msg("output written")
	} else {
		fmt.Println(out)
	}
	return nil
}

func buildRequests() []harvest.Request {
	var reqs []harvest.Request
	add := func(source review.Source, url string) {
		if url = strings.TrimSpace(url); url != "" {
			reqs = append(reqs, harvest.Request{Source: source, URL: url, Limit: maxReviews})
		}
	}
	add(review.SourceMapListing, mapListingURL)
	add(review.SourceDirectory, directoryURL)
	add(review.SourceTravelSite, travelSiteURL)
	return reqs
}

func logSummary(log zerolog.Logger, report harvest.Report) {
	for _, res := range report.Results {
		ev := log.Info()
		if res.Failed() {
			ev = log.Warn().Str("error", res.Diagnostic.String())
		}
		ev.Str("source", string(res.Request.Source)).
			Int("records", len(res.Records)).
			Str("reason", string(res.Reason)).
			Dur("elapsed", res.Elapsed).
			Msg("source summary")
	}
}

func validateFlags() error {
	if mapListingURL == "" && directoryURL == "" && travelSiteURL == "" {
		return fmt.Errorf("at least one of --map-listing, --directory or --travel-site is required")
	}

	validFormats := map[string]bool{}
	for _, f := range formatter.Formats {
		validFormats[f] = true
	}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format: %s", outputFormat)
	}

	if maxReviews < 0 {
		return fmt.Errorf("--max-reviews must not be negative: %d", maxReviews)
	}

	for flag, raw := range map[string]string{
		"--map-listing": mapListingURL,
		"--directory":   directoryURL,
		"--travel-site": travelSiteURL,
	} {
		if raw == "" {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(raw))
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return fmt.Errorf("%s must be an http(s) URL: %s", flag, raw)
		}
	}
	return nil
}

// inferFormatFromExtension infers output format from file extension
func inferFormatFromExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	case ".txt":
		return "text"
	case ".csv":
		return "csv"
	default:
		return ""
	}
}
