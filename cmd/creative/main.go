// creative - Localized social creatives with brand-compliance scoring.
//
// Usage:
//
//	creative --brief <path> [-o <dir>] [options]
//	creative describe --brief <path>
//	creative serve [--addr :8080]
//	creative init
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/xob0t/creativekit/clients/server"
	"github.com/xob0t/creativekit/pkg/campaign"
	"github.com/xob0t/creativekit/pkg/colors"
	"github.com/xob0t/creativekit/pkg/config"
	"github.com/xob0t/creativekit/pkg/export"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "describe":
		err = runDescribe(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	case "serve":
		err = withConfig(func(cfg config.Config, logger *slog.Logger) error {
			return runServe(ctx, os.Args[2:], cfg, logger)
		})
	case "compose":
		err = withConfig(func(cfg config.Config, logger *slog.Logger) error {
			return run(ctx, os.Args[2:], cfg, logger)
		})
	default:
		// Default: compose mode (all flags on root).
		err = withConfig(func(cfg config.Config, logger *slog.Logger) error {
			return run(ctx, os.Args[1:], cfg, logger)
		})
	}
	if err != nil {
		stop()
		fatal(err)
	}
}

// withConfig loads the environment configuration and logger for the
// commands that compose.
func withConfig(fn func(config.Config, *slog.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	return fn(cfg, logger)
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(ctx context.Context, args []string, cfg config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("creative", flag.ExitOnError)

	var (
		briefPath string
		output    string
		assets    string
		format    string
		aspects   string
		rules     string
	)

	fs.StringVar(&briefPath, "brief", "", "Path to the campaign brief JSON")
	fs.StringVar(&output, "o", cfg.OutputDir, "Output directory")
	fs.StringVar(&output, "output", cfg.OutputDir, "Output directory")
	fs.StringVar(&assets, "assets", "assets", "Comma-separated directories searched for product images")
	fs.StringVar(&format, "format", "png", "Output format: png or jpg")
	fs.StringVar(&aspects, "aspect", "", "Comma-separated aspect ratios, overriding the brief")
	fs.StringVar(&rules, "rules", "", "Moderation rules JSON (default: $CREATIVE_MODERATION_RULES)")

	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	if briefPath == "" {
		printUsage()
		return fmt.Errorf("brief is required (--brief)")
	}

	brief, err := campaign.ParseBriefFile(briefPath)
	if err != nil {
		return err
	}
	if aspects != "" {
		brief.AspectRatios = splitList(aspects)
	}

	composer, err := cfg.NewComposer(logger)
	if err != nil {
		return fmt.Errorf("composer: %w", err)
	}

	moderator, err := cfg.NewModerator(rules)
	if err != nil {
		return err
	}

	assetDirs := splitList(assets)
	assetDirs = append(assetDirs, filepath.Dir(briefPath))

	pipeline, err := campaign.NewPipeline(campaign.Options{
		Composer:  composer,
		OutputDir: output,
		AssetDirs: assetDirs,
		Ext:       "." + strings.TrimPrefix(format, "."),
		Moderator: moderator,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	for _, w := range campaign.Lint(brief) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	fmt.Printf("Processing campaign: %s\n", brief.CampaignID)
	report, err := pipeline.Run(ctx, brief)
	if report != nil {
		fmt.Print(campaign.FormatReport(report))
		fmt.Printf("Report: %s\n", filepath.Join(pipeline.CampaignDir(brief), "report.json"))
	}
	if err != nil {
		return err
	}
	if report.VariationsCreated == 0 {
		return errors.New("no variations were created")
	}
	return nil
}

func runDescribe(args []string) error {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	var briefPath string
	fs.StringVar(&briefPath, "brief", "", "Path to the campaign brief JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if briefPath == "" {
		return fmt.Errorf("--brief is required for describe command")
	}

	brief, err := campaign.ParseBriefFile(briefPath)
	if err != nil {
		return err
	}

	fmt.Print(campaign.FormatSummary(brief))
	if warnings := campaign.Lint(brief); len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var briefOut, assetDir string
	var sample bool
	fs.StringVar(&briefOut, "brief", "brief.json", "Output path for the sample brief")
	fs.StringVar(&assetDir, "assets", "assets", "Directory for the sample product image")
	fs.BoolVar(&sample, "sample-image", true, "Also write a placeholder product image")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.WriteFile(briefOut, []byte(campaign.GetExampleJSON()), 0o644); err != nil {
		return fmt.Errorf("write brief: %w", err)
	}
	created := []string{briefOut}

	if sample {
		top := colors.RGB{R: 46, G: 125, B: 50}
		bottom := colors.White
		img, err := export.Placeholder(1080, 1080, &top, &bottom)
		if err != nil {
			return err
		}
		path := filepath.Join(assetDir, "cold_brew_coffee.png")
		if err := export.Save(path, img); err != nil {
			return err
		}
		created = append(created, path)
	}

	fmt.Printf("Created: %s\n", strings.Join(created, ", "))
	fmt.Printf("Run: creative --brief %s --assets %s\n", briefOut, assetDir)
	return nil
}

func runServe(ctx context.Context, args []string, cfg config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var addr, format string
	fs.StringVar(&addr, "addr", cfg.Addr, "Listen address")
	fs.StringVar(&format, "format", "png", "Encoding of served creatives: png or jpg")
	if err := fs.Parse(args); err != nil {
		return err
	}

	composer, err := cfg.NewComposer(logger)
	if err != nil {
		return fmt.Errorf("composer: %w", err)
	}

	return server.RunServe(ctx, addr, server.Options{
		Composer: composer,
		Ext:      "." + strings.TrimPrefix(format, "."),
		Logger:   logger,
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`creative - Localized social creatives with brand-compliance scoring

USAGE:
    creative --brief <path> [options]
    creative describe --brief <path>
    creative serve [--addr :8080]
    creative init [options]

COMPOSE:
    --brief <path>         Campaign brief JSON
    -o, --output <dir>     Output directory (default: $CREATIVE_OUTPUT_DIR or output)
    --assets <dirs>        Comma-separated product image directories (default: assets)
    --format <fmt>         png or jpg (default: png)
    --aspect <list>        Aspect ratios to render, e.g. 1x1,9x16 (default: brief or all)
    --rules <path>         Moderation rules JSON merged onto the built-in rules

DESCRIBE:
    creative describe --brief <path>    Print the brief and any warnings

API SERVER:
    creative serve [--addr :8080]       POST /api/compose, GET /api/assets/{id}

INIT:
    creative init                       Write brief.json and assets/cold_brew_coffee.png

ENVIRONMENT:
    LOG_LEVEL, LOG_FORMAT, CREATIVE_MIN_CONTRAST, CREATIVE_FONT_PATH, CREATIVE_FONT_DIRS,
    CREATIVE_MODERATION_RULES, CREATIVE_VIGNETTE, CREATIVE_WORKERS and the other CREATIVE_*
    thresholds. A .env file is read if present.

EXAMPLES:
    creative init
    creative --brief brief.json
    creative --brief brief.json -o out --format jpg --aspect 1x1
    creative describe --brief brief.json
    creative serve --addr :9090
`)
}
