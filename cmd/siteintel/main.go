// Command siteintel analyzes a single URL and prints the AnalysisResult
// as JSON. Intended for one-shot local runs and shell pipelines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/use-agent/siteintel/capture"
	"github.com/use-agent/siteintel/competitive"
	"github.com/use-agent/siteintel/config"
	"github.com/use-agent/siteintel/narrative"
	"github.com/use-agent/siteintel/pipeline"
)

func main() {
	noBrowser := flag.Bool("no-browser", false, "skip the headless browser, use the plain HTTP fetcher only")
	noCache := flag.Bool("no-cache", false, "ignore the on-disk capture cache")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <url>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	rawURL := flag.Arg(0)

	cfg := config.Load()

	// CLI output is the JSON result on stdout; logs go to stderr as text.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	var store capture.Store
	if *noCache {
		store = capture.NewMemoryStore()
	} else {
		diskStore, err := capture.NewDiskStore(cfg.Capture.CacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "capture store: %v\n", err)
			os.Exit(1)
		}
		store = diskStore
	}

	var strategies []capture.Strategy
	if !*noBrowser {
		browser := capture.NewBrowserStrategy(cfg.Browser, cfg.Capture.NavigationTimeout)
		defer browser.Close()
		strategies = append(strategies, browser)
	}
	strategies = append(strategies, capture.NewHTTPStrategy())

	provider := capture.NewProvider(strategies, cfg.Capture.RequestTimeout, cfg.Capture.SideFetchTimeout)
	detector := competitive.NewDetector(competitive.NewTrafficClient(cfg.Traffic))

	var narrator pipeline.Narrator
	if cfg.Narrative.APIKey != "" {
		narrator = narrative.NewClient(cfg.Narrative, nil)
	}

	results, err := pipeline.NewResultStore(cfg.Capture.ResultsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "result store: %v\n", err)
		os.Exit(1)
	}

	p := pipeline.New(store, provider, detector, narrator, results, nil)

	result, err := p.Run(context.Background(), rawURL)
	if err != nil && result == nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	if err != nil {
		os.Exit(1)
	}
}
