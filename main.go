package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/metrico/covidpipe/config"
	"github.com/metrico/covidpipe/fetch"
	"github.com/metrico/covidpipe/logging"
	"github.com/metrico/covidpipe/merge"
	"github.com/metrico/covidpipe/model"
)

// initFlags initializes the command line flags
func initFlags() *model.CommandLineFlags {
	appFlags := &model.CommandLineFlags{}
	appFlags.Config = flag.String("config", "", "Path to the configuration file. Default none")
	appFlags.Sources = flag.String("sources", "", "Path to the sources manifest. Default none")
	appFlags.Output = flag.String("output", "", "Path to the output file. Overrides the configuration")
	appFlags.AcceptOverwrite = flag.Bool("y", false, "Overwrite the output file if it exists. Default false")
	appFlags.LogLevel = flag.String("log-level", "", "Log level. Overrides the configuration")
	appFlags.LogFormat = flag.String("log-format", "", "Log format, text or json. Overrides the configuration")
	flag.Parse()

	return appFlags
}

var appFlags *model.CommandLineFlags

func main() {
	appFlags = initFlags()
	config.InitConfig(*appFlags.Config)
	cfg := config.Config

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if *appFlags.LogLevel != "" {
		level = *appFlags.LogLevel
	}
	if *appFlags.LogFormat != "" {
		format = *appFlags.LogFormat
	}
	logging.Setup(level, format)

	output := cfg.Pipeline.Output
	if *appFlags.Output != "" {
		output = *appFlags.Output
	}
	if _, err := os.Stat(output); err == nil && !*appFlags.AcceptOverwrite {
		fmt.Fprintf(os.Stderr, "%s already exists, pass -y to overwrite it\n", output)
		os.Exit(1)
	}

	overrides := map[string]merge.Override{}
	sourcesFile := cfg.Pipeline.Sources
	if *appFlags.Sources != "" {
		sourcesFile = *appFlags.Sources
	}
	if sourcesFile != "" {
		sources, err := config.LoadSources(sourcesFile)
		if err != nil {
			slog.Error("cannot load sources manifest", "error", err)
			os.Exit(1)
		}
		for _, s := range sources.Sources {
			overrides[s.Name] = merge.Override{Location: s.Location, Filter: s.Filter}
		}
	}

	reg := merge.NewRegistry()
	if err := merge.RegisterBuiltins(reg, overrides); err != nil {
		slog.Error("cannot register datasets", "error", err)
		os.Exit(1)
	}
	// A known duplicate territory of the primary source; its numbers are
	// already reported under Ireland.
	reg.RegisterProcessor(merge.MustFilterExpr(`Country_Region != "Republic of Ireland"`))
	for _, c := range cfg.Pipeline.DropCountries {
		reg.RegisterProcessor(merge.MustFilterExpr(
			fmt.Sprintf("Country_Region != %q", c)))
	}
	reg.RegisterProcessor(merge.PopulationMetricsProcessor)

	fetcher := fetch.NewClient(time.Duration(cfg.Pipeline.FetchTimeoutS) * time.Second)
	loader := merge.NewLoader(reg, fetcher, merge.Options{
		PrimaryBase:  cfg.Pipeline.PrimaryBase,
		Prefetch:     cfg.Pipeline.Prefetch,
		FetchTimeout: time.Duration(cfg.Pipeline.FetchTimeoutS) * time.Second,
	})

	result, err := loader.Load(context.Background())
	if err != nil {
		slog.Error("load failed", "error", err)
		os.Exit(1)
	}
	if err := merge.WriteOutput(result, output); err != nil {
		slog.Error("cannot write output", "error", err)
		os.Exit(1)
	}
	slog.Info("data written", "output", output, "rows", result.NumRows())
}
