package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/rs/zerolog/log"

	"github.com/obsrig/ccsbridge/internal/logging"
	"github.com/obsrig/ccsbridge/internal/trending"
)

type arguments struct {
	Config    string   `arg:"positional,required" help:"trending quantities YAML file"`
	Host      string   `arg:"--host,required" help:"trending database host"`
	Port      int      `arg:"--port" default:"8080" help:"trending REST port"`
	Subsystem string   `arg:"--subsystem" default:"ts8-bench" help:"subsystem path in the channel catalog"`
	Sections  []string `arg:"--section" help:"section names to collect (default: every section)"`
	Hours     float64  `arg:"--hours" default:"24" help:"interval length in hours"`
	Start     string   `arg:"--start" help:"interval start, e.g. 2026-08-29T08:00:00"`
	End       string   `arg:"--end" help:"interval end"`
	Bins      int      `arg:"--bins" help:"number of time bins (0 lets the server choose)"`
	OutDir    string   `arg:"-o,--out-dir" default:"." help:"directory for the output tables"`
}

func main() {
	logging.ConfigureRuntime("ccstrend")

	var args arguments
	arg.MustParse(&args)

	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "ccstrend: %v\n", err)
		os.Exit(1)
	}
}

func run(args arguments) error {
	cfg, err := trending.LoadConfig(args.Config)
	if err != nil {
		return err
	}
	sections, err := selectSections(cfg, args.Sections)
	if err != nil {
		return err
	}

	axis, err := trending.NewTimeAxis(args.Hours, args.Start, args.End, args.Bins)
	if err != nil {
		return err
	}

	client := trending.NewClient(args.Host)
	client.Port = args.Port

	ctx := context.Background()
	for _, section := range sections {
		collector := trending.NewCollector(client, args.Subsystem, &axis)
		if err := collector.ReadSection(ctx, section); err != nil {
			return err
		}
		path := filepath.Join(args.OutDir, tableName(args.Subsystem, section.Name))
		if err := saveTable(collector, path); err != nil {
			return err
		}
		log.Info().Str("section", section.Name).Str("file", path).Msg("trending table written")
	}
	return nil
}

func selectSections(cfg *trending.Config, names []string) ([]trending.Section, error) {
	if len(names) == 0 {
		return cfg.Sections, nil
	}
	var out []trending.Section
	for _, name := range names {
		section, ok := cfg.Section(name)
		if !ok {
			return nil, fmt.Errorf("ccstrend: no section %q in config", name)
		}
		out = append(out, section)
	}
	return out, nil
}

func tableName(subsystem, section string) string {
	clean := func(s string) string {
		return strings.ReplaceAll(strings.ReplaceAll(s, "/", "-"), " ", "_")
	}
	return clean(subsystem) + "_" + clean(section) + ".txt"
}

func saveTable(collector *trending.Collector, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ccstrend: create table: %w", err)
	}
	if err := collector.SaveFile(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
