package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"

	"github.com/obsrig/ccsbridge/internal/harness"
	"github.com/obsrig/ccsbridge/internal/interp"
	"github.com/obsrig/ccsbridge/internal/logging"
)

type arguments struct {
	Config  string `arg:"positional,required" help:"job config TOML file"`
	Host    string `arg:"--host" help:"override the interpreter host"`
	Port    int    `arg:"--port" help:"override the interpreter port"`
	Verbose bool   `arg:"-v,--verbose" help:"log each setup command as it runs"`
}

func main() {
	logging.ConfigureRuntime("ccsrun")

	var args arguments
	arg.MustParse(&args)

	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "ccsrun: %v\n", err)
		os.Exit(1)
	}
}

func run(args arguments) error {
	cfg, err := harness.LoadJobConfig(args.Config)
	if err != nil {
		return err
	}
	if args.Host != "" {
		cfg.Host = args.Host
	}
	if args.Port != 0 {
		cfg.Port = args.Port
	}

	job, err := harness.JobName()
	if err != nil {
		return err
	}
	setup, err := harness.FromEnvironment(cfg.SetupConfig)
	if err != nil {
		return err
	}
	for _, p := range cfg.SysPaths {
		setup.AddSysPath(p)
	}

	ctx := context.Background()
	client, err := interp.Connect(ctx, interp.Config{
		Host: cfg.Host,
		Port: cfg.Port,
		Name: cfg.Name,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = harness.RunJob(ctx, client, job, cfg.Script, setup, cfg.Verbose || args.Verbose)
	return err
}
