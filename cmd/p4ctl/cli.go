package main

import "flag"

// Options holds CLI options for the controller.
type Options struct {
	ConfigPath string
	DryRun     bool
}

// ParseFlags parses CLI flags from args and returns Options.
func ParseFlags(args []string) Options {
	fs := flag.NewFlagSet("p4ctl", flag.ExitOnError)
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Build and log requests without sending them")
	_ = fs.Parse(args)
	return opts
}
