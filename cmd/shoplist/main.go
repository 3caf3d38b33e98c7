package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/idilsaglam/shoplist/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	configPath := flag.String("config", "", "config file (default $XDG_CONFIG_HOME/shoplist/config.toml)")
	dbPath := flag.String("db", "", "database file, overrides the config")
	forceColor := flag.Bool("color", false, "force colored output")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	code := cli.Run(args, cli.Options{
		ConfigPath: *configPath,
		DBPath:     *dbPath,
		ForceColor: *forceColor,
		NoColor:    *noColor,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
