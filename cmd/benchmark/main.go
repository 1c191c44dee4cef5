// Command benchmark measures UI-interaction latency of the generated
// application over repeated trials and prints a statistical summary.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/webscaffold/template-e2e/appserver"
	"github.com/webscaffold/template-e2e/benchmark"
	"github.com/webscaffold/template-e2e/framework"
)

const defaultIterations = 20
const defaultSiteDir = "template/site"
const serverStartupTimeout = time.Second * 5

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var iterations int
	var siteDir string
	var projectDir string
	var buildCommand string
	var serveCommand string
	var debug bool

	fs := flag.NewFlagSet("benchmark", flag.ExitOnError)
	fs.IntVar(&iterations, "iterations", defaultIterations, "number of trials to run for each benchmark")
	fs.StringVar(&projectDir, "dir", "", "working directory for build/serve commands")
	fs.StringVar(&siteDir, "site", defaultSiteDir, "static site root to serve in-process")
	fs.StringVar(&buildCommand, "build", "", "build command to run before serving")
	fs.StringVar(&serveCommand, "serve", "", "serve command to spawn instead of serving in-process")
	fs.BoolVar(&debug, "debug", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid parameters: %s\n", err)
		return 1
	}
	if iterations < 1 {
		fmt.Fprintln(os.Stderr, "-iterations must be at least 1")
		return 1
	}

	logger := framework.Logger(framework.NullLogger())
	if debug {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}

	cfg := appserver.Config{
		Dir:            projectDir,
		SiteDir:        siteDir,
		BuildCommand:   strings.Fields(buildCommand),
		ServeCommand:   strings.Fields(serveCommand),
		StartupTimeout: serverStartupTimeout,
	}
	runner, err := benchmark.NewRunner(cfg, iterations, logger, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not start benchmark run: %s\n", err)
		return 1
	}
	defer runner.Close()

	results, err := runner.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Benchmark run failed: %s\n", err)
		return 1
	}

	results.PrintSummary(os.Stdout)
	return 0
}
