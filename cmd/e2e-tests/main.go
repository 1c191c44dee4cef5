// Command e2e-tests builds and serves the generated application, then runs
// every Gherkin feature file in a directory against it through a real
// browser. Any scenario failure, undefined step, or pending step results in
// a nonzero exit.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/webscaffold/template-e2e/appserver"
	"github.com/webscaffold/template-e2e/browsertest"
	"github.com/webscaffold/template-e2e/framework"
)

const defaultFeaturesDir = "features"
const defaultSiteDir = "template/site"
const serverStartupTimeout = time.Second * 5

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var featuresDir string
	var siteDir string
	var projectDir string
	var buildCommand string
	var serveCommand string
	var filters framework.RegexFilters
	var debug bool

	fs := flag.NewFlagSet("e2e-tests", flag.ExitOnError)
	fs.StringVar(&featuresDir, "features", defaultFeaturesDir, "directory containing .feature files")
	fs.StringVar(&projectDir, "dir", "", "working directory for build/serve commands")
	fs.StringVar(&siteDir, "site", defaultSiteDir, "static site root to serve in-process")
	fs.StringVar(&buildCommand, "build", "", "build command to run before serving")
	fs.StringVar(&serveCommand, "serve", "", "serve command to spawn instead of serving in-process")
	fs.Var(&filters.MustMatch, "run", "regex pattern(s) to select feature files to run")
	fs.Var(&filters.MustNotMatch, "skip", "regex pattern(s) to select feature files not to run")
	fs.BoolVar(&debug, "debug", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid parameters: %s\n", err)
		return 1
	}

	logger := framework.Logger(framework.NullLogger())
	if debug {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}

	cfg := appserver.Config{
		Dir:            projectDir,
		SiteDir:        siteDir,
		BuildCommand:   splitCommand(buildCommand),
		ServeCommand:   splitCommand(serveCommand),
		StartupTimeout: serverStartupTimeout,
	}
	server, err := appserver.Start(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not start application server: %s\n", err)
		return 1
	}
	defer server.Close()

	fmt.Printf("Application server ready at %s\n", server.BaseURL())
	fmt.Println("Running feature files")

	if err := browsertest.RunFeatures(featuresDir, server.BaseURL(), logger,
		browsertest.RunOptions{Filters: filters}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func splitCommand(command string) []string {
	return strings.Fields(command)
}
