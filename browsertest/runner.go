package browsertest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/webscaffold/template-e2e/framework"
)

// RunOptions configures a feature-directory run.
type RunOptions struct {
	// Filters selects feature files by name; an empty value runs everything.
	Filters framework.RegexFilters
	// Format is a godog output format name; "pretty" if empty.
	Format string
	// Output receives the godog report; os.Stdout if nil.
	Output io.Writer
}

// RunFeatures runs every Gherkin feature file in dir against the application
// at baseURL. Files without a .feature extension are skipped, as are files
// excluded by the filters. Any scenario failure, and any undefined or pending
// step, makes the whole run fail; the returned error names the failing files.
func RunFeatures(dir string, baseURL string, logger framework.Logger, opts RunOptions) error {
	files, err := featureFilesIn(dir, opts.Filters)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no feature files to run in %s", dir)
	}

	initializer := func(sc *godog.ScenarioContext) {
		RegisterSteps(sc, baseURL, logger)
	}

	var failed []string
	for _, file := range files {
		if status := runFeatureFile(file, initializer, opts); status != 0 {
			failed = append(failed, filepath.Base(file))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("feature files failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

func featureFilesIn(dir string, filters framework.RegexFilters) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".feature" {
			continue
		}
		if !filters.Match(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func runFeatureFile(path string, initializer func(*godog.ScenarioContext), opts RunOptions) int {
	format := opts.Format
	if format == "" {
		format = "pretty"
	}
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	suite := godog.TestSuite{
		Name:                strings.TrimSuffix(filepath.Base(path), ".feature"),
		ScenarioInitializer: initializer,
		Options: &godog.Options{
			Format: format,
			Paths:  []string{path},
			Output: output,
			// Undefined and pending steps are failures, not skips; a
			// silently skipped scenario would look like a pass.
			Strict: true,
		},
	}
	return suite.Run()
}
