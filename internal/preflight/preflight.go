package preflight

import (
	"context"
	"fmt"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))

	results = append(results, CheckLLM(ctx, cfg))
	results = append(results, CheckTTS(ctx, cfg))
	results = append(results, CheckYouTube(ctx, cfg))

	if cfg.Source.Backend == config.BackendSheets {
		results = append(results, CheckSheetsCredentials(cfg))
	}

	return results
}

// Failures filters results down to the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// Err converts failed results into a single configuration error, or nil when
// every check passed.
func Err(results []Result) error {
	failed := Failures(results)
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(failed))
	for _, result := range failed {
		names = append(names, fmt.Sprintf("%s (%s)", result.Name, result.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "run_all",
		"preflight checks failed: "+strings.Join(names, "; "), nil)
}
