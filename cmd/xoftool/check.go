package main

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/xofkit/internal/assets"
	"github.com/Faultbox/xofkit/pkg/xfile"
)

type checkResult struct {
	Path   string
	Issues []xfile.Issue
	Err    error
}

// checkScenes parses and lints paths with up to workers files in flight.
// Parse failures are recorded per file; only cancellation aborts the batch.
func checkScenes(ctx context.Context, m *assets.Manager, paths []string, workers int) ([]checkResult, error) {
	results := make([]checkResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range paths {
		results[i].Path = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scene, err := m.LoadScene(path)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Issues = scene.Check()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeCheck prints one block per file and reports whether any file failed
// to parse or has error-level issues.
func writeCheck(w *reportWriter, results []checkResult) bool {
	var failed, warnings int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			w.line("FAIL\t%s\t%v", r.Path, r.Err)
		case xfile.HasErrors(r.Issues):
			failed++
			w.line("FAIL\t%s\t%d issues", r.Path, len(r.Issues))
		case len(r.Issues) > 0:
			w.line("WARN\t%s\t%d issues", r.Path, len(r.Issues))
		default:
			w.line("ok\t%s", r.Path)
		}
		for _, issue := range r.Issues {
			if issue.Severity == xfile.SeverityWarning {
				warnings++
			}
			w.line("\t  %s", issue)
		}
	}

	w.line("")
	w.line("%d files, %d failed, %d warnings", len(results), failed, warnings)
	return failed > 0
}
