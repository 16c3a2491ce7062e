package submission

import (
	"context"
	"errors"
	"fmt"

	"webcat-submit/internal/scrapers/webcat"

	"golang.org/x/sync/errgroup"
)

// LoadTargets fetches the targets of every submit URL at once. Roots that
// could be fetched are returned in the order of urls even when others
// failed, the failures are joined into the error.
func LoadTargets(ctx context.Context, client Client, urls []string) ([]webcat.SubmissionRoot, error) {
	roots := make([]webcat.SubmissionRoot, len(urls))
	errs := make([]error, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, url := range urls {
		g.Go(func() error {
			root, err := client.Targets(gctx, url)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", url, err)
				return nil
			}
			roots[i] = root
			return nil
		})
	}
	g.Wait()

	var loaded []webcat.SubmissionRoot
	for i, root := range roots {
		if errs[i] == nil {
			loaded = append(loaded, root)
		}
	}
	return loaded, errors.Join(errs...)
}
