package github

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"code-assistant/internal/shared/telemetry"
)

// CollectFiles walks the repository depth first from the root and returns
// up to MaxFiles decoded files whose names end in one of Extensions.
// Contents are fetched concurrently in batches; files that cannot be decoded
// and directories that cannot be listed are skipped. Results keep walk order.
func (c *Client) CollectFiles(ctx context.Context, owner, repo string, opts CollectOptions) ([]File, error) {
	opts = withDefaults(opts)

	root, err := c.listDir(ctx, owner, repo, "")
	if err != nil {
		return nil, err
	}
	w := &walker{client: c, owner: owner, repo: repo, exts: opts.Extensions}
	w.push(root)

	files := []File{}
	for len(files) < opts.MaxFiles {
		batch := w.next(ctx, opts.MaxFiles-len(files))
		if len(batch) == 0 {
			break
		}
		fetched, err := c.fetchAll(ctx, owner, repo, batch, opts.Concurrency)
		if err != nil {
			return nil, err
		}
		files = append(files, fetched...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

func withDefaults(opts CollectOptions) CollectOptions {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return opts
}

// fetchAll downloads entries with bounded concurrency. Only context errors
// abort the batch.
func (c *Client) fetchAll(ctx context.Context, owner, repo string, entries []Entry, limit int) ([]File, error) {
	results := make([]*File, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			f, err := c.File(gctx, owner, repo, e.Path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if !errors.Is(err, ErrUndecodable) {
					telemetry.Warn("github.collect.skip_file", map[string]any{
						"path":  e.Path,
						"error": err.Error(),
					})
				}
				return nil
			}
			results[i] = &f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]File, 0, len(results))
	for _, f := range results {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

// walker yields matching file entries in depth-first order, listing
// directories lazily.
type walker struct {
	client *Client
	owner  string
	repo   string
	exts   []string
	stack  []Entry
}

func (w *walker) push(entries []Entry) {
	for i := len(entries) - 1; i >= 0; i-- {
		w.stack = append(w.stack, entries[i])
	}
}

func (w *walker) next(ctx context.Context, n int) []Entry {
	var out []Entry
	for len(out) < n && len(w.stack) > 0 {
		if ctx.Err() != nil {
			return out
		}
		e := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		switch e.Type {
		case "file":
			if hasExtension(e.Name, w.exts) {
				out = append(out, e)
			}
		case "dir":
			children, err := w.client.listDir(ctx, w.owner, w.repo, e.Path)
			if err != nil {
				telemetry.Warn("github.collect.skip_dir", map[string]any{
					"path":  e.Path,
					"error": err.Error(),
				})
				continue
			}
			w.push(children)
		}
	}
	return out
}

func hasExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if ext != "" && strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
