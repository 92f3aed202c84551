package mirror

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	intlog "github.com/toothbrush/confluence-mirror/internal/log"
)

// Walker drives the recursive mirror of a page subtree.  Each visited page is
// materialized, then its children are discovered and walked either all at
// once (parallel, capped by Workers) or one at a time in listing order.  Both
// disciplines produce the same file tree and the same error count; they only
// differ in wall-clock time and request interleaving.
//
// Failures are contained per node: a page that fails to materialize is
// logged, counted, and its children are never enumerated, while its siblings
// carry on.  The walk itself always runs to completion.
//
// Pages reachable through more than one parent are written once per visit;
// there is no deduplication of ids, and a truly cyclic structure would
// recurse without bound.
type Walker struct {
	Client       *TreeClient
	Materializer *Materializer
	Stats        *RunStats
	Logger       *slog.Logger

	// Parallel selects the concurrency discipline for the whole run.
	Parallel bool

	// Workers caps the number of in-flight child walks per node when running
	// in parallel.  Zero or negative means no cap.
	Workers int

	// ShowProgress renders an mpb counter while the walk runs.
	ShowProgress bool

	bar *mpb.Bar
}

// Walk mirrors the subtree rooted at rootID into the store.
func (w *Walker) Walk(ctx context.Context, rootID string) {
	var progress *mpb.Progress
	if w.ShowProgress {
		progress = mpb.New(mpb.WithWidth(64))
		w.bar = progress.New(0,
			mpb.SpinnerStyle(),
			mpb.PrependDecorators(
				decor.Name("pages:", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			),
			mpb.AppendDecorators(
				decor.CurrentNoUnit("%d"),
			),
		)
	}

	w.walk(ctx, Node{ID: rootID}, "", 0)

	if progress != nil {
		// total was unknown up front; whatever we reached is the total.
		w.bar.SetTotal(-1, true)
		progress.Wait()
	}
}

func (w *Walker) walk(ctx context.Context, node Node, parentPath string, level int) {
	materialized, err := w.Materializer.Materialize(ctx, node, Location{
		ParentPath: parentPath,
		Level:      level,
	})
	if err != nil {
		w.Logger.Error("page not mirrored, skipping its subtree",
			slog.String("id", node.ID),
			slog.Int("level", level),
			slog.Any("error", err))
		w.Stats.RecordError()
		return
	}

	w.Stats.RecordPage(level)
	if w.bar != nil {
		w.bar.Increment()
	}
	intlog.Success(w.Logger, "mirrored page",
		slog.String("path", path.Join(parentPath, materialized.Filename)))

	children := w.Client.FetchChildren(ctx, node.ID)
	if len(children) == 0 {
		return
	}

	childDir := path.Join(parentPath, strings.TrimSuffix(materialized.Filename, ".md"))
	if err := w.Materializer.EnsureDir(childDir); err != nil {
		w.Logger.Error("couldn't create child directory, skipping subtree",
			slog.String("id", node.ID),
			slog.Any("error", err))
		w.Stats.RecordError()
		return
	}

	if w.Parallel {
		grp := errgroup.Group{}
		if w.Workers > 0 {
			grp.SetLimit(w.Workers)
		}
		for _, child := range children {
			child := child
			grp.Go(func() error {
				// each child contains its own failures; nothing to bubble up.
				w.walk(ctx, Node{ID: child.ID, Title: child.Title}, childDir, level+1)
				return nil
			})
		}
		// never returns an error, but do wait for the whole sibling set.
		_ = grp.Wait()
	} else {
		for _, child := range children {
			w.walk(ctx, Node{ID: child.ID, Title: child.Title}, childDir, level+1)
		}
	}
}
