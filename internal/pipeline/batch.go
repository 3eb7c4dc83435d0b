package pipeline

import (
	"context"

	"github.com/dgallion1/navflat/internal/config"
	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one source of a batch.
type BatchItem struct {
	Source Source
	Result *Result
	Err    error
}

// BuildAll builds every source with at most limit running at once. A failed
// source does not stop the others; results keep the order of srcs. Sources
// not yet started when ctx is cancelled report ctx.Err().
func (b *Builder) BuildAll(ctx context.Context, srcs []Source, settings config.FlattenSettings, limit int) []BatchItem {
	items := make([]BatchItem, len(srcs))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range srcs {
		items[i].Source = src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Result, items[i].Err = b.Build(src, settings)
			return nil
		})
	}
	_ = g.Wait()
	return items
}
