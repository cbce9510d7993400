// Package search provides content search providers.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/logging"
)

// Provider searches a content catalog
type Provider interface {
	// Search returns up to maxResults items for query
	Search(ctx context.Context, query string, maxResults int) ([]core.RawItem, error)

	// Video returns a single item by ID, or core.ErrItemNotFound
	Video(ctx context.Context, id string) (core.RawItem, error)

	// Name identifies the provider in logs and metrics
	Name() string
}

// Fallback answers from Secondary whenever Primary fails
type Fallback struct {
	Primary   Provider
	Secondary Provider
}

// NewFallback chains two providers
func NewFallback(primary, secondary Provider) *Fallback {
	return &Fallback{Primary: primary, Secondary: secondary}
}

func (f *Fallback) Name() string {
	return fmt.Sprintf("%s+%s", f.Primary.Name(), f.Secondary.Name())
}

func (f *Fallback) Search(ctx context.Context, query string, maxResults int) ([]core.RawItem, error) {
	items, err := f.Primary.Search(ctx, query, maxResults)
	if err == nil {
		return items, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logging.Component("search").WithError(err).WithField("provider", f.Primary.Name()).
		Warn("Primary search failed, using %s", f.Secondary.Name())
	return f.Secondary.Search(ctx, query, maxResults)
}

func (f *Fallback) Video(ctx context.Context, id string) (core.RawItem, error) {
	item, err := f.Primary.Video(ctx, id)
	if err == nil {
		return item, nil
	}
	if errors.Is(err, core.ErrItemNotFound) || ctx.Err() != nil {
		return core.RawItem{}, err
	}
	return f.Secondary.Video(ctx, id)
}
