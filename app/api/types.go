package api

import (
	"context"
	"time"

	"github.com/podshift/podshift/app/feed"
)

type FetcherInterface interface {
	Run(ctx context.Context, url string) ([]byte, error)
}

type ParserInterface interface {
	Run(data []byte) (*feed.Metadata, []feed.Item, error)
}

type SchedulerInterface interface {
	Run(items []feed.Item, delay time.Duration, now time.Time) []feed.DelayedItem
	Annotate(items []feed.DelayedItem) []feed.DelayedItem
}

type GeneratorInterface interface {
	Run(metadata *feed.Metadata, items []feed.DelayedItem) (string, error)
}

var _ FetcherInterface = (*feed.Fetcher)(nil)
var _ ParserInterface = (*feed.Parser)(nil)
var _ SchedulerInterface = (*feed.Scheduler)(nil)
var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	fetcher   FetcherInterface
	parser    ParserInterface
	scheduler SchedulerInterface
	generator GeneratorInterface
}
