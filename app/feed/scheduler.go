package feed

import (
	"fmt"
	"time"
)

// Scheduler decides which items have "aired" under a delayed replay of the
// feed. Time is always an explicit input, never read from the clock, so the
// component stays a pure function.
type Scheduler struct{}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Run returns the releasable items in origin order. An item is releasable
// iff its original publication instant plus the delay is at or before now;
// its displayed publication instant is exactly that shifted instant.
func (s *Scheduler) Run(items []Item, delay time.Duration, now time.Time) []DelayedItem {
	released := make([]DelayedItem, 0, len(items))

	for _, item := range items {
		releaseAt := item.PublishedAt.Add(delay)
		if releaseAt.After(now) {
			continue
		}
		released = append(released, DelayedItem{
			Item:        item,
			DisplayedAt: releaseAt,
		})
	}

	return released
}

// Annotate prefixes each item's description with its original publication
// date, so a listener of the delayed feed can tell when an episode actually
// aired. Opt-in; the default pipeline leaves descriptions untouched.
func (s *Scheduler) Annotate(items []DelayedItem) []DelayedItem {
	annotated := make([]DelayedItem, 0, len(items))

	for _, item := range items {
		if item.Description != "" {
			item.Description = fmt.Sprintf("(originally published on %s) %s",
				item.PublishedAt.Format(time.RFC1123Z), item.Description)
		}
		annotated = append(annotated, item)
	}

	return annotated
}
