package feed

import (
	"fmt"
	"time"
)

// Dialect identifies the syndication format a feed was recognized as.
// It is resolved once at parse time and carried on the metadata so the
// generator emits the same format the client subscribed to.
type Dialect string

const (
	DialectRSS  Dialect = "rss"
	DialectAtom Dialect = "atom"
)

func (d Dialect) ContentType() string {
	switch d {
	case DialectAtom:
		return "application/atom+xml; charset=utf-8"
	default:
		return "application/rss+xml; charset=utf-8"
	}
}

// Feed processing types

type Metadata struct {
	Dialect     Dialect
	Title       string
	Link        string
	Description string
	ImageURL    string
	Language    string
	Copyright   string
	Authors     []string
	Categories  []string

	FeedPublishedAt *time.Time
	FeedUpdatedAt   *time.Time

	// SelfURL is the canonical URL of the transformed feed. Output only,
	// set by the caller when a public base URL is configured.
	SelfURL string
}

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time // original publication instant, never mutated
	UpdatedAt   *time.Time
	Authors     []string // Multiple authors in format "email (name)" or "name"
	Categories  []string

	EnclosureURL    string // media enclosure URL
	EnclosureLength int64  // media enclosure length in bytes
	EnclosureType   string // media enclosure MIME type
	Duration        string // itunes:duration, passed through verbatim
	ImageURL        string // itunes:image, passed through verbatim
}

// DelayedItem is an Item annotated with the instant it should appear to
// have been published at. PublishedAt is shadowed for output, not changed.
type DelayedItem struct {
	Item
	DisplayedAt time.Time
}

// Error types

type ParseReason string

const (
	ReasonNotWellFormedXML   ParseReason = "not_well_formed_xml"
	ReasonUnrecognizedFormat ParseReason = "unrecognized_format"
)

type ParseError struct {
	Reason ParseReason
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse feed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to parse feed (%s)", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type SerializeError struct {
	Err error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("failed to serialize feed: %v", e.Err)
}

func (e *SerializeError) Unwrap() error {
	return e.Err
}

type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
