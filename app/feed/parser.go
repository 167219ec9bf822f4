package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	dialect, err := p.detectDialect(data)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, &ParseError{Reason: ReasonNotWellFormedXML, Err: err}
	}

	metadata := &Metadata{
		Dialect:     dialect,
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
		Copyright:   parsed.Copyright,
	}

	if parsed.Image != nil {
		metadata.ImageURL = parsed.Image.URL
	}

	if parsed.PublishedParsed != nil {
		metadata.FeedPublishedAt = parsed.PublishedParsed
	}
	if parsed.UpdatedParsed != nil {
		metadata.FeedUpdatedAt = parsed.UpdatedParsed
	}

	for _, author := range parsed.Authors {
		if author == nil {
			continue
		}
		if authorStr := p.formatAuthor(author.Name, author.Email); authorStr != "" {
			metadata.Authors = append(metadata.Authors, authorStr)
		}
	}
	if parsed.Categories != nil {
		metadata.Categories = parsed.Categories
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		publishedAt, ok := p.resolvePublishedAt(item)
		if !ok {
			// A single undated or maldated item must not fail the feed.
			slog.Warn("Dropping item with unparseable publication date",
				"feed", metadata.Title,
				"guid", cmp.Or(item.GUID, item.Link),
				"raw_date", cmp.Or(item.Published, item.Updated))
			continue
		}
		items = append(items, p.normalizeItem(item, publishedAt))
	}

	return metadata, items, nil
}

// detectDialect distinguishes the supported XML dialects from input that is
// not well-formed XML and from well-formed documents of some other format.
func (p *Parser) detectDialect(data []byte) (Dialect, error) {
	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeRSS:
		return DialectRSS, nil
	case gofeed.FeedTypeAtom:
		return DialectAtom, nil
	default:
		if err := checkWellFormedXML(data); err != nil {
			return "", &ParseError{Reason: ReasonNotWellFormedXML, Err: err}
		}
		return "", &ParseError{
			Reason: ReasonUnrecognizedFormat,
			Err:    fmt.Errorf("document root is neither RSS nor Atom"),
		}
	}
}

func checkWellFormedXML(data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	sawElement := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			if !sawElement {
				return fmt.Errorf("no XML element found")
			}
			return nil
		}
		if err != nil {
			return err
		}
		if _, ok := token.(xml.StartElement); ok {
			sawElement = true
		}
	}
}

func (p *Parser) resolvePublishedAt(item *gofeed.Item) (time.Time, bool) {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed, true
	}

	// Atom entries are only required to carry <updated>.
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed, true
	}

	// gofeed leaves the parsed timestamp nil when the raw date does not
	// match the dialect's convention; try a lenient pass before giving up.
	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if parsed, err := dateparse.ParseAny(raw); err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}

func (p *Parser) normalizeItem(item *gofeed.Item, publishedAt time.Time) Item {
	normalized := Item{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Content:     item.Content,
		PublishedAt: publishedAt,
	}

	if item.UpdatedParsed != nil {
		normalized.UpdatedAt = item.UpdatedParsed
	}

	normalized.Authors = p.extractAuthors(item)

	if item.Categories != nil {
		normalized.Categories = item.Categories
	}

	// Extract first enclosure if available (RSS 2.0 spec allows only one per item)
	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		enclosure := item.Enclosures[0]
		normalized.EnclosureURL = enclosure.URL
		normalized.EnclosureType = enclosure.Type

		// Parse length as int64, handle potential parsing errors
		if enclosure.Length != "" {
			if length, err := strconv.ParseInt(enclosure.Length, 10, 64); err == nil {
				normalized.EnclosureLength = length
			}
		}
	}

	if item.ITunesExt != nil {
		normalized.Duration = item.ITunesExt.Duration
		normalized.ImageURL = item.ITunesExt.Image
	}
	if normalized.ImageURL == "" && item.Image != nil {
		normalized.ImageURL = item.Image.URL
	}

	return normalized
}

func (p *Parser) extractAuthors(item *gofeed.Item) []string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author != nil {
				authorStr := p.formatAuthor(author.Name, author.Email)
				if authorStr != "" {
					authors = append(authors, authorStr)
				}
			}
		}
	} else if item.Author != nil {
		authorStr := p.formatAuthor(item.Author.Name, item.Author.Email)
		if authorStr != "" {
			authors = append(authors, authorStr)
		}
	}

	return authors
}

func (p *Parser) formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name != "" && email != "" {
		return fmt.Sprintf("%s (%s)", email, name)
	} else if name != "" {
		return name
	} else if email != "" {
		return email
	}

	return ""
}
