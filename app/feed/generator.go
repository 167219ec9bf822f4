package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/podshift/podshift/app/cfg"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run serializes the channel and its released items in the dialect the
// origin feed was recognized as. Every item's publication date field is
// the displayed (shifted) instant, all other fields are passthrough.
func (g *Generator) Run(metadata *Metadata, items []DelayedItem) (string, error) {
	if metadata == nil {
		return "", &SerializeError{Err: fmt.Errorf("metadata is nil")}
	}

	switch metadata.Dialect {
	case DialectRSS:
		return g.writeRSS(metadata, items), nil
	case DialectAtom:
		return g.writeAtom(metadata, items), nil
	default:
		return "", &SerializeError{Err: fmt.Errorf("unsupported dialect: %q", metadata.Dialect)}
	}
}

func (g *Generator) writeRSS(metadata *Metadata, items []DelayedItem) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", metadata.Title, 4)
	g.writeElement(&buf, "link", metadata.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(metadata.Description, metadata.Title), 4)

	if metadata.SelfURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(metadata.SelfURL)))
	}

	if metadata.FeedPublishedAt != nil {
		g.writeElement(&buf, "pubDate", metadata.FeedPublishedAt.Format(time.RFC1123Z), 4)
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(items) > 0 {
		lastBuildDate = items[0].DisplayedAt
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)

	g.writeElement(&buf, "generator", fmt.Sprintf("PodShift/%s", cfg.Get().Version), 4)
	if metadata.Language != "" {
		g.writeElement(&buf, "language", metadata.Language, 4)
	}
	if metadata.Copyright != "" {
		g.writeElement(&buf, "copyright", metadata.Copyright, 4)
	}
	if len(metadata.Authors) > 0 && metadata.Authors[0] != "" {
		g.writeElement(&buf, "itunes:author", metadata.Authors[0], 4)
	}
	for _, category := range metadata.Categories {
		if category != "" {
			g.writeElement(&buf, "category", category, 4)
		}
	}

	if metadata.ImageURL != "" {
		buf.WriteString("    <image>\n")
		g.writeElement(&buf, "url", metadata.ImageURL, 6)
		g.writeElement(&buf, "title", metadata.Title, 6)
		g.writeElement(&buf, "link", metadata.Link, 6)
		buf.WriteString("    </image>\n")
	}

	for _, item := range items {
		g.writeRSSItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func (g *Generator) writeRSSItem(buf *bytes.Buffer, item DelayedItem) {
	buf.WriteString("    <item>\n")

	if item.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.GUID)))
		xml.EscapeText(buf, []byte(item.GUID))
		buf.WriteString("</guid>\n")
	}

	if item.Title != "" {
		g.writeElement(buf, "title", item.Title, 6)
	}

	if item.Link != "" {
		g.writeElement(buf, "link", item.Link, 6)
	}

	g.writeElement(buf, "description", item.Description, 6)

	if item.Content != "" && item.Content != item.Description {
		buf.WriteString("      <content:encoded><![CDATA[")
		// A literal "]]>" would end the CDATA section early; split it
		// across two sections to keep the document well-formed.
		buf.WriteString(strings.ReplaceAll(item.Content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	g.writeElement(buf, "pubDate", item.DisplayedAt.Format(time.RFC1123Z), 6)

	if len(item.Authors) > 0 && item.Authors[0] != "" {
		g.writeElement(buf, "author", item.Authors[0], 6)
	}

	for _, category := range item.Categories {
		if category != "" {
			g.writeElement(buf, "category", category, 6)
		}
	}

	// Add enclosure element if present (RSS 2.0 spec: url, length, type are required)
	if item.EnclosureURL != "" && item.EnclosureType != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"%d\" type=\"%s\" />\n",
			html.EscapeString(item.EnclosureURL),
			item.EnclosureLength,
			html.EscapeString(item.EnclosureType)))
	}

	if item.Duration != "" {
		g.writeElement(buf, "itunes:duration", item.Duration, 6)
	}
	if item.ImageURL != "" {
		buf.WriteString(fmt.Sprintf("      <itunes:image href=\"%s\" />\n",
			html.EscapeString(item.ImageURL)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeAtom(metadata *Metadata, items []DelayedItem) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n")

	g.writeElement(&buf, "title", metadata.Title, 2)
	g.writeElement(&buf, "id", cmp.Or(metadata.Link, metadata.Title), 2)

	if metadata.Link != "" {
		buf.WriteString(fmt.Sprintf("  <link href=\"%s\" rel=\"alternate\" />\n",
			html.EscapeString(metadata.Link)))
	}

	if metadata.SelfURL != "" {
		buf.WriteString(fmt.Sprintf("  <link href=\"%s\" rel=\"self\" />\n",
			html.EscapeString(metadata.SelfURL)))
	}

	g.writeElement(&buf, "subtitle", metadata.Description, 2)

	// Atom requires <updated>; use the newest displayed instant so the
	// original timeline does not leak through the envelope.
	updated := time.Now().In(time.Local)
	if len(items) > 0 {
		updated = items[0].DisplayedAt
	} else if metadata.FeedUpdatedAt != nil {
		updated = *metadata.FeedUpdatedAt
	}
	g.writeElement(&buf, "updated", updated.Format(time.RFC3339), 2)

	g.writeElement(&buf, "generator", fmt.Sprintf("PodShift/%s", cfg.Get().Version), 2)

	if metadata.ImageURL != "" {
		g.writeElement(&buf, "logo", metadata.ImageURL, 2)
	}
	for _, author := range metadata.Authors {
		if author != "" {
			buf.WriteString("  <author>\n")
			g.writeElement(&buf, "name", author, 4)
			buf.WriteString("  </author>\n")
		}
	}

	for _, item := range items {
		g.writeAtomEntry(&buf, item)
	}

	buf.WriteString("</feed>")

	return buf.String()
}

func (g *Generator) writeAtomEntry(buf *bytes.Buffer, item DelayedItem) {
	buf.WriteString("  <entry>\n")

	g.writeElement(buf, "id", cmp.Or(item.GUID, item.Link), 4)

	if item.Title != "" {
		g.writeElement(buf, "title", item.Title, 4)
	}

	if item.Link != "" {
		buf.WriteString(fmt.Sprintf("    <link href=\"%s\" rel=\"alternate\" />\n",
			html.EscapeString(item.Link)))
	}

	if item.EnclosureURL != "" && item.EnclosureType != "" {
		buf.WriteString(fmt.Sprintf("    <link href=\"%s\" rel=\"enclosure\" type=\"%s\" length=\"%d\" />\n",
			html.EscapeString(item.EnclosureURL),
			html.EscapeString(item.EnclosureType),
			item.EnclosureLength))
	}

	g.writeElement(buf, "published", item.DisplayedAt.Format(time.RFC3339), 4)
	g.writeElement(buf, "updated", item.DisplayedAt.Format(time.RFC3339), 4)

	if item.Description != "" {
		g.writeElement(buf, "summary", item.Description, 4)
	}

	if item.Content != "" {
		buf.WriteString("    <content type=\"html\">")
		xml.EscapeText(buf, []byte(item.Content))
		buf.WriteString("</content>\n")
	}

	for _, author := range item.Authors {
		if author != "" {
			buf.WriteString("    <author>\n")
			g.writeElement(buf, "name", author, 6)
			buf.WriteString("    </author>\n")
		}
	}

	for _, category := range item.Categories {
		if category != "" {
			buf.WriteString(fmt.Sprintf("    <category term=\"%s\" />\n",
				html.EscapeString(category)))
		}
	}

	buf.WriteString("  </entry>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}
