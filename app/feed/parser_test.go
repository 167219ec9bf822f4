package feed

import (
	"errors"
	"testing"
	"time"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Test Podcast</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <language>en-us</language>
    <image>
      <url>https://example.com/cover.png</url>
      <title>Test Podcast</title>
      <link>https://example.com</link>
    </image>
    <item>
      <title>Episode 2</title>
      <link>https://example.com/ep2</link>
      <description>Episode 2 Show Notes</description>
      <guid>ep-2</guid>
      <pubDate>Mon, 10 Jul 2023 10:00:00 GMT</pubDate>
      <author>test@example.com (Test Author)</author>
      <category>Technology</category>
      <category>Comedy</category>
      <enclosure url="https://example.com/ep2.mp3" length="12345678" type="audio/mpeg" />
      <itunes:duration>42:00</itunes:duration>
    </item>
    <item>
      <title>Episode 1</title>
      <link>https://example.com/ep1</link>
      <description>Episode 1 Show Notes</description>
      <guid>ep-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://example.com/ep1.mp3" length="8765432" type="audio/mpeg" />
    </item>
  </channel>
</rss>`

	parser := NewParser()
	metadata, items, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Test metadata
	if metadata.Dialect != DialectRSS {
		t.Errorf("Expected dialect 'rss', got: %s", metadata.Dialect)
	}
	if metadata.Title != "Test Podcast" {
		t.Errorf("Expected title 'Test Podcast', got: %s", metadata.Title)
	}
	if metadata.Link != "https://example.com" {
		t.Errorf("Expected link 'https://example.com', got: %s", metadata.Link)
	}
	if metadata.Description != "Test Description" {
		t.Errorf("Expected description 'Test Description', got: %s", metadata.Description)
	}
	if metadata.Language != "en-us" {
		t.Errorf("Expected language 'en-us', got: %s", metadata.Language)
	}
	if metadata.ImageURL != "https://example.com/cover.png" {
		t.Errorf("Expected image URL 'https://example.com/cover.png', got: %s", metadata.ImageURL)
	}

	// Test items
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(items))
	}

	item1 := items[0]
	if item1.Title != "Episode 2" {
		t.Errorf("Expected title 'Episode 2', got: %s", item1.Title)
	}
	if item1.GUID != "ep-2" {
		t.Errorf("Expected GUID 'ep-2', got: %s", item1.GUID)
	}
	if len(item1.Categories) != 2 {
		t.Errorf("Expected 2 categories, got: %d", len(item1.Categories))
	}
	if item1.EnclosureURL != "https://example.com/ep2.mp3" {
		t.Errorf("Expected enclosure URL 'https://example.com/ep2.mp3', got: %s", item1.EnclosureURL)
	}
	if item1.EnclosureLength != 12345678 {
		t.Errorf("Expected enclosure length 12345678, got: %d", item1.EnclosureLength)
	}
	if item1.EnclosureType != "audio/mpeg" {
		t.Errorf("Expected enclosure type 'audio/mpeg', got: %s", item1.EnclosureType)
	}
	if item1.Duration != "42:00" {
		t.Errorf("Expected duration '42:00', got: %s", item1.Duration)
	}

	expected := time.Date(2023, 7, 10, 10, 0, 0, 0, time.UTC)
	if !item1.PublishedAt.Equal(expected) {
		t.Errorf("Expected published at %v, got: %v", expected, item1.PublishedAt)
	}

	// Origin order must be preserved
	if items[1].GUID != "ep-1" {
		t.Errorf("Expected second item 'ep-1', got: %s", items[1].GUID)
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <link href="https://example.com"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <author>
    <name>Test Author</name>
  </author>
  <id>urn:uuid:1234567890</id>
  <entry>
    <title>Test Entry</title>
    <link href="https://example.com/entry1"/>
    <id>urn:uuid:entry-1</id>
    <updated>2023-07-03T10:00:00Z</updated>
    <content type="html">Test content</content>
  </entry>
</feed>`

	parser := NewParser()
	metadata, items, err := parser.Run([]byte(atomData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Dialect != DialectAtom {
		t.Errorf("Expected dialect 'atom', got: %s", metadata.Dialect)
	}
	if metadata.Title != "Test Atom Feed" {
		t.Errorf("Expected title 'Test Atom Feed', got: %s", metadata.Title)
	}

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}

	item := items[0]
	if item.Title != "Test Entry" {
		t.Errorf("Expected title 'Test Entry', got: %s", item.Title)
	}

	// Atom entries without <published> fall back to <updated>
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !item.PublishedAt.Equal(expected) {
		t.Errorf("Expected published at %v, got: %v", expected, item.PublishedAt)
	}
}

func TestParseItemDateFailureIsolation(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Good Item 1</title>
      <guid>good-1</guid>
      <pubDate>Mon, 10 Jul 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Bad Item</title>
      <guid>bad-1</guid>
      <pubDate>sometime last week, probably</pubDate>
    </item>
    <item>
      <title>Good Item 2</title>
      <guid>good-2</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	_, items, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items after dropping the bad one, got: %d", len(items))
	}
	if items[0].GUID != "good-1" || items[1].GUID != "good-2" {
		t.Errorf("Expected remaining items in origin order, got: %s, %s", items[0].GUID, items[1].GUID)
	}
}

func TestParseItemDateLenientFallback(t *testing.T) {
	// A pure epoch timestamp is outside both dialects' date conventions,
	// so gofeed leaves the parsed timestamp nil; the lenient pass must
	// rescue the item instead of dropping it.
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Epoch Dated Item</title>
      <guid>epoch-1</guid>
      <pubDate>1688378400</pubDate>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	_, items, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected the lenient pass to rescue the item, got %d items", len(items))
	}

	expected := time.Unix(1688378400, 0)
	if !items[0].PublishedAt.Equal(expected) {
		t.Errorf("Expected published at %v, got: %v", expected, items[0].PublishedAt)
	}
}

func TestParseItemWithoutDateDropped(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Undated Item</title>
      <guid>undated</guid>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	_, items, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected undated item to be dropped, got %d items", len(items))
	}
}

func TestParseNotWellFormedXML(t *testing.T) {
	parser := NewParser()
	_, _, err := parser.Run([]byte("this is not xml at all"))

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got: %v", err)
	}
	if parseErr.Reason != ReasonNotWellFormedXML {
		t.Errorf("Expected reason %s, got: %s", ReasonNotWellFormedXML, parseErr.Reason)
	}
}

func TestParseUnrecognizedFormat(t *testing.T) {
	parser := NewParser()
	_, _, err := parser.Run([]byte(`<?xml version="1.0"?><html><body>not a feed</body></html>`))

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got: %v", err)
	}
	if parseErr.Reason != ReasonUnrecognizedFormat {
		t.Errorf("Expected reason %s, got: %s", ReasonUnrecognizedFormat, parseErr.Reason)
	}
}

func TestParseGUIDFallsBackToLink(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>No GUID</title>
      <link>https://example.com/no-guid</link>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	_, items, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}
	if items[0].GUID != "https://example.com/no-guid" {
		t.Errorf("Expected GUID to fall back to link, got: %s", items[0].GUID)
	}
}
