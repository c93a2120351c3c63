package ingest

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Item is one dated piece of commentary pulled from a source page
type Item struct {
	Title       string
	Text        string
	PublishedAt *time.Time
}

// Parser extracts dated commentary items from fetched pages. Publishers use
// wildly different markup, so extraction works through ordered selector
// lists with a whole-page fallback.
type Parser struct{}

// NewParser creates a new commentary parser
func NewParser() *Parser {
	return &Parser{}
}

const maxItemTextRunes = 4000

var itemSelectors = []string{
	"article",
	"[class*='post-item']",
	"[class*='news-item']",
	"[class*='article-item']",
	"[class*='commentary']",
	".entry",
	"li[class*='story']",
}

var titleSelectors = []string{
	"h1",
	"h2",
	"h3",
	"[class*='title']",
	"[class*='headline']",
	"a",
}

var timestampSelectors = []string{
	"time",
	"[class*='date']",
	"[class*='published']",
}

var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"2 January 2006",
}

var inlineDatePattern = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Parse pulls commentary items out of a page. Items sharing a title are
// collapsed to the first occurrence. When no structured items are found the
// whole page is treated as a single item.
func (p *Parser) Parse(doc *goquery.Document) []Item {
	var items []Item
	seen := make(map[string]bool)

	for _, selector := range itemSelectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			item, ok := p.parseItem(s)
			if !ok {
				return
			}
			key := strings.ToLower(item.Title)
			if seen[key] {
				return
			}
			seen[key] = true
			items = append(items, item)
		})
		if len(items) > 0 {
			break
		}
	}

	if len(items) == 0 {
		if item, ok := p.parsePage(doc); ok {
			items = append(items, item)
		}
	}

	return items
}

// parseItem extracts one commentary item from a structured page element
func (p *Parser) parseItem(s *goquery.Selection) (Item, bool) {
	var item Item

	for _, selector := range titleSelectors {
		if text := strings.TrimSpace(s.Find(selector).First().Text()); text != "" {
			item.Title = collapseWhitespace(text)
			break
		}
	}
	if item.Title == "" {
		return Item{}, false
	}

	item.Text = truncateText(joinParagraphs(s))
	item.PublishedAt = p.parseTimestamp(s)

	return item, true
}

// parsePage treats an unstructured page as a single commentary item
func (p *Parser) parsePage(doc *goquery.Document) (Item, bool) {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		return Item{}, false
	}

	item := Item{
		Title: collapseWhitespace(title),
		Text:  truncateText(joinParagraphs(doc.Selection)),
	}
	item.PublishedAt = p.parseTimestamp(doc.Selection)

	return item, true
}

// parseTimestamp finds a publish date for an item. A machine-readable
// datetime attribute wins; otherwise date-looking element text and finally
// an inline date in the item body are tried.
func (p *Parser) parseTimestamp(s *goquery.Selection) *time.Time {
	if attr, ok := s.Find("time").First().Attr("datetime"); ok {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(attr)); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}

	for _, selector := range timestampSelectors {
		if text := strings.TrimSpace(s.Find(selector).First().Text()); text != "" {
			if ts, ok := parseDate(text); ok {
				return &ts
			}
		}
	}

	if ts, ok := findInlineDate(s.Text()); ok {
		return &ts
	}

	return nil
}

// parseDate tries each known date layout against the text
func parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// findInlineDate scans free text for a written-out date
func findInlineDate(text string) (time.Time, bool) {
	match := inlineDatePattern.FindString(text)
	if match == "" {
		return time.Time{}, false
	}
	return parseDate(match)
}

func joinParagraphs(s *goquery.Selection) string {
	var paragraphs []string
	s.Find("p").Each(func(i int, paragraph *goquery.Selection) {
		if text := strings.TrimSpace(paragraph.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return collapseWhitespace(strings.Join(paragraphs, " "))
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

func truncateText(s string) string {
	runes := []rune(s)
	if len(runes) <= maxItemTextRunes {
		return s
	}
	return string(runes[:maxItemTextRunes])
}
