package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func mustParseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture HTML: %v", err)
	}
	return doc
}

func TestParser_ExtractsStructuredItems(t *testing.T) {
	html := `
	<html><body>
		<article>
			<h2>CMBS delinquencies climb for office</h2>
			<time datetime="2025-07-03T10:00:00Z">July 3, 2025</time>
			<p>Special servicing transfers accelerated across gateway markets.</p>
			<p>Maturity defaults drove most of the increase.</p>
		</article>
		<article>
			<h2>Cap rates widen on coastal industrial</h2>
			<p>Appraisal values reset as repricing continued, January 14, 2025.</p>
		</article>
	</body></html>`

	parser := NewParser()
	items := parser.Parse(mustParseHTML(t, html))

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "CMBS delinquencies climb for office" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if !strings.Contains(first.Text, "Special servicing transfers") {
		t.Errorf("expected body paragraphs in item text, got %q", first.Text)
	}
	if !strings.Contains(first.Text, "Maturity defaults") {
		t.Errorf("expected all paragraphs joined, got %q", first.Text)
	}
	if first.PublishedAt == nil {
		t.Fatal("expected datetime attribute to be parsed")
	}
	want := time.Date(2025, 7, 3, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Errorf("expected published at %v, got %v", want, *first.PublishedAt)
	}

	second := items[1]
	if second.PublishedAt == nil {
		t.Fatal("expected inline date to be found in the item body")
	}
	if got := second.PublishedAt.Format("2006-01-02"); got != "2025-01-14" {
		t.Errorf("expected inline date 2025-01-14, got %s", got)
	}
}

func TestParser_DeduplicatesTitles(t *testing.T) {
	html := `
	<html><body>
		<article><h2>Lending standards tighten</h2><p>First copy.</p></article>
		<article><h2>Lending Standards Tighten</h2><p>Syndicated copy.</p></article>
	</body></html>`

	parser := NewParser()
	items := parser.Parse(mustParseHTML(t, html))

	if len(items) != 1 {
		t.Fatalf("expected duplicate titles to collapse to 1 item, got %d", len(items))
	}
	if items[0].Text != "First copy." {
		t.Errorf("expected the first occurrence to win, got %q", items[0].Text)
	}
}

func TestParser_FallsBackToWholePage(t *testing.T) {
	html := `
	<html>
		<head><title>Quarterly lending survey</title></head>
		<body>
			<div>
				<p>Banks reported tighter lending standards for construction loans.</p>
				<p>Demand for refinancing held steady.</p>
			</div>
		</body>
	</html>`

	parser := NewParser()
	items := parser.Parse(mustParseHTML(t, html))

	if len(items) != 1 {
		t.Fatalf("expected whole-page fallback to yield 1 item, got %d", len(items))
	}
	if items[0].Title != "Quarterly lending survey" {
		t.Errorf("expected page title as item title, got %q", items[0].Title)
	}
	if !strings.Contains(items[0].Text, "tighter lending standards") {
		t.Errorf("expected page paragraphs in item text, got %q", items[0].Text)
	}
	if items[0].PublishedAt != nil {
		t.Errorf("expected no publish date on an undated page, got %v", *items[0].PublishedAt)
	}
}

func TestParser_SkipsItemsWithoutTitles(t *testing.T) {
	html := `
	<html><body>
		<article><p>Orphaned paragraph with no heading.</p></article>
		<article><h3>Vacancy rises downtown</h3><p>Sublease space expanded again.</p></article>
	</body></html>`

	parser := NewParser()
	items := parser.Parse(mustParseHTML(t, html))

	if len(items) != 1 {
		t.Fatalf("expected untitled item to be skipped, got %d items", len(items))
	}
	if items[0].Title != "Vacancy rises downtown" {
		t.Errorf("unexpected title: %q", items[0].Title)
	}
}

func TestParseDate_KnownLayouts(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"January 2, 2025", "2025-01-02"},
		{"Feb 28, 2025", "2025-02-28"},
		{"2025-03-15", "2025-03-15"},
		{"04/01/2025", "2025-04-01"},
		{"9 May 2025", "2025-05-09"},
	}

	for _, tt := range tests {
		ts, ok := parseDate(tt.input)
		if !ok {
			t.Errorf("expected %q to parse", tt.input)
			continue
		}
		if got := ts.Format("2006-01-02"); got != tt.want {
			t.Errorf("parseDate(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}

	if _, ok := parseDate("next Tuesday"); ok {
		t.Error("expected relative text to fail parsing")
	}
}

func TestTruncateText_CapsLongBodies(t *testing.T) {
	long := strings.Repeat("vacancy ", 1000)
	got := truncateText(long)
	if len([]rune(got)) != maxItemTextRunes {
		t.Errorf("expected truncation to %d runes, got %d", maxItemTextRunes, len([]rune(got)))
	}

	short := "cap rates held steady"
	if truncateText(short) != short {
		t.Error("expected short text to pass through unchanged")
	}
}
