package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmcgrail/riskindex-engine/internal/ingest"
)

// Parses a commentary page through the ingestion selectors and prints what
// the classifier makes of each item. Useful when tuning selectors for a new
// source: point it at a saved HTML file or a live URL.
func main() {
	file := flag.String("file", "", "Parse a local HTML file")
	url := flag.String("url", "", "Fetch and parse a live URL")
	verbose := flag.Bool("v", false, "Print full item JSON")
	flag.Parse()

	if *file == "" && *url == "" {
		flag.Usage()
		os.Exit(1)
	}

	var doc *goquery.Document
	var err error

	switch {
	case *file != "":
		f, openErr := os.Open(*file)
		if openErr != nil {
			log.Fatalf("Failed to open file: %v", openErr)
		}
		defer f.Close()
		doc, err = goquery.NewDocumentFromReader(f)
		if err != nil {
			log.Fatalf("Failed to parse HTML: %v", err)
		}
		fmt.Printf("Parsing local file: %s\n", *file)
	default:
		client := ingest.NewClient(2)
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		doc, err = client.Get(ctx, *url)
		if err != nil {
			log.Fatalf("Failed to fetch URL: %v", err)
		}
		fmt.Printf("Parsing live URL: %s\n", *url)
	}

	parser := ingest.NewParser()
	items := parser.Parse(doc)

	fmt.Printf("Extracted %d items\n", len(items))
	fmt.Println("=====================================")

	classified := 0
	for i, item := range items {
		signalType, ok := ingest.Classify(item.Title, item.Text)

		label := "unclassified"
		if ok {
			label = string(signalType)
			classified++
		}

		published := "no date"
		if item.PublishedAt != nil {
			published = item.PublishedAt.Format("2006-01-02")
		}

		fmt.Printf("\n%d. [%s] %s (%s)\n", i+1, label, item.Title, published)

		if *verbose {
			itemJSON, err := json.MarshalIndent(item, "", "  ")
			if err != nil {
				log.Printf("Failed to marshal item: %v", err)
				continue
			}
			fmt.Println(string(itemJSON))
		} else if len(item.Text) > 140 {
			fmt.Printf("   %s...\n", item.Text[:140])
		} else if item.Text != "" {
			fmt.Printf("   %s\n", item.Text)
		}
	}

	fmt.Println("\n=====================================")
	fmt.Printf("Classified %d of %d items\n", classified, len(items))
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run the commentary parser and signal classifier against one page\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample usage:\n")
		fmt.Fprintf(os.Stderr, "  %s -file=saved-page.html -v\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -url=https://example.com/cre-commentary\n", os.Args[0])
	}
}
