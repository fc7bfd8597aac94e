// Package faix scrapes the FAIX department's public web pages.
package faix

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/scraper"
	"github.com/shanle1117/workshop2-sub001/internal/storage"
)

// StaffScraper fetches the department staff page and extracts the directory.
type StaffScraper struct {
	client *scraper.Client
	url    string
	logger *logger.Logger
}

// NewStaffScraper creates a staff scraper for the given page URL.
func NewStaffScraper(client *scraper.Client, url string, log *logger.Logger) *StaffScraper {
	return &StaffScraper{
		client: client,
		url:    url,
		logger: log.WithModule("scraper"),
	}
}

// Fetch downloads and parses the staff page. The page lists staff in a table
// with name, title, email, phone and office columns; rows missing a name are
// skipped.
func (s *StaffScraper) Fetch(ctx context.Context) ([]storage.StaffMember, error) {
	doc, err := s.client.GetDocument(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff page: %w", err)
	}

	members := parseStaffTable(doc)
	if len(members) == 0 {
		return nil, fmt.Errorf("no staff rows found at %s", s.url)
	}

	s.logger.WithField("count", len(members)).Info("Staff directory scraped")
	return members, nil
}

func parseStaffTable(doc *goquery.Document) []storage.StaffMember {
	var members []storage.StaffMember

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return // header or layout row
		}

		member := storage.StaffMember{
			Name:   cellText(cells, 0),
			Title:  cellText(cells, 1),
			Email:  extractEmail(cells.Eq(2)),
			Phone:  cellText(cells, 3),
			Office: cellText(cells, 4),
		}
		if member.Name == "" {
			return
		}
		members = append(members, member)
	})

	return members
}

func cellText(cells *goquery.Selection, i int) string {
	if i >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(i).Text())
}

// extractEmail prefers a mailto link over the cell text, since many pages
// render obfuscated text but keep the real address in the href.
func extractEmail(cell *goquery.Selection) string {
	if href, ok := cell.Find("a[href^='mailto:']").Attr("href"); ok {
		return strings.TrimPrefix(href, "mailto:")
	}
	return strings.TrimSpace(cell.Text())
}
