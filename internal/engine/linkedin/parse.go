package linkedin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const urnPrefix = "urn:li:jobPosting:"

var trailingID = regexp.MustCompile(`-(\d+)/?$`)

// Card is one search result.
type Card struct {
	JobID       string
	Title       string
	Company     string
	CompanyLink string
	Place       string
	Date        string
	DateText    string
	Link        string
	Promoted    bool
}

// Posting is what the detail page adds to a card.
type Posting struct {
	Description string
	// HasDescription is false when the page carried no description block.
	HasDescription bool
	ApplyLink      string
}

// ParseCards extracts the job cards from a search results fragment, in page order.
func ParseCards(page string) ([]Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var cards []Card
	doc.Find("div.base-search-card, div.job-search-card").Each(func(_ int, s *goquery.Selection) {
		c := Card{
			Title:    cleanText(s.Find(".base-search-card__title").First().Text()),
			Company:  cleanText(s.Find(".base-search-card__subtitle").First().Text()),
			Place:    cleanText(s.Find(".job-search-card__location").First().Text()),
			DateText: cleanText(s.Find("time").First().Text()),
		}
		c.Date, _ = s.Find("time").First().Attr("datetime")
		if href, ok := s.Find(".base-search-card__subtitle a").First().Attr("href"); ok {
			c.CompanyLink = stripQuery(href)
		}
		if href, ok := s.Find("a.base-card__full-link").First().Attr("href"); ok {
			c.Link = stripQuery(href)
		}

		if urn, ok := s.Attr("data-entity-urn"); ok && strings.HasPrefix(urn, urnPrefix) {
			c.JobID = strings.TrimPrefix(urn, urnPrefix)
		} else if m := trailingID.FindStringSubmatch(c.Link); m != nil {
			c.JobID = m[1]
		}

		c.Promoted = isPromoted(s)
		cards = append(cards, c)
	})
	return cards, nil
}

func isPromoted(s *goquery.Selection) bool {
	promoted := false
	s.Find(".job-posting-benefits__text, .result-benefits__text, .job-search-card__footer-item, .job-card-container__footer-item").
		EachWithBreak(func(_ int, el *goquery.Selection) bool {
			promoted = strings.EqualFold(cleanText(el.Text()), "promoted")
			return !promoted
		})
	return promoted
}

// ParseDescription extracts the posting description, keeping paragraph breaks.
func ParseDescription(page string) (Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Posting{}, fmt.Errorf("parse posting page: %w", err)
	}

	var p Posting
	markup := doc.Find(".show-more-less-html__markup, .description__text").First()
	if markup.Length() > 0 {
		markup.Find("br").Each(func(_ int, el *goquery.Selection) {
			n := el.Get(0)
			n.Type, n.Data, n.Attr = html.TextNode, "\n", nil
		})
		markup.Find("p, li, ul, ol").Each(func(_ int, el *goquery.Selection) {
			el.Get(0).AppendChild(&html.Node{Type: html.TextNode, Data: "\n"})
		})
		p.Description = cleanLines(markup.Text())
		p.HasDescription = true
	}

	// the apply url is shipped inside an html comment
	doc.Find("code#applyUrl").Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if n := c.Get(0); n != nil && n.Type == html.CommentNode {
			p.ApplyLink = strings.Trim(strings.TrimSpace(n.Data), `"`)
			return false
		}
		return true
	})
	return p, nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = cleanText(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
