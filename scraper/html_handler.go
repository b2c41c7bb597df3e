package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"skaters/config"
	"skaters/models"
	"skaters/normalize"
)

const directoryPath = "/global-skatepark-directory/usa-skateparks-guide/"

var mapsCoordsRe = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)

// stateSlugs maps a state code to its directory listing pages.
var stateSlugs = map[string][]string{
	"AL": {"alabama"}, "AK": {"alaska"}, "AZ": {"arizona"}, "AR": {"arkansas"},
	"CA": {"northern-california", "southern-california"},
	"CO": {"colorado-skateparks"}, "CT": {"connecticut"}, "DE": {"delaware"},
	"FL": {"florida-skateparks"}, "GA": {"georgia"}, "HI": {"hawaii"}, "ID": {"idaho"},
	"IL": {"illinois"}, "IN": {"indiana"}, "IA": {"iowa"}, "KS": {"kansas"},
	"KY": {"kentucky"}, "LA": {"louisiana"}, "ME": {"maine"}, "MD": {"maryland"},
	"MA": {"massachusetts"}, "MI": {"michigan"}, "MN": {"minnesota"},
	"MS": {"mississippi"}, "MO": {"missouri"}, "MT": {"montana"}, "NE": {"nebraska"},
	"NV": {"nevada"}, "NH": {"new-hampshire"}, "NJ": {"new-jersey"},
	"NM": {"new-mexico"}, "NY": {"new-york-skateparks"}, "NC": {"north-carolina"},
	"ND": {"north-dakota"}, "OH": {"ohio"}, "OK": {"oklahoma"},
	"OR": {"oregon-skateparks"}, "PA": {"pennsylvania"}, "RI": {"rhode-island"},
	"SC": {"south-carolina"}, "SD": {"south-dakota"}, "TN": {"tennessee"},
	"TX": {"texas-skateparks"}, "UT": {"utah"}, "VT": {"vermont"}, "VA": {"virginia"},
	"WA": {"washington"}, "WV": {"west-virginia"}, "WI": {"wisconsin"}, "WY": {"wyoming"},
}

// PageFetcher returns the HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// HTMLHandler scrapes a skatepark directory: one state listing page per
// Collect call, then every park page linked from it.
type HTMLHandler struct {
	cfg     *config.ProviderConfig
	fetcher PageFetcher
	limiter *rate.Limiter
}

func NewHTMLHandler(cfg *config.ProviderConfig, fetcher PageFetcher) *HTMLHandler {
	limit := rate.Inf
	if cfg.RateLimitMS > 0 {
		limit = rate.Every(time.Duration(cfg.RateLimitMS) * time.Millisecond)
	}
	return &HTMLHandler{cfg: cfg, fetcher: fetcher, limiter: rate.NewLimiter(limit, 1)}
}

func (h *HTMLHandler) ID() string {
	return h.cfg.ID
}

// StateURLs lists the directory pages covering a state.
func (h *HTMLHandler) StateURLs(state string) []string {
	base := strings.TrimRight(h.cfg.Endpoint("base"), "/")
	var out []string
	for _, slug := range stateSlugs[strings.ToUpper(state)] {
		out = append(out, base+directoryPath+slug+"/")
	}
	return out
}

// Collect fetches the listing page named by the page token, or the first
// listing page of the state, and scrapes the parks it links to.
func (h *HTMLHandler) Collect(ctx context.Context, q Query) (Page, error) {
	pages := h.StateURLs(q.State)
	listingURL := q.PageToken
	if listingURL == "" {
		if len(pages) == 0 {
			return Page{}, fmt.Errorf("no directory page for state %q", q.State)
		}
		listingURL = pages[0]
	}

	body, err := h.fetch(ctx, listingURL)
	if err != nil {
		return Page{}, fmt.Errorf("listing %s: %w", listingURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse listing %s: %w", listingURL, err)
	}

	links := parkLinks(doc, listingURL)
	if h.cfg.MaxResults > 0 && len(links) > h.cfg.MaxResults {
		links = links[:h.cfg.MaxResults]
	}
	log.Printf("%s: %d park links on %s", h.cfg.ID, len(links), listingURL)

	var page Page
	for i, link := range links {
		rec, err := h.scrapePark(ctx, link, q)
		if err != nil {
			if ctx.Err() != nil {
				return page, ctx.Err()
			}
			log.Printf("Warning: %s: skipping %s: %v", h.cfg.ID, link, err)
			continue
		}
		page.Records = append(page.Records, rec)
		log.Printf("%s: [%d/%d] %s", h.cfg.ID, i+1, len(links), rec["name"])
	}

	page.NextPageToken = nextListing(doc, listingURL)
	if page.NextPageToken == "" {
		page.NextPageToken = followingState(pages, listingURL)
	}
	return page, nil
}

func (h *HTMLHandler) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return h.fetcher.Fetch(ctx, pageURL)
}

func (h *HTMLHandler) scrapePark(ctx context.Context, parkURL string, q Query) (models.RawRecord, error) {
	body, err := h.fetch(ctx, parkURL)
	if err != nil {
		return nil, err
	}
	rec, err := ParseParkPage(body, parkURL)
	if err != nil {
		return nil, err
	}
	if q.State != "" {
		rec["state"] = strings.ToUpper(q.State)
	}
	if q.Category.SportType != "" {
		rec["sport_type"] = q.Category.SportType
	}
	if q.Category.VenueType != "" {
		rec["venue_type"] = q.Category.VenueType
	}
	if q.Category.Discipline != "" {
		rec["discipline"] = q.Category.Discipline
	}
	return rec, nil
}

// ParseParkPage extracts a raw venue from a park detail page. A page without a
// recognisable name is rejected.
func ParseParkPage(body []byte, parkURL string) (models.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse park page: %w", err)
	}

	name := collapse(doc.Find("h1.entry-title").First().Text())
	if name == "" {
		title := doc.Find("title").First().Text()
		name = collapse(strings.SplitN(title, "|", 2)[0])
	}
	if name == "" {
		return nil, fmt.Errorf("no park name")
	}

	rec := models.RawRecord{
		"name":    name,
		"website": parkURL,
		"country": "US",
	}

	if desc := collapse(doc.Find("div.entry-content p").First().Text()); desc != "" {
		rec["description"] = desc
	}
	if city := cityFromURL(parkURL); city != "" {
		rec["city"] = city
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.Contains(href, "google.com/maps") && !strings.Contains(href, "maps.google") {
			return true
		}
		m := mapsCoordsRe.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lng, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			return true
		}
		rec["latitude"], rec["longitude"] = lat, lng
		return false
	})

	if phone := normalize.ExtractPhone(doc.Find("div.entry-content").Text()); phone != "" {
		rec["phone"] = phone
	}
	return rec, nil
}

// parkLinks returns the distinct park page links of a listing page, resolved
// against the listing URL.
func parkLinks(doc *goquery.Document, listingURL string) []string {
	base, _ := url.Parse(listingURL)
	seen := make(map[string]bool)
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := resolve(base, href)
		if !strings.Contains(abs, "/global-skatepark-directory/") || strings.Count(abs, "/") <= 5 {
			return
		}
		if abs == listingURL || seen[abs] {
			return
		}
		seen[abs] = true
		out = append(out, abs)
	})
	return out
}

func nextListing(doc *goquery.Document, listingURL string) string {
	base, _ := url.Parse(listingURL)
	for _, sel := range []string{"link[rel=next]", "a.next", "a[rel=next]"} {
		if href, ok := doc.Find(sel).First().Attr("href"); ok && href != "" {
			if next := resolve(base, href); next != listingURL {
				return next
			}
		}
	}
	return ""
}

// followingState returns the listing page after current among a state's
// pages, so states split over several directory pages are covered in turn.
func followingState(pages []string, current string) string {
	for i, p := range pages {
		if p == current && i+1 < len(pages) {
			return pages[i+1]
		}
	}
	return ""
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// cityFromURL title-cases the last path segment of a park URL.
func cityFromURL(parkURL string) string {
	u, err := url.Parse(parkURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	words := strings.Fields(strings.ReplaceAll(segments[len(segments)-1], "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
