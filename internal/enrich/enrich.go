// Package enrich fills in missing titles and descriptions of cited sources
// by fetching the pages.
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	readability "github.com/go-shiori/go-readability"
	log "github.com/sirupsen/logrus"

	"github.com/TobiSchelling/aiseo/internal/database"
)

const maxDescriptionLen = 300

// Store is the subset of the database the enricher needs.
type Store interface {
	GetSourcesMissingMetadata(limit int) ([]database.Source, error)
	UpdateSourceMetadata(sourceID int64, title, description *string) error
	MarkSourceChecked(sourceID int64) error
}

// Options configures fetching.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	BatchSize int
}

// Result holds the results of an enrichment run.
type Result struct {
	Updated int
	Failed  int
	// Skipped counts sources not fetched because their host failed earlier.
	Skipped int
}

// Enricher fetches source pages and stores the metadata it finds.
type Enricher struct {
	store  Store
	client *resty.Client
	batch  int
}

// New creates an enricher.
func New(store Store, opts Options) *Enricher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "aiseo/1.0"
	}
	return &Enricher{
		store: store,
		client: resty.New().
			SetTimeout(opts.Timeout).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
			SetHeader("User-Agent", opts.UserAgent).
			SetHeader("Accept", "text/html,application/xhtml+xml"),
		batch: opts.BatchSize,
	}
}

// Run enriches up to one batch of sources not fetched before. Every fetched
// source is marked as checked, whatever the outcome; sources skipped because
// their host failed stay eligible for the next run. Fetch failures are logged
// and counted; only store errors abort the run.
func (e *Enricher) Run(ctx context.Context) (*Result, error) {
	sources, err := e.store.GetSourcesMissingMetadata(e.batch)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	result := &Result{}
	if len(sources) == 0 {
		log.Debug("No sources need metadata")
		return result, nil
	}

	failedHosts := make(map[string]struct{})
	for _, s := range sources {
		if ctx.Err() != nil {
			break
		}

		host := hostOf(s.URL)
		if _, failed := failedHosts[host]; failed {
			result.Skipped++
			continue
		}

		meta, err := e.fetch(ctx, s.URL)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			result.Failed++
			if host != "" {
				failedHosts[host] = struct{}{}
			}
			log.WithError(err).WithField("url", s.URL).Warn("Fetching source failed; skipping remaining from host")
			if err := e.store.MarkSourceChecked(s.ID); err != nil {
				return result, fmt.Errorf("marking source %d: %w", s.ID, err)
			}
			continue
		}
		if meta.Title == "" && meta.Description == "" {
			result.Failed++
			log.WithField("url", s.URL).Debug("No metadata found")
			if err := e.store.MarkSourceChecked(s.ID); err != nil {
				return result, fmt.Errorf("marking source %d: %w", s.ID, err)
			}
			continue
		}

		if err := e.store.UpdateSourceMetadata(s.ID, &meta.Title, &meta.Description); err != nil {
			return result, fmt.Errorf("updating source %d: %w", s.ID, err)
		}
		result.Updated++
		log.WithField("url", s.URL).Debug("Source enriched")
	}

	log.WithFields(log.Fields{
		"updated": result.Updated,
		"failed":  result.Failed,
		"skipped": result.Skipped,
	}).Info("Source enrichment complete")
	return result, nil
}

func (e *Enricher) fetch(ctx context.Context, pageURL string) (Metadata, error) {
	resp, err := e.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return Metadata{}, err
	}
	if resp.IsError() {
		return Metadata{}, fmt.Errorf("HTTP %d", resp.StatusCode())
	}
	return Extract(resp.Body(), pageURL)
}

// Metadata is what a page says about itself.
type Metadata struct {
	Title       string
	Description string
}

// Extract reads the title and description from an HTML page. Meta tags are
// preferred; the readability excerpt fills a missing description.
func Extract(body []byte, pageURL string) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Metadata{}, fmt.Errorf("parsing page: %w", err)
	}

	meta := Metadata{
		Title: firstNonEmpty(
			metaContent(doc, `meta[property="og:title"]`),
			doc.Find("title").First().Text(),
		),
		Description: firstNonEmpty(
			metaContent(doc, `meta[name="description"]`),
			metaContent(doc, `meta[property="og:description"]`),
		),
	}

	if meta.Title == "" || meta.Description == "" {
		parsed, _ := url.Parse(pageURL)
		if article, err := readability.FromReader(bytes.NewReader(body), parsed); err == nil {
			meta.Title = firstNonEmpty(meta.Title, article.Title)
			meta.Description = firstNonEmpty(meta.Description, article.Excerpt)
		}
	}

	meta.Title = truncate(meta.Title, maxDescriptionLen)
	meta.Description = truncate(meta.Description, maxDescriptionLen)
	return meta, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.Join(strings.Fields(v), " "); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
