// Package seed loads recorded AI answers into the store.
package seed

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/aiseo/internal/database"
)

//go:embed seed.yaml
var DefaultYAML []byte

// Dataset is a list of recorded runs.
type Dataset struct {
	Runs []Run `yaml:"runs"`
}

// Run is one recorded answer with its annotations.
type Run struct {
	Query        string    `yaml:"query"`
	RunNumber    int       `yaml:"run_number"`
	ScrapedAt    time.Time `yaml:"scraped_at"`
	ResponseText string    `yaml:"response_text"`
	Mentions     []Mention `yaml:"mentions"`
	Sources      []Source  `yaml:"sources"`
}

// Mention annotates a brand in the answer. Mentioned defaults to true.
type Mention struct {
	Brand     string `yaml:"brand"`
	Mentioned *bool  `yaml:"mentioned"`
	Position  *int   `yaml:"position"`
	Sentiment string `yaml:"sentiment"`
	Context   string `yaml:"context"`
}

// Source is a cited page. Domain is derived from the URL when empty.
type Source struct {
	URL           string `yaml:"url"`
	Domain        string `yaml:"domain"`
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	PublishedDate string `yaml:"published_date"`
}

// Result counts what Load wrote.
type Result struct {
	Runs      int
	Skipped   int
	Mentions  int
	Citations int
}

// Parse decodes and checks a dataset.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing seed data: %w", err)
	}
	for i, r := range ds.Runs {
		if strings.TrimSpace(r.Query) == "" {
			return nil, fmt.Errorf("runs[%d]: query is required", i)
		}
		if r.RunNumber < 1 {
			return nil, fmt.Errorf("runs[%d]: run_number must be at least 1", i)
		}
		if r.ScrapedAt.IsZero() {
			return nil, fmt.Errorf("runs[%d]: scraped_at is required", i)
		}
		for j, s := range r.Sources {
			if s.URL == "" {
				return nil, fmt.Errorf("runs[%d].sources[%d]: url is required", i, j)
			}
		}
	}
	return &ds, nil
}

// Default returns the embedded dataset.
func Default() (*Dataset, error) {
	return Parse(DefaultYAML)
}

// Load writes every run not yet stored, keyed by (query, run number).
// Mentions of brands that are not in the store are skipped. Each run is
// written atomically; on error the result counts the runs stored so far.
func Load(db *database.DB, ds *Dataset) (*Result, error) {
	brands, err := db.GetAllBrands()
	if err != nil {
		return nil, fmt.Errorf("loading brands: %w", err)
	}
	known := make(map[string]bool, len(brands))
	for _, b := range brands {
		known[b.ID] = true
	}

	res := &Result{}
	for _, r := range ds.Runs {
		existing, err := db.GetPromptByQueryRun(r.Query, r.RunNumber)
		if err != nil {
			return res, err
		}
		if existing != nil {
			res.Skipped++
			continue
		}

		var mentions []database.Mention
		for _, m := range r.Mentions {
			if !known[m.Brand] {
				log.WithField("brand", m.Brand).Warn("Skipping mention of unknown brand")
				continue
			}
			mentions = append(mentions, m.toMention(0))
		}
		sources := make([]database.Source, 0, len(r.Sources))
		for _, s := range r.Sources {
			sources = append(sources, database.Source{
				URL:           s.URL,
				Domain:        s.domain(),
				Title:         optional(s.Title),
				Description:   optional(s.Description),
				PublishedDate: optional(s.PublishedDate),
			})
		}

		prompt := database.Prompt{
			Query:        r.Query,
			RunNumber:    r.RunNumber,
			ResponseText: r.ResponseText,
			ScrapedAt:    r.ScrapedAt,
		}
		_, cited, err := db.InsertRun(prompt, mentions, sources)
		if err != nil {
			return res, fmt.Errorf("inserting run %q #%d: %w", r.Query, r.RunNumber, err)
		}
		res.Runs++
		res.Mentions += len(mentions)
		res.Citations += cited

		log.WithFields(log.Fields{
			"query": r.Query,
			"run":   r.RunNumber,
		}).Debug("Seeded run")
	}
	return res, nil
}

func (m Mention) toMention(promptID int64) database.Mention {
	mentioned := m.Mentioned == nil || *m.Mentioned
	dm := database.Mention{
		PromptID:  promptID,
		BrandID:   m.Brand,
		Mentioned: mentioned,
		Sentiment: optional(m.Sentiment),
		Context:   optional(m.Context),
	}
	if mentioned {
		dm.Position = m.Position
	}
	return dm
}

func (s Source) domain() string {
	if s.Domain != "" {
		return s.Domain
	}
	return DomainOf(s.URL)
}

// DomainOf returns the host of rawURL without a leading "www.".
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
