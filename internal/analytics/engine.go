package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/TobiSchelling/aiseo/internal/database"
)

// Options tunes the aggregations. Zero fields take their defaults.
type Options struct {
	LookbackMonths int
	TrendBand      float64
	TopDomains     int
	TopSources     int
	TopPrompts     int
	SourceExamples int
}

// DefaultOptions returns the stock window and list sizes.
func DefaultOptions() Options {
	return Options{
		LookbackMonths: 5,
		TrendBand:      2,
		TopDomains:     20,
		TopSources:     50,
		TopPrompts:     10,
		SourceExamples: 5,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.LookbackMonths < 2 {
		o.LookbackMonths = d.LookbackMonths
	}
	if o.TrendBand <= 0 {
		o.TrendBand = d.TrendBand
	}
	if o.TopDomains <= 0 {
		o.TopDomains = d.TopDomains
	}
	if o.TopSources <= 0 {
		o.TopSources = d.TopSources
	}
	if o.TopPrompts <= 0 {
		o.TopPrompts = d.TopPrompts
	}
	if o.SourceExamples <= 0 {
		o.SourceExamples = d.SourceExamples
	}
	return o
}

// Store is the persistence the engine reads from and writes brands to.
// *database.DB satisfies it.
type Store interface {
	Snapshot() (*database.Snapshot, error)
	GetBrand(brandID string) (*database.Brand, error)
	InsertBrandWithMentions(b database.Brand, mentions []database.Mention) error
	DeleteBrand(brandID string) (bool, error)
}

// Engine loads one snapshot per call and runs the aggregations over it.
type Engine struct {
	store Store
	opts  Options
	now   func() time.Time
}

// NewEngine creates an engine over store.
func NewEngine(store Store, opts Options) *Engine {
	return &Engine{store: store, opts: opts.normalized(), now: time.Now}
}

// SetClock replaces the time source used when the dataset has no runs.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Engine) snapshot() (*database.Snapshot, error) {
	snap, err := e.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return snap, nil
}

// ListBrands returns every brand's current summary.
func (e *Engine) ListBrands() ([]BrandSummary, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return ListBrands(snap, e.opts, e.now()), nil
}

// GetBrand returns one brand's detail.
func (e *Engine) GetBrand(brandID string) (*BrandDetail, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return GetBrand(snap, brandID, e.opts, e.now())
}

// BrandInput describes a brand to create.
type BrandInput struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Color      string   `json:"color"`
	Variations []string `json:"variations"`
}

const defaultBrandColor = "#64748b"

// CreateBrand stores a new brand and backfills its mentions from every
// recorded answer. Backfilled mentions are estimates; see SynthesizeMentions.
func (e *Engine) CreateBrand(in BrandInput) (*BrandDetail, error) {
	b, err := in.brand()
	if err != nil {
		return nil, err
	}

	existing, err := e.store.GetBrand(b.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up brand: %w", err)
	}
	if existing != nil {
		return nil, newError(KindConflict, "brand %s already exists", b.ID)
	}

	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	if b.IsPrimary() {
		for _, other := range snap.Brands {
			if other.IsPrimary() {
				return nil, newError(KindConflict, "primary brand %s already exists", other.ID)
			}
		}
	}

	mentions := SynthesizeMentions(b, snap.Brands, snap.Prompts)
	if err := e.store.InsertBrandWithMentions(b, mentions); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, &Error{Kind: KindConflict, Message: fmt.Sprintf("brand %s already exists", b.ID), Err: err}
		}
		return nil, fmt.Errorf("creating brand: %w", err)
	}
	log.WithFields(log.Fields{"brand": b.ID, "mentions": len(mentions)}).Info("Brand created")

	return e.GetBrand(b.ID)
}

func (in BrandInput) brand() (database.Brand, error) {
	b := database.Brand{
		ID:    strings.TrimSpace(in.ID),
		Name:  strings.TrimSpace(in.Name),
		Type:  strings.TrimSpace(in.Type),
		Color: strings.TrimSpace(in.Color),
	}
	if b.ID == "" {
		return b, newError(KindInvalidArgument, "brand id is required")
	}
	if b.Name == "" {
		return b, newError(KindInvalidArgument, "brand name is required")
	}
	switch b.Type {
	case "":
		b.Type = database.BrandCompetitor
	case database.BrandPrimary, database.BrandCompetitor:
	default:
		return b, newError(KindInvalidArgument, "brand type must be %q or %q, got %q",
			database.BrandPrimary, database.BrandCompetitor, in.Type)
	}
	if b.Color == "" {
		b.Color = defaultBrandColor
	}
	for _, v := range in.Variations {
		if v = strings.TrimSpace(v); v != "" {
			b.Variations = append(b.Variations, v)
		}
	}
	if len(b.Variations) == 0 {
		b.Variations = []string{b.Name}
	}
	return b, nil
}

// DeleteBrand removes a competitor and its mentions. The primary brand
// cannot be deleted.
func (e *Engine) DeleteBrand(brandID string) error {
	b, err := e.store.GetBrand(brandID)
	if err != nil {
		return fmt.Errorf("looking up brand: %w", err)
	}
	if b == nil {
		return newError(KindNotFound, "brand %s not found", brandID)
	}
	if b.IsPrimary() {
		return newError(KindForbidden, "cannot delete primary brand %s", brandID)
	}
	existed, err := e.store.DeleteBrand(brandID)
	if err != nil {
		return fmt.Errorf("deleting brand: %w", err)
	}
	if !existed {
		return newError(KindNotFound, "brand %s not found", brandID)
	}
	log.WithField("brand", brandID).Info("Brand deleted")
	return nil
}

// ListQueries returns every query aggregate.
func (e *Engine) ListQueries() ([]QuerySummary, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return ListQueries(snap), nil
}

// GetQuery returns a query aggregate with its runs.
func (e *Engine) GetQuery(queryID string) (*QueryDetail, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return GetQuery(snap, queryID)
}

// ListSources returns per-source usage.
func (e *Engine) ListSources() ([]SourceSummary, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return ListSources(snap), nil
}

// SourcesAnalytics returns the citation dashboard.
func (e *Engine) SourcesAnalytics() (*SourcesAnalytics, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	res := AnalyzeSources(snap, e.opts)
	return &res, nil
}

// Dashboard returns the primary brand KPIs.
func (e *Engine) Dashboard() (*DashboardKPIs, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	res := Dashboard(snap, e.opts, e.now())
	return &res, nil
}

// VisibilitySeries returns monthly visibility per brand.
func (e *Engine) VisibilitySeries() ([]SeriesPoint, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return VisibilitySeries(snap, e.opts, e.now()), nil
}

// Suggestions returns the recommendation list.
func (e *Engine) Suggestions() (*Suggestions, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	res := Suggest(snap, e.opts, e.now())
	return &res, nil
}
