// Package ranking orders agent and agency listings. Random ordering is
// deterministic per caller and day so that a visitor paging back and forth
// sees a stable order until they explicitly ask for a reshuffle.
package ranking

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"estate-workers/internal/models"
)

const (
	DefaultPage         = 1
	DefaultLimit        = 12
	DefaultTopLimit     = 3
	DefaultPageCap      = 6
	DefaultOverFetch    = 3
	DefaultWindowLength = 14 * 24 * time.Hour
)

type Options struct {
	// PageCap is the largest page count reported to callers.
	PageCap int
	// TrendingWindow is how far back listing views are counted.
	TrendingWindow time.Duration
	// TopOverFetch multiplies the featured limit to widen the shuffle pool.
	TopOverFetch int
	// DefaultLimit is the page size used when a request leaves it unset.
	DefaultLimit int
	// DefaultTopLimit is the featured list length used when unset.
	DefaultTopLimit int
	Clock           func() time.Time
}

func DefaultOptions() Options {
	return Options{
		PageCap:         DefaultPageCap,
		TrendingWindow:  DefaultWindowLength,
		TopOverFetch:    DefaultOverFetch,
		DefaultLimit:    DefaultLimit,
		DefaultTopLimit: DefaultTopLimit,
		Clock:           time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PageCap <= 0 {
		o.PageCap = d.PageCap
	}
	if o.TrendingWindow <= 0 {
		o.TrendingWindow = d.TrendingWindow
	}
	if o.TopOverFetch <= 0 {
		o.TopOverFetch = d.TopOverFetch
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = d.DefaultLimit
	}
	if o.DefaultTopLimit <= 0 {
		o.DefaultTopLimit = d.DefaultTopLimit
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}

// ListRequest carries the caller-supplied listing parameters. Zero values
// select the defaults: role ALL, page 1, the configured page size and random
// ordering. Page must be >= 1 and Limit > 0; neither is checked here.
type ListRequest struct {
	Role        models.Role
	Page        int
	Limit       int
	Search      string
	SortBy      models.SortOption
	RefreshSeed *int64
}

type ListResult struct {
	Professionals    []models.Professional `json:"professionals"`
	TotalCount       int                   `json:"totalCount"`
	TotalPages       int                   `json:"totalPages"`
	ActualTotalPages int                   `json:"actualTotalPages"`
	CurrentPage      int                   `json:"currentPage"`
	HasMore          bool                  `json:"hasMore"`
}

// Ranker orchestrates store reads and in-memory ordering. It keeps no state
// between calls and is safe for concurrent use.
type Ranker struct {
	store    Store
	sessions SessionProvider
	opts     Options
	tracer   trace.Tracer
}

func NewRanker(store Store, sessions SessionProvider, opts Options) *Ranker {
	return &Ranker{
		store:    store,
		sessions: sessions,
		opts:     opts.withDefaults(),
		tracer:   otel.Tracer("estate-workers/ranking"),
	}
}

// ListProfessionals returns one page of professionals matching req together
// with pagination metadata. Errors from the session provider or the store are
// returned as is.
func (r *Ranker) ListProfessionals(ctx context.Context, req ListRequest) (result *ListResult, err error) {
	req = r.normalize(req)

	ctx, span := r.tracer.Start(ctx, "ranking.ListProfessionals", trace.WithAttributes(
		attribute.String("role", string(req.Role)),
		attribute.String("sort_by", string(req.SortBy)),
		attribute.Int("page", req.Page),
		attribute.Int("limit", req.Limit),
	))
	defer func() { endSpan(span, err) }()

	caller, err := r.sessions.CurrentCaller(ctx)
	if err != nil {
		return nil, err
	}

	filter := buildFilter(req.Role, req.Search)

	totalCount, err := r.store.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := r.opts.Clock()
	candidates, err := r.store.Find(ctx, FindQuery{
		Filter:         filter,
		Order:          storeOrder(req.SortBy),
		ViewsSince:     now.Add(-r.opts.TrendingWindow),
		IncludeContact: caller != nil,
	})
	if err != nil {
		return nil, err
	}

	ordered := withRecentViews(candidates)
	switch req.SortBy {
	case models.SortByRandom:
		seed := DeriveSeed(caller, refreshValue(req.RefreshSeed), now) + int64(req.Page)
		ordered = Shuffle(seed, ordered)
	case models.SortByViews:
		SortByRecentViews(ordered)
	}

	actualTotalPages := pageCount(totalCount, req.Limit)
	span.SetAttributes(attribute.Int("total_count", totalCount))

	return &ListResult{
		Professionals:    paginate(ordered, req.Page, req.Limit),
		TotalCount:       totalCount,
		TotalPages:       min(actualTotalPages, r.opts.PageCap),
		ActualTotalPages: actualTotalPages,
		CurrentPage:      req.Page,
		HasMore:          actualTotalPages > r.opts.PageCap,
	}, nil
}

// ListTopProfessionals returns up to limit featured professionals. The pool
// is over-fetched by listing count and shuffled with the caller's seed.
// A limit of zero or below selects the configured default.
func (r *Ranker) ListTopProfessionals(ctx context.Context, limit int, refreshSeed *int64) (top []models.Professional, err error) {
	if limit <= 0 {
		limit = r.opts.DefaultTopLimit
	}

	ctx, span := r.tracer.Start(ctx, "ranking.ListTopProfessionals", trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer func() { endSpan(span, err) }()

	caller, err := r.sessions.CurrentCaller(ctx)
	if err != nil {
		return nil, err
	}

	now := r.opts.Clock()
	candidates, err := r.store.Find(ctx, FindQuery{
		Filter:         buildFilter(models.RoleAll, ""),
		Order:          Order{Field: OrderByListingCount, Descending: true},
		Limit:          limit * r.opts.TopOverFetch,
		ViewsSince:     now.Add(-r.opts.TrendingWindow),
		IncludeContact: caller != nil,
	})
	if err != nil {
		return nil, err
	}

	shuffled := Shuffle(DeriveSeed(caller, refreshValue(refreshSeed), now), withRecentViews(candidates))
	if len(shuffled) > limit {
		shuffled = shuffled[:limit]
	}
	return shuffled, nil
}

func (r *Ranker) normalize(req ListRequest) ListRequest {
	if req.Role == "" {
		req.Role = models.RoleAll
	}
	if req.Page == 0 {
		req.Page = DefaultPage
	}
	if req.Limit == 0 {
		req.Limit = r.opts.DefaultLimit
	}
	if req.SortBy == "" {
		req.SortBy = models.SortByRandom
	}
	return req
}

func buildFilter(role models.Role, search string) Filter {
	f := Filter{Search: strings.TrimSpace(search)}
	if role == models.RoleAll {
		f.Roles = append([]models.Role(nil), models.ProfessionalRoles...)
	} else {
		f.Roles = []models.Role{role}
	}
	return f
}

// storeOrder maps a sort option to the ordering the store can apply. There is
// no view-based ordering at the store level, so views falls back to listing
// count like random does.
func storeOrder(sortBy models.SortOption) Order {
	if sortBy == models.SortByNewest {
		return Order{Field: OrderByCreatedAt, Descending: true}
	}
	return Order{Field: OrderByListingCount, Descending: true}
}

// withRecentViews folds each candidate's listing activity into its
// RecentViewCount and drops the per-listing detail.
func withRecentViews(candidates []Candidate) []models.Professional {
	out := make([]models.Professional, len(candidates))
	for i, c := range candidates {
		p := c.Professional
		p.RecentViewCount = 0
		for _, l := range c.Listings {
			p.RecentViewCount += l.Views
		}
		out[i] = p
	}
	return out
}

// SortByRecentViews orders professionals by recent views, highest first,
// keeping the existing relative order of ties.
func SortByRecentViews(ps []models.Professional) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].RecentViewCount > ps[j].RecentViewCount
	})
}

func paginate(ps []models.Professional, page, limit int) []models.Professional {
	start := (page - 1) * limit
	end := start + limit
	start = clamp(start, 0, len(ps))
	end = clamp(end, start, len(ps))
	return ps[start:end]
}

func pageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func refreshValue(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
