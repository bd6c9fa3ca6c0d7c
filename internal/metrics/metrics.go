package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"foodgram/internal/models"
)

var (
	shortLinkLookupDesc = prometheus.NewDesc(
		"foodgram_short_link_lookups_total",
		"Total short link lookup count by code and outcome",
		[]string{"code", "outcome"},
		nil,
	)
	tableRowsDesc = prometheus.NewDesc(
		"foodgram_table_rows",
		"Current number of rows per table",
		[]string{"table"},
		nil,
	)

	// MembershipToggles counts favorite, cart and subscription toggles.
	MembershipToggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodgram_membership_toggles_total",
		Help: "Collection membership toggles by relation, operation and outcome",
	}, []string{"relation", "op", "outcome"})

	// ShortLinkResolutions counts short code resolutions by outcome.
	ShortLinkResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodgram_short_link_resolutions_total",
		Help: "Short link resolutions by outcome",
	}, []string{"outcome"})

	// ShoppingListExports counts rendered shopping lists by format.
	ShoppingListExports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodgram_shopping_list_exports_total",
		Help: "Shopping list exports by format",
	}, []string{"format"})
)

// Store is the database surface read at scrape time and written by the
// recorder.
type Store interface {
	GetAllShortLinkLookups(ctx context.Context) ([]models.ShortLinkLookup, error)
	IncrementShortLinkLookup(ctx context.Context, code, outcome string, n int64) error
	TableCounts(ctx context.Context) ([]models.TableCount, error)
}

// DBCollector is a custom Prometheus collector that reads lookup counts and
// table sizes from the database on each scrape.
type DBCollector struct {
	store Store
}

// NewDBCollector returns a collector over store.
func NewDBCollector(store Store) *DBCollector {
	return &DBCollector{store: store}
}

// Describe sends the metric descriptors to the channel.
func (c *DBCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- shortLinkLookupDesc
	ch <- tableRowsDesc
}

// Collect queries the database and emits lookup counters and row gauges.
func (c *DBCollector) Collect(ch chan<- prometheus.Metric) {
	ctx := context.Background()

	lookups, err := c.store.GetAllShortLinkLookups(ctx)
	if err != nil {
		slog.Error("failed to collect short link lookup metrics", "error", err)
	}
	for _, l := range lookups {
		ch <- prometheus.MustNewConstMetric(
			shortLinkLookupDesc,
			prometheus.CounterValue,
			float64(l.Count),
			l.Code,
			l.Outcome,
		)
	}

	counts, err := c.store.TableCounts(ctx)
	if err != nil {
		slog.Error("failed to collect table row metrics", "error", err)
		return
	}
	for _, tc := range counts {
		ch <- prometheus.MustNewConstMetric(tableRowsDesc, prometheus.GaugeValue, float64(tc.Rows), tc.Table)
	}
}

// flushInterval is how often the recorder writes buffered lookup counts.
const flushInterval = 10 * time.Second

type lookupKey struct {
	code    string
	outcome string
}

// Recorder buffers short link lookup counts in memory and writes them to the
// store in batches. Only resolved codes keep their own row; every other
// outcome is counted under models.UnknownCode.
type Recorder struct {
	store Store

	mu      sync.Mutex
	pending map[lookupKey]int64

	// flushMu serializes writes so Flush returns only after an in-progress
	// periodic write is done.
	flushMu sync.Mutex
}

// NewRecorder returns a recorder writing to store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, pending: map[lookupKey]int64{}}
}

// Record counts one lookup.
func (r *Recorder) Record(code, outcome string) {
	if outcome != models.OutcomeResolved {
		code = models.UnknownCode
	}
	r.mu.Lock()
	r.pending[lookupKey{code: code, outcome: outcome}]++
	r.mu.Unlock()
}

// Flush writes all buffered counts.
func (r *Recorder) Flush(ctx context.Context) {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()
	r.flush(ctx)
}

func (r *Recorder) flush(ctx context.Context) {
	r.mu.Lock()
	batch := r.pending
	r.pending = map[lookupKey]int64{}
	r.mu.Unlock()

	for k, n := range batch {
		if err := r.store.IncrementShortLinkLookup(ctx, k.code, k.outcome, n); err != nil {
			slog.Error("failed to record short link lookups", "code", k.code, "outcome", k.outcome, "error", err)
		}
	}
}

// Run flushes every interval until ctx is done. Counts recorded after that
// are left for Flush.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.flushMu.Lock()
			if ctx.Err() == nil {
				r.flush(ctx)
			}
			r.flushMu.Unlock()
		}
	}
}

var (
	recorder     *Recorder
	recorderOnce sync.Once
)

// Init registers the counters and the database collector and starts the
// lookup recorder, which flushes periodically until ctx is done. Must be
// called once at startup.
func Init(ctx context.Context, store Store) {
	recorderOnce.Do(func() {
		recorder = NewRecorder(store)
		prometheus.MustRegister(
			MembershipToggles,
			ShortLinkResolutions,
			ShoppingListExports,
			NewDBCollector(store),
		)
		go recorder.Run(ctx, flushInterval)
	})
}

// RecordShortLinkLookup counts a short code lookup outcome.
func RecordShortLinkLookup(code, outcome string) {
	ShortLinkResolutions.WithLabelValues(outcome).Inc()
	if recorder != nil {
		recorder.Record(code, outcome)
	}
}

// Flush writes pending lookup counts. Called on shutdown, after the server
// stopped taking requests.
func Flush() {
	if recorder != nil {
		recorder.Flush(context.Background())
	}
}
