package interaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthlabs/hearth-assistant/internal/events"
	"github.com/hearthlabs/hearth-assistant/internal/observability/metrics"
	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/internal/privacy"
	"github.com/hearthlabs/hearth-assistant/internal/safety"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

// Collector runs the capture pipeline: validate, safety-gate, sanitize,
// extract, append, enforce retention, emit. Each step is a hard gate; a
// failure before the append leaves no state behind.
type Collector struct {
	store     Store
	policies  policy.Store
	detector  *privacy.Detector
	sanitizer *privacy.Sanitizer
	extractor *Extractor
	gate      *safety.Gate
	bus       *events.Bus
	enforcer  *Enforcer
	metrics   *metrics.PipelineMetrics
	logger    *logging.Logger
	clock     func() time.Time

	mu      sync.RWMutex
	sources map[Source]struct{}
}

type CollectorOption func(*Collector)

// WithMetrics attaches pipeline metrics. The collector works without them.
func WithMetrics(m *metrics.PipelineMetrics) CollectorOption {
	return func(c *Collector) { c.metrics = m }
}

func NewCollector(store Store, policies policy.Store, gate *safety.Gate, bus *events.Bus, logger *logging.Logger, opts ...CollectorOption) *Collector {
	if logger == nil {
		logger = logging.Default()
	}
	det := privacy.NewDetector()
	c := &Collector{
		store:     store,
		policies:  policies,
		detector:  det,
		sanitizer: privacy.NewSanitizer(det),
		extractor: NewExtractor(),
		gate:      gate,
		bus:       bus,
		enforcer:  NewEnforcer(store, policies, logger),
		logger:    logger.WithComponent("collector"),
		clock:     time.Now,
		sources: map[Source]struct{}{
			SourceVoice:     {},
			SourceUI:        {},
			SourceScheduler: {},
			SourceAvatar:    {},
			SourceSmartHome: {},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterSource allows captures from an additional source.
func (c *Collector) RegisterSource(src Source) {
	if src == "" {
		return
	}
	c.mu.Lock()
	c.sources[src] = struct{}{}
	c.mu.Unlock()
}

func (c *Collector) sourceKnown(src Source) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sources[src]
	return ok
}

// Capture runs one interaction through the full pipeline.
func (c *Collector) Capture(ctx context.Context, in UserInteraction) error {
	started := c.clock()

	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if err := in.Validate(started); err != nil {
		c.metrics.ObserveCapture(string(in.Source), "invalid")
		return err
	}
	if !c.sourceKnown(in.Source) {
		c.metrics.ObserveCapture(string(in.Source), "invalid")
		return &ValidationError{Field: "source", Reason: fmt.Sprintf("unregistered source %q", in.Source)}
	}

	if err := c.safetyCheck(in); err != nil {
		c.metrics.ObserveCapture(string(in.Source), "blocked")
		c.emitError(ctx, in.UserID, "safety_gate", err)
		return err
	}

	c.sanitize(&in)
	in.Patterns = c.extractor.Extract(in)

	if err := c.store.Append(ctx, in); err != nil {
		perr := &ProcessingError{Stage: "store", Err: err}
		c.metrics.ObserveCapture(string(in.Source), "error")
		c.emitError(ctx, in.UserID, "store", perr)
		return perr
	}

	purged, err := c.enforcer.Apply(ctx, in.UserID)
	if err != nil {
		// The record is durable; a purge failure is retried by the sweeper.
		c.logger.Warn("inline retention failed", "user_id", in.UserID, "error", err)
	}
	c.metrics.ObservePurged("inline", purged)

	c.metrics.ObserveCapture(string(in.Source), "ok")
	c.metrics.ObserveCaptureLatency(string(in.Source), c.clock().Sub(started).Seconds())

	c.bus.Publish(ctx, events.InteractionCapturedV1{
		EventID:       uuid.NewString(),
		UserID:        in.UserID,
		SessionID:     in.SessionID,
		Source:        string(in.Source),
		Type:          in.Type,
		PatternCount:  len(in.Patterns),
		CapturedAt:    in.Timestamp,
		PurgedRecords: purged,
	})
	if len(in.Patterns) > 0 {
		summaries := make([]events.PatternSummaryV1, 0, len(in.Patterns))
		for _, p := range in.Patterns {
			summaries = append(summaries, events.PatternSummaryV1{
				PatternID: p.PatternID,
				Type:      string(p.Type),
				Strength:  p.Strength,
				Frequency: p.Frequency,
			})
		}
		c.bus.Publish(ctx, events.PatternsDetectedV1{
			EventID:    uuid.NewString(),
			UserID:     in.UserID,
			SessionID:  in.SessionID,
			Patterns:   summaries,
			DetectedAt: c.clock().UTC(),
		})
	}
	return nil
}

func (c *Collector) safetyCheck(in UserInteraction) error {
	if c.gate == nil {
		return nil
	}
	if err := c.gate.Check(in.Outcome.Summary); err != nil {
		return err
	}
	if err := c.gate.Check(in.Type); err != nil {
		return err
	}
	return c.gate.CheckAll(in.Context)
}

func (c *Collector) sanitize(in *UserInteraction) {
	for _, m := range c.detector.Detect(in.Outcome.Summary) {
		c.metrics.ObservePIIDetected(string(m.Category))
	}
	in.Outcome.Summary = c.sanitizer.SanitizeString(in.Outcome.Summary)
	in.Type = c.sanitizer.SanitizeString(in.Type)
	if in.Context != nil {
		if clean, ok := c.sanitizer.Sanitize(in.Context).(map[string]any); ok {
			in.Context = clean
		}
	}
}

func (c *Collector) emitError(ctx context.Context, userID, stage string, err error) {
	c.bus.Publish(ctx, events.InteractionErrorV1{
		EventID:    uuid.NewString(),
		UserID:     userID,
		Stage:      stage,
		Reason:     err.Error(),
		OccurredAt: c.clock().UTC(),
	})
}

// ConfigureRetention validates and stores a retention policy, then runs an
// immediate enforcement pass so a tightened window takes effect at once.
func (c *Collector) ConfigureRetention(ctx context.Context, userID string, rp policy.RetentionPolicy) error {
	if err := rp.Validate(); err != nil {
		return err
	}
	if err := c.policies.SetRetention(ctx, userID, rp); err != nil {
		return fmt.Errorf("interaction: store retention policy: %w", err)
	}
	purged, err := c.enforcer.Apply(ctx, userID)
	if err != nil {
		return err
	}
	c.metrics.ObservePurged("configure", purged)
	c.logger.Info("retention configured",
		"user_id", userID,
		"retention_days", rp.RetentionDays,
		"purged", purged)
	return nil
}

// Summary aggregates a user's stored interactions over a range. A zero End
// means now.
func (c *Collector) Summary(ctx context.Context, userID string, r TimeRange) (Summary, error) {
	if r.End.IsZero() {
		r.End = c.clock().UTC()
	}
	records, err := c.store.ListRange(ctx, userID, r)
	if err != nil {
		return Summary{}, fmt.Errorf("interaction: summary for %s: %w", userID, err)
	}

	s := Summary{
		UserID:        userID,
		Range:         r,
		BySource:      make(map[Source]int),
		PatternCounts: make(map[PatternType]int),
	}
	successes := 0
	for _, in := range records {
		s.TotalInteractions++
		s.BySource[in.Source]++
		if in.Outcome.Success {
			successes++
		}
		for _, p := range in.Patterns {
			s.PatternCounts[p.Type]++
		}
	}
	if s.TotalInteractions > 0 {
		s.SuccessRate = float64(successes) / float64(s.TotalInteractions)
	}
	return s, nil
}

// PurgeUser removes every stored interaction for a user and announces the
// purge on the bus.
func (c *Collector) PurgeUser(ctx context.Context, userID string) (int, error) {
	removed, err := c.store.PurgeUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("interaction: purge user %s: %w", userID, err)
	}
	c.metrics.ObservePurged("purge_user", removed)
	c.bus.Publish(ctx, events.DataPurgedV1{
		EventID:       uuid.NewString(),
		UserID:        userID,
		RecordsPurged: removed,
		PurgedAt:      c.clock().UTC(),
	})
	c.logger.Info("user data purged", "user_id", userID, "removed", removed)
	return removed, nil
}

// Enforcer exposes the retention enforcer for the periodic sweeper.
func (c *Collector) Enforcer() *Enforcer { return c.enforcer }
