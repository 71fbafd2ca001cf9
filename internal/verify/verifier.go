package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"company-verify/internal/scoring"
	"company-verify/internal/signal"
	"company-verify/internal/util"
)

const defaultSourceTimeout = 20 * time.Second

var signalOrder = signal.Sources

// Source is one external signal check.
type Source interface {
	Source() signal.Source
	Fetch(ctx context.Context, companyName string) (signal.Record, error)
}

// Observer is notified once per source as soon as its record settles.
type Observer func(rec signal.Record)

// Config controls how sources are invoked.
type Config struct {
	// SourceTimeout bounds every individual source call.
	SourceTimeout time.Duration
	// Concurrency caps parallel source calls; 1 runs them one after another.
	Concurrency int
}

// Report is the outcome of verifying one company.
type Report struct {
	CompanyName    string                    `json:"company_name"`
	Verdict        scoring.Verdict           `json:"verdict"`
	CompositeScore float64                   `json:"composite_score"`
	Checks         []signal.Record           `json:"checks"`
	Weights        map[signal.Source]float64 `json:"weights"`
}

// Check returns the record for source.
func (r Report) Check(source signal.Source) (signal.Record, bool) {
	for _, rec := range r.Checks {
		if rec.Source == source {
			return rec, true
		}
	}
	return signal.Record{}, false
}

// Verifier runs the fixed set of sources and aggregates their records.
type Verifier struct {
	sources     map[signal.Source]Source
	timeout     time.Duration
	concurrency int
}

// NewVerifier wires a verifier. Every source in the fixed set must be supplied exactly once.
func NewVerifier(cfg Config, sources ...Source) (*Verifier, error) {
	byID := make(map[signal.Source]Source, len(sources))
	for _, src := range sources {
		if src == nil {
			return nil, errors.New("nil source")
		}
		id := src.Source()
		if !id.Valid() {
			return nil, fmt.Errorf("unknown source %q", id)
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("source %s registered twice", id)
		}
		byID[id] = src
	}
	for _, id := range signalOrder {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("source %s not configured", id)
		}
	}

	timeout := cfg.SourceTimeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = len(signalOrder)
	}
	return &Verifier{sources: byID, timeout: timeout, concurrency: concurrency}, nil
}

// SourceTimeout is the per-source deadline in effect.
func (v *Verifier) SourceTimeout() time.Duration { return v.timeout }

// Concurrency is the maximum number of sources queried at once.
func (v *Verifier) Concurrency() int { return v.concurrency }

// Verify queries every source and returns the aggregated report. It never fails:
// unreachable sources become failed records with zero confidence.
func (v *Verifier) Verify(ctx context.Context, companyName string) Report {
	return v.VerifyObserved(ctx, companyName, nil)
}

// VerifyObserved is Verify with a per-record callback. The callback may be
// invoked from several goroutines, one call per source.
func (v *Verifier) VerifyObserved(ctx context.Context, companyName string, observe Observer) Report {
	timer := util.StartTimer()
	records := v.collect(ctx, companyName, observe)
	report := Aggregate(companyName, records)

	logrus.WithFields(logrus.Fields{
		"company":  companyName,
		"score":    report.CompositeScore,
		"verdict":  report.Verdict,
		"failed":   countFailed(records),
		"duration": timer.ElapsedMs(),
	}).Info("verification completed")
	return report
}

// Aggregate is the pure scoring step: it weights the records, computes the
// composite score and verdict, and lays the records out in canonical order.
// Sources missing from records are treated as failed.
func Aggregate(companyName string, records []signal.Record) Report {
	byID := make(map[signal.Source]signal.Record, len(records))
	for _, rec := range records {
		if rec.Source.Valid() {
			byID[rec.Source] = rec.Normalize(rec.Source).Clone()
		}
	}
	ordered := make([]signal.Record, 0, len(signalOrder))
	for _, id := range signalOrder {
		rec, ok := byID[id]
		if !ok {
			rec = signal.Failed(id, signal.Unavailable(id, signal.ReasonInvalid, errors.New("no record")))
		}
		ordered = append(ordered, rec)
	}

	overall := scoring.CombineRecommendation(ordered)
	return Report{
		CompanyName:    companyName,
		Verdict:        overall.Verdict,
		CompositeScore: overall.Score,
		Checks:         ordered,
		Weights:        overall.Weights,
	}
}

func (v *Verifier) collect(ctx context.Context, companyName string, observe Observer) []signal.Record {
	records := make([]signal.Record, len(signalOrder))

	var g errgroup.Group
	g.SetLimit(v.concurrency)
	for i, id := range signalOrder {
		i, id := i, id
		g.Go(func() error {
			rec := v.fetchOne(ctx, v.sources[id], companyName)
			records[i] = rec
			if observe != nil {
				observe(rec)
			}
			return nil
		})
	}
	_ = g.Wait()
	return records
}

type fetchResult struct {
	rec signal.Record
	err error
}

// fetchOne runs a single source under its own deadline. A source that ignores
// its context is abandoned once the deadline passes.
func (v *Verifier) fetchOne(ctx context.Context, src Source, companyName string) signal.Record {
	id := src.Source()
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	timer := util.StartTimer()
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: signal.Unavailable(id, signal.ReasonPanic, fmt.Errorf("%v", r))}
			}
		}()
		rec, err := src.Fetch(ctx, companyName)
		done <- fetchResult{rec: rec, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		reason := signal.ReasonTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			reason = signal.ReasonCancelled
		}
		res.err = signal.Unavailable(id, reason, ctx.Err())
	}

	if res.err == nil && res.rec.Source != "" && res.rec.Source != id {
		res.err = signal.Unavailable(id, signal.ReasonInvalid, fmt.Errorf("record tagged %q", res.rec.Source))
	}

	fields := logrus.Fields{
		"source":     id,
		"company":    companyName,
		"elapsed_ms": timer.ElapsedMs(),
	}
	if res.err != nil {
		if !errors.Is(res.err, signal.ErrSourceUnavailable) {
			res.err = signal.Unavailable(id, signal.ReasonFetch, res.err)
		}
		logrus.WithError(res.err).WithFields(fields).Warn("source unavailable")
		return signal.Failed(id, res.err)
	}

	rec := res.rec.Normalize(id)
	fields["confidence"] = rec.Confidence
	logrus.WithFields(fields).Debug("source settled")
	return rec
}

func countFailed(records []signal.Record) int {
	n := 0
	for _, rec := range records {
		if rec.Failed() {
			n++
		}
	}
	return n
}
