package metrics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/park-ride-insights/occupancy/internal/observation"
	"github.com/park-ride-insights/occupancy/internal/timebin"
)

// KeyDeriver maps a facility reading to its bucket key.
type KeyDeriver interface {
	Derive(facility string, t time.Time) timebin.Key
	Location() *time.Location
}

// AggregateStats summarises what an aggregation pass consumed.
type AggregateStats struct {
	Total    int
	Accepted int
	Dropped  int // unknown or negative availability
}

// Merge adds the counters of o.
func (s *AggregateStats) Merge(o AggregateStats) {
	s.Total += o.Total
	s.Accepted += o.Accepted
	s.Dropped += o.Dropped
}

// Aggregator builds weighted buckets from the full observation history.
type Aggregator struct {
	keys   KeyDeriver
	weight WeightParams
	now    time.Time
}

// NewAggregator creates an aggregator. now is the reference instant for
// recency weighting and must be supplied by the caller.
func NewAggregator(keys KeyDeriver, weight WeightParams, now time.Time) *Aggregator {
	return &Aggregator{keys: keys, weight: weight, now: now}
}

// Aggregate accumulates every valid observation into its bucket.
func (a *Aggregator) Aggregate(obs []observation.Observation) (Buckets, AggregateStats) {
	buckets := make(Buckets)
	var stats AggregateStats

	loc := a.keys.Location()
	now := a.now.In(loc)

	for _, o := range obs {
		stats.Total++
		if !o.Valid() {
			stats.Dropped++
			continue
		}
		key := a.keys.Derive(o.FacilityName, o.ObservedAt)
		w := RecencyWeight(o.ObservedAt.In(loc), now, a.weight)
		buckets.Add(key, *o.Available, w)
		stats.Accepted++
	}

	return buckets, stats
}

// AggregateParallel splits obs into contiguous shards, aggregates them
// concurrently and merges the partials in shard order. For a fixed shard
// count the result is identical from run to run.
func (a *Aggregator) AggregateParallel(ctx context.Context, obs []observation.Observation, shards int) (Buckets, AggregateStats, error) {
	if shards <= 1 || len(obs) < shards {
		b, s := a.Aggregate(obs)
		return b, s, nil
	}

	partials := make([]Buckets, shards)
	partialStats := make([]AggregateStats, shards)
	size := (len(obs) + shards - 1) / shards

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < shards; i++ {
		i := i // per-iteration copy; go directive is 1.21 (pre-loopvar semantics)
		start := i * size
		end := min(start+size, len(obs))
		if start >= end {
			partials[i] = Buckets{}
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[i], partialStats[i] = a.Aggregate(obs[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, AggregateStats{}, err
	}

	merged := make(Buckets)
	var stats AggregateStats
	for i := range partials {
		merged.Merge(partials[i])
		stats.Merge(partialStats[i])
	}
	return merged, stats, nil
}
