package metrics

import (
	"sort"

	"github.com/park-ride-insights/occupancy/internal/timebin"
)

// Bucket holds weighted sufficient statistics for one aggregation key.
// All fields are plain sums, so buckets built over disjoint observation sets
// combine exactly by Merge regardless of order.
type Bucket struct {
	N         float64 // weighted observation count
	Sum       float64 // weighted sum of available spots
	SumSq     float64 // weighted sum of squared available spots
	FullCount float64 // weighted count of readings with zero spots available
	Count     int     // raw, unweighted observation count
}

// Add accumulates one reading with the given recency weight.
func (b *Bucket) Add(available int, weight float64) {
	v := float64(available)
	b.N += weight
	b.Sum += v * weight
	b.SumSq += v * v * weight
	if available == 0 {
		b.FullCount += weight
	}
	b.Count++
}

// Merge adds the accumulators of o into b.
func (b *Bucket) Merge(o Bucket) {
	b.N += o.N
	b.Sum += o.Sum
	b.SumSq += o.SumSq
	b.FullCount += o.FullCount
	b.Count += o.Count
}

// Buckets maps each key to its accumulated statistics.
type Buckets map[timebin.Key]*Bucket

// Add accumulates a reading into the bucket for key, creating it on first use.
func (bs Buckets) Add(key timebin.Key, available int, weight float64) {
	b, ok := bs[key]
	if !ok {
		b = &Bucket{}
		bs[key] = b
	}
	b.Add(available, weight)
}

// Merge folds every bucket of other into bs.
func (bs Buckets) Merge(other Buckets) {
	for key, ob := range other {
		b, ok := bs[key]
		if !ok {
			b = &Bucket{}
			bs[key] = b
		}
		b.Merge(*ob)
	}
}

// Keys returns all keys in Key.Less order.
func (bs Buckets) Keys() []timebin.Key {
	keys := make([]timebin.Key, 0, len(bs))
	for k := range bs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Entry pairs a key with its bucket.
type Entry struct {
	Key    timebin.Key
	Bucket Bucket
}

// Sorted returns the buckets as entries in key order.
func (bs Buckets) Sorted() []Entry {
	keys := bs.Keys()
	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Key: k, Bucket: *bs[k]}
	}
	return out
}
