// Package series holds price-history points and the timestamp merge used to
// combine chunked and phase-offset fetches into one clean sequence.
package series

import "sort"

// Point is one price observation: unix seconds and price.
type Point struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
}

// Merge deduplicates points by timestamp and returns them sorted ascending.
// Input order is fetch order, not time order, so dedup runs before the sort;
// the first point seen for a timestamp wins. The input is not modified.
func Merge(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(points))
	unique := make([]Point, 0, len(points))
	for _, p := range points {
		if _, dup := seen[p.T]; dup {
			continue
		}
		seen[p.T] = struct{}{}
		unique = append(unique, p)
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].T < unique[j].T
	})

	return unique
}
