// Package stats holds the dataset statistics snapshot used for cost
// estimation.
//
// A DatabaseStats is gathered once per optimization and is read-only
// afterwards. The optimizer never invalidates it; if the dataset changes,
// callers gather a new snapshot.
package stats

import (
	"encoding/binary"
	"maps"
	"slices"

	"github.com/axiomhq/hyperloglog"

	"github.com/roach88/tripleopt/internal/rdf"
)

// PredicateStats describes the triples sharing one predicate.
type PredicateStats struct {
	Count            uint64 `json:"count"`
	DistinctSubjects uint64 `json:"distinct_subjects"`
	DistinctObjects  uint64 `json:"distinct_objects"`
}

// DatabaseStats is a cardinality snapshot of a dataset.
type DatabaseStats struct {
	TotalTriples       uint64                    `json:"total_triples"`
	DistinctSubjects   uint64                    `json:"distinct_subjects"`
	DistinctPredicates uint64                    `json:"distinct_predicates"`
	DistinctObjects    uint64                    `json:"distinct_objects"`
	Predicates         map[rdf.ID]PredicateStats `json:"predicates"`
}

// Predicate returns the statistics of predicate id.
func (s *DatabaseStats) Predicate(id rdf.ID) (PredicateStats, bool) {
	ps, ok := s.Predicates[id]
	return ps, ok
}

// PredicateIDs returns the known predicates in ascending id order.
func (s *DatabaseStats) PredicateIDs() []rdf.ID {
	return slices.Sorted(maps.Keys(s.Predicates))
}

// Gather scans ds once. Distinct subject and object counts are
// HyperLogLog estimates, clamped to [1, count] for non-empty groups.
// Predicate counts are exact.
func Gather(ds *rdf.Dataset) *DatabaseStats {
	type sketches struct {
		count    uint64
		subjects *hyperloglog.Sketch
		objects  *hyperloglog.Sketch
	}

	allSubjects := hyperloglog.New()
	allObjects := hyperloglog.New()
	perPredicate := make(map[rdf.ID]*sketches)

	var key [4]byte
	for _, t := range ds.Triples {
		ps, ok := perPredicate[t.Predicate]
		if !ok {
			ps = &sketches{subjects: hyperloglog.New(), objects: hyperloglog.New()}
			perPredicate[t.Predicate] = ps
		}
		ps.count++

		binary.BigEndian.PutUint32(key[:], uint32(t.Subject))
		ps.subjects.Insert(key[:])
		allSubjects.Insert(key[:])

		binary.BigEndian.PutUint32(key[:], uint32(t.Object))
		ps.objects.Insert(key[:])
		allObjects.Insert(key[:])
	}

	total := uint64(len(ds.Triples))
	out := &DatabaseStats{
		TotalTriples:       total,
		DistinctSubjects:   clamp(allSubjects.Estimate(), total),
		DistinctPredicates: uint64(len(perPredicate)),
		DistinctObjects:    clamp(allObjects.Estimate(), total),
		Predicates:         make(map[rdf.ID]PredicateStats, len(perPredicate)),
	}
	for id, ps := range perPredicate {
		out.Predicates[id] = PredicateStats{
			Count:            ps.count,
			DistinctSubjects: clamp(ps.subjects.Estimate(), ps.count),
			DistinctObjects:  clamp(ps.objects.Estimate(), ps.count),
		}
	}
	return out
}

func clamp(estimate, count uint64) uint64 {
	if count == 0 {
		return 0
	}
	if estimate < 1 {
		return 1
	}
	if estimate > count {
		return count
	}
	return estimate
}
