package viewport

import (
	"container/heap"
	"time"

	"stratum/internal/engine/source"
)

// Reason says why a boundary was queued. Reasons form strict tiers: the
// queue orders by tier first, with scores breaking ties within a tier.
type Reason string

const (
	ReasonVisible            Reason = "visible"
	ReasonRecentlyEdited     Reason = "recently_edited"
	ReasonNearby             Reason = "nearby"
	ReasonFrequentlyAccessed Reason = "frequently_accessed"
	ReasonPredicted          Reason = "predicted"
)

// rank maps reasons onto their tier order, strongest first.
func (r Reason) rank() int {
	switch r {
	case ReasonVisible:
		return 4
	case ReasonRecentlyEdited:
		return 3
	case ReasonNearby:
		return 2
	case ReasonFrequentlyAccessed:
		return 1
	default:
		return 0
	}
}

// PrioritizedBoundary is a transient ranking record handed to callers; it
// is never persisted.
type PrioritizedBoundary struct {
	Boundary source.Boundary
	Score    float64
	Reason   Reason
}

// Weights holds the scoring knobs. Base scores are 200 apart and only
// shade ordering within a tier; tier order itself is fixed by Reason.rank.
type Weights struct {
	BaseVisible            float64
	BaseRecentlyEdited     float64
	BaseNearby             float64
	BaseFrequentlyAccessed float64
	BasePredicted          float64

	KindFunction float64
	KindMethod   float64
	KindType     float64
	KindBlock    float64

	RecencyMax      float64 // decays linearly to 0 over the edit TTL
	EditCountStep   float64 // per edit, capped at EditCountCap edits
	EditCountCap    int
	AccessStep      float64 // per access, capped at AccessCap accesses
	AccessCap       int
	DistanceDivisor float64 // bytes of distance per penalty point
	DistanceMax     float64
}

func DefaultWeights() Weights {
	return Weights{
		BaseVisible:            1000,
		BaseRecentlyEdited:     800,
		BaseNearby:             600,
		BaseFrequentlyAccessed: 400,
		BasePredicted:          200,

		KindFunction: 50,
		KindMethod:   45,
		KindType:     40,
		KindBlock:    10,

		RecencyMax:      60,
		EditCountStep:   2,
		EditCountCap:    10,
		AccessStep:      3,
		AccessCap:       10,
		DistanceDivisor: 32,
		DistanceMax:     150,
	}
}

func (w Weights) base(r Reason) float64 {
	switch r {
	case ReasonVisible:
		return w.BaseVisible
	case ReasonRecentlyEdited:
		return w.BaseRecentlyEdited
	case ReasonNearby:
		return w.BaseNearby
	case ReasonFrequentlyAccessed:
		return w.BaseFrequentlyAccessed
	default:
		return w.BasePredicted
	}
}

func (w Weights) kindBonus(k source.BoundaryKind) float64 {
	switch k {
	case source.BoundaryFunction:
		return w.KindFunction
	case source.BoundaryMethod:
		return w.KindMethod
	case source.BoundaryType:
		return w.KindType
	default:
		return w.KindBlock
	}
}

// score computes the full priority for one boundary. Visible boundaries
// never take the distance penalty.
func (w Weights) score(b source.Boundary, reason Reason, view source.Span,
	edit *EditInfo, access *AccessInfo, editTTL time.Duration, now time.Time) float64 {

	s := w.base(reason) + w.kindBonus(b.Kind)

	if edit != nil {
		// Expired edit records contribute nothing; they only linger until
		// the next sweep.
		age := now.Sub(edit.Timestamp)
		if age < editTTL {
			s += w.RecencyMax * (1 - float64(age)/float64(editTTL))
			count := edit.EditCount
			if count > w.EditCountCap {
				count = w.EditCountCap
			}
			s += float64(count) * w.EditCountStep
		}
	}

	if access != nil {
		count := access.AccessCount
		if count > w.AccessCap {
			count = w.AccessCap
		}
		s += float64(count) * w.AccessStep
	}

	if reason != ReasonVisible {
		penalty := float64(b.Span.Distance(view)) / w.DistanceDivisor
		if penalty > w.DistanceMax {
			penalty = w.DistanceMax
		}
		s -= penalty
	}
	return s
}

// priorityQueue is a max-heap ordered by reason tier, then score.
type priorityQueue []PrioritizedBoundary

func (q priorityQueue) Len() int { return len(q) }

func (q priorityQueue) Less(i, j int) bool {
	ri, rj := q[i].Reason.rank(), q[j].Reason.rank()
	if ri != rj {
		return ri > rj
	}
	return q[i].Score > q[j].Score
}

func (q priorityQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x interface{}) { *q = append(*q, x.(PrioritizedBoundary)) }

func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

var _ heap.Interface = (*priorityQueue)(nil)
