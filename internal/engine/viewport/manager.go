// # internal/engine/viewport/manager.go
//
// The viewport manager decides what should be parsed now versus
// opportunistically, and in what order. It is purely advisory: it never
// parses anything itself; callers pull boundaries off the queue and feed
// them to the cache/parser.
package viewport

import (
	"container/heap"
	"sync"
	"time"

	"stratum/internal/engine/source"
	"stratum/internal/shared/observability"
)

// DefaultEditTTL is how long an edit keeps boosting a boundary. Expired
// records are swept lazily on the next RecordEdit.
const DefaultEditTTL = 5 * time.Minute

// EditInfo tracks recent-edit heuristics per span.
type EditInfo struct {
	Timestamp time.Time
	EditCount int
}

// AccessInfo tracks access-frequency heuristics per span. Entries live for
// the life of the manager.
type AccessInfo struct {
	AccessCount int
	LastAccess  time.Time
}

// Manager state is guarded by mu: the owning engine is the only writer in
// the synchronous design, but the optional background pool pulls from the
// queue concurrently.
type Manager struct {
	mu      sync.Mutex
	weights Weights
	editTTL time.Duration

	view      source.Span
	visible   []source.Boundary
	predictor *ScrollPredictor

	edits    map[source.Span]*EditInfo
	accesses map[source.Span]*AccessInfo

	queue priorityQueue

	// nowFn is swappable for deterministic tests.
	nowFn func() time.Time
}

func NewManager(weights Weights, editTTL time.Duration) *Manager {
	if editTTL <= 0 {
		editTTL = DefaultEditTTL
	}
	return &Manager{
		weights:   weights,
		editTTL:   editTTL,
		predictor: NewScrollPredictor(),
		edits:     make(map[source.Span]*EditInfo),
		accesses:  make(map[source.Span]*AccessInfo),
		nowFn:     time.Now,
	}
}

// UpdateViewport recomputes the visible boundary set, feeds the scroll
// predictor, and rebuilds the priority queue over all candidate boundaries.
func (m *Manager) UpdateViewport(view source.Span, all []source.Boundary) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.predictor.Update(m.view, view)
	m.view = view

	m.visible = m.visible[:0]
	for _, b := range all {
		if b.Span.Overlaps(view) {
			m.visible = append(m.visible, b)
		}
	}

	m.rebuildQueue(all)
}

// RecordEdit bumps the edit heuristics for a span and sweeps expired
// records.
func (m *Manager) RecordEdit(span source.Span) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFn()
	if info, ok := m.edits[span]; ok {
		info.Timestamp = now
		info.EditCount++
	} else {
		m.edits[span] = &EditInfo{Timestamp: now, EditCount: 1}
	}

	for s, info := range m.edits {
		if now.Sub(info.Timestamp) > m.editTTL {
			delete(m.edits, s)
		}
	}
}

// RecordAccess bumps the access-frequency heuristics for a span.
func (m *Manager) RecordAccess(span source.Span) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info, ok := m.accesses[span]; ok {
		info.AccessCount++
		info.LastAccess = m.nowFn()
	} else {
		m.accesses[span] = &AccessInfo{AccessCount: 1, LastAccess: m.nowFn()}
	}
}

// Next pops the highest-priority boundary, or ok=false when the queue is
// drained.
func (m *Manager) Next() (PrioritizedBoundary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queue.Len() == 0 {
		return PrioritizedBoundary{}, false
	}
	item := heap.Pop(&m.queue).(PrioritizedBoundary)
	observability.QueueDepth.Set(float64(m.queue.Len()))
	return item, true
}

// Requeue puts a popped boundary back. Callers use it after peeking at an
// entry they are not ready to process.
func (m *Manager) Requeue(item PrioritizedBoundary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	heap.Push(&m.queue, item)
	observability.QueueDepth.Set(float64(m.queue.Len()))
}

func (m *Manager) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

// Visible returns the boundaries overlapping the current viewport, in the
// order they were supplied.
func (m *Manager) Visible() []source.Boundary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]source.Boundary, len(m.visible))
	copy(out, m.visible)
	return out
}

func (m *Manager) Viewport() source.Span {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

func (m *Manager) Predictor() *ScrollPredictor {
	return m.predictor
}

// EditInfoFor exposes the edit record for a span, if one is live.
func (m *Manager) EditInfoFor(span source.Span) (EditInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.edits[span]
	if !ok {
		return EditInfo{}, false
	}
	return *info, true
}

func (m *Manager) rebuildQueue(all []source.Boundary) {
	now := m.nowFn()
	predicted, hasPrediction := m.predictor.PredictNext(m.view)

	m.queue = m.queue[:0]
	for _, b := range all {
		reason, ok := m.classify(b, predicted, hasPrediction, now)
		if !ok {
			continue
		}
		score := m.weights.score(b, reason, m.view,
			m.edits[b.Span], m.accesses[b.Span], m.editTTL, now)
		m.queue = append(m.queue, PrioritizedBoundary{
			Boundary: b,
			Score:    score,
			Reason:   reason,
		})
	}
	heap.Init(&m.queue)
	observability.QueueDepth.Set(float64(m.queue.Len()))
}

// classify picks the strongest applicable reason for queueing a boundary.
// Boundaries with no reason stay out of the queue entirely.
func (m *Manager) classify(b source.Boundary, predicted source.Span,
	hasPrediction bool, now time.Time) (Reason, bool) {

	if b.Span.Overlaps(m.view) {
		return ReasonVisible, true
	}
	if info, ok := m.edits[b.Span]; ok && now.Sub(info.Timestamp) <= m.editTTL {
		return ReasonRecentlyEdited, true
	}
	if m.isNearby(b) {
		return ReasonNearby, true
	}
	if info, ok := m.accesses[b.Span]; ok && info.AccessCount >= 3 {
		return ReasonFrequentlyAccessed, true
	}
	if hasPrediction && b.Span.Overlaps(predicted) {
		return ReasonPredicted, true
	}
	return "", false
}

// isNearby treats anything within one viewport height of the visible span
// as a pre-parse candidate.
func (m *Manager) isNearby(b source.Boundary) bool {
	margin := m.view.Len()
	if margin == 0 {
		return false
	}
	return b.Span.Distance(m.view) <= margin
}
