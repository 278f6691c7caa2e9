package viewport

import "stratum/internal/engine/source"

type Direction int

const (
	DirectionNone Direction = 0
	DirectionDown Direction = 1
	DirectionUp   Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirectionDown:
		return "down"
	case DirectionUp:
		return "up"
	default:
		return "none"
	}
}

// minConfidence is the threshold below which no prediction is offered.
const minConfidence = 0.5

// ScrollPredictor extrapolates the next viewport from consecutive viewport
// deltas. It only feeds pre-parse candidates; predictions never affect
// parse correctness.
type ScrollPredictor struct {
	direction  Direction
	velocity   float64 // bytes per viewport update
	confidence float64
	streak     int // consecutive updates in the same direction
}

func NewScrollPredictor() *ScrollPredictor {
	return &ScrollPredictor{}
}

// Update feeds one viewport transition into the predictor.
func (sp *ScrollPredictor) Update(prev, next source.Span) {
	delta := next.Start - prev.Start
	dir := DirectionNone
	switch {
	case delta > 0:
		dir = DirectionDown
	case delta < 0:
		dir = DirectionUp
	}

	if dir == DirectionNone {
		sp.direction = DirectionNone
		sp.velocity = 0
		sp.confidence = 0
		sp.streak = 0
		return
	}

	if dir == sp.direction {
		sp.streak++
	} else {
		sp.streak = 1
	}
	sp.direction = dir
	sp.velocity = float64(abs(delta))

	// Confidence builds with a sustained direction: one move is a weak
	// signal, three or more consecutive moves a strong one.
	sp.confidence = float64(sp.streak) * 0.25
	if sp.confidence > 1 {
		sp.confidence = 1
	}
}

func (sp *ScrollPredictor) Direction() Direction { return sp.direction }
func (sp *ScrollPredictor) Velocity() float64    { return sp.velocity }
func (sp *ScrollPredictor) Confidence() float64  { return sp.confidence }

// PredictNext extrapolates the viewport one velocity step ahead. The second
// result is false when confidence is too low to be worth pre-parsing.
func (sp *ScrollPredictor) PredictNext(current source.Span) (source.Span, bool) {
	if sp.confidence < minConfidence || sp.direction == DirectionNone {
		return source.Span{}, false
	}
	shift := int(sp.velocity) * int(sp.direction)
	start := current.Start + shift
	end := current.End + shift
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return source.NewSpan(start, end), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
