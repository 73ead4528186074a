package valuation

// Step levels returned by every band scorer
const (
	LevelGood = 100
	LevelOK   = 75
	LevelWeak = 45
	LevelPoor = 20
)

// Direction tells a Band how to read its bounds
type Direction int

const (
	LowerIsBetter Direction = iota
	HigherIsBetter
	MidRange
)

// Band holds the thresholds for one metric. Good/OK/Bad are used by the
// lower and higher directions; the six Low*/High* bounds by MidRange.
// Bounds must be ordered for their direction, see Ordered.
type Band struct {
	Direction Direction

	Good float64
	OK   float64
	Bad  float64

	LowBad   float64
	LowOK    float64
	LowGood  float64
	HighGood float64
	HighOK   float64
	HighBad  float64
}

// Lower builds a lower-is-better band
func Lower(good, ok, bad float64) Band {
	return Band{Direction: LowerIsBetter, Good: good, OK: ok, Bad: bad}
}

// Higher builds a higher-is-better band
func Higher(bad, ok, good float64) Band {
	return Band{Direction: HigherIsBetter, Good: good, OK: ok, Bad: bad}
}

// Mid builds a band with a healthy middle range
func Mid(lowBad, lowOK, lowGood, highGood, highOK, highBad float64) Band {
	return Band{
		Direction: MidRange,
		LowBad:    lowBad,
		LowOK:     lowOK,
		LowGood:   lowGood,
		HighGood:  highGood,
		HighOK:    highOK,
		HighBad:   highBad,
	}
}

// Score maps v onto the band's step levels
func (b Band) Score(v *float64) *int {
	switch b.Direction {
	case HigherIsBetter:
		return HigherBetter(v, b.Bad, b.OK, b.Good)
	case MidRange:
		return Between(v, b.LowBad, b.LowOK, b.LowGood, b.HighGood, b.HighOK, b.HighBad)
	default:
		return LowerBetter(v, b.Good, b.OK, b.Bad)
	}
}

// Ordered reports whether the bounds are monotonic for the direction.
// A disordered band does not fail, it just scores wrong.
func (b Band) Ordered() bool {
	switch b.Direction {
	case HigherIsBetter:
		return b.Bad <= b.OK && b.OK <= b.Good
	case MidRange:
		return b.LowBad <= b.LowOK && b.LowOK <= b.LowGood && b.LowGood <= b.HighGood &&
			b.HighGood <= b.HighOK && b.HighOK <= b.HighBad
	default:
		return b.Good <= b.OK && b.OK <= b.Bad
	}
}

// LowerBetter scores a metric where smaller values are preferable
func LowerBetter(v *float64, good, ok, bad float64) *int {
	if v == nil {
		return nil
	}
	switch {
	case *v <= good:
		return level(LevelGood)
	case *v <= ok:
		return level(LevelOK)
	case *v <= bad:
		return level(LevelWeak)
	}
	return level(LevelPoor)
}

// HigherBetter scores a metric where larger values are preferable
func HigherBetter(v *float64, bad, ok, good float64) *int {
	if v == nil {
		return nil
	}
	switch {
	case *v >= good:
		return level(LevelGood)
	case *v >= ok:
		return level(LevelOK)
	case *v >= bad:
		return level(LevelWeak)
	}
	return level(LevelPoor)
}

// Between scores a metric that is healthiest inside a middle range
func Between(v *float64, lowBad, lowOK, lowGood, highGood, highOK, highBad float64) *int {
	if v == nil {
		return nil
	}
	x := *v
	switch {
	case x >= lowGood && x <= highGood:
		return level(LevelGood)
	case x >= lowOK && x <= highOK:
		return level(LevelOK)
	case x >= lowBad && x <= highBad:
		return level(LevelWeak)
	}
	return level(LevelPoor)
}

func level(n int) *int {
	return &n
}
