package filter

import (
	"errors"
	"fmt"
	"time"

	"github.com/asaidimu/go-sieve/core/schema"
)

// Interval is the semantic value of an Interval field: an ordered pair of
// values of the same runtime type with Begin <= End.
type Interval struct {
	Begin any
	End   any
}

// NewInterval builds an interval, rejecting mixed types and reversed bounds.
func NewInterval(begin, end any) (Interval, error) {
	c, err := schema.Compare(begin, end)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid interval bounds: %w", err)
	}
	if c > 0 {
		return Interval{}, fmt.Errorf("interval begin %v is greater than end %v", begin, end)
	}
	return Interval{Begin: begin, End: end}, nil
}

// IntervalFromValues returns the interval spanning the smallest and the largest
// of values. At least two values are required.
func IntervalFromValues(values ...any) (Interval, error) {
	if len(values) < 2 {
		return Interval{}, errors.New("an interval needs at least two values")
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		c, err := schema.Compare(v, lo)
		if err != nil {
			return Interval{}, fmt.Errorf("invalid interval value: %w", err)
		}
		if c < 0 {
			lo = v
			continue
		}
		if c, err = schema.Compare(v, hi); err != nil {
			return Interval{}, fmt.Errorf("invalid interval value: %w", err)
		}
		if c > 0 {
			hi = v
		}
	}
	return Interval{Begin: lo, End: hi}, nil
}

// Shift moves both bounds by delta. Numeric intervals take a delta of the same
// type as their bounds; time intervals take a time.Duration.
func (iv Interval) Shift(delta any) (Interval, error) {
	begin, err := addValue(iv.Begin, delta)
	if err != nil {
		return Interval{}, err
	}
	end, err := addValue(iv.End, delta)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Begin: begin, End: end}, nil
}

func addValue(v, delta any) (any, error) {
	if t, ok := v.(time.Time); ok {
		d, ok := delta.(time.Duration)
		if !ok {
			return nil, fmt.Errorf("cannot shift time by %T", delta)
		}
		return t.Add(d), nil
	}
	if !schema.SameType(v, delta) {
		return nil, fmt.Errorf("cannot shift %T by %T", v, delta)
	}
	switch x := v.(type) {
	case int:
		return x + delta.(int), nil
	case int32:
		return x + delta.(int32), nil
	case int64:
		return x + delta.(int64), nil
	case uint:
		return x + delta.(uint), nil
	case uint64:
		return x + delta.(uint64), nil
	case float32:
		return x + delta.(float32), nil
	case float64:
		return x + delta.(float64), nil
	case time.Duration:
		return x + delta.(time.Duration), nil
	}
	return nil, fmt.Errorf("cannot shift values of type %T", v)
}

// Contains reports whether v lies within the closed interval.
func (iv Interval) Contains(v any) bool {
	lo, err := schema.Compare(iv.Begin, v)
	if err != nil || lo > 0 {
		return false
	}
	hi, err := schema.Compare(v, iv.End)
	return err == nil && hi <= 0
}

// Equal reports whether both intervals have equal bounds.
func (iv Interval) Equal(other Interval) bool {
	b, err := schema.Compare(iv.Begin, other.Begin)
	if err != nil || b != 0 {
		return false
	}
	e, err := schema.Compare(iv.End, other.End)
	return err == nil && e == 0
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%v, %v]", iv.Begin, iv.End)
}
