// Package predicate models list-view filters as conjunctions of
// (field, operator, value) triples and translates them into MongoDB filters.
//
// Timestamps travel as local wall-clock text in TimestampLayout, the same
// encoding the list view puts in links and the session, and are converted to
// UTC instants only when a Mongo filter is built.
package predicate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// TimestampLayout is YYYY-MM-DD HH:MM:SS, 24-hour, no zone suffix.
const TimestampLayout = "2006-01-02 15:04:05"

// Operators accepted in a Triple.
const (
	OpEq  = "="
	OpNe  = "!="
	OpGt  = ">"
	OpGte = ">="
	OpLt  = "<"
	OpLte = "<="
)

var (
	ErrUnknownField    = errors.New("unknown filter field")
	ErrUnknownOperator = errors.New("unknown filter operator")
	ErrBadValue        = errors.New("invalid filter value")
)

// Triple is one (field, operator, value) condition.
// It encodes to JSON as a three-element array: ["status","=","pending"].
type Triple struct {
	Field string
	Op    string
	Value string
}

// Predicate is an ordered conjunction of triples.
type Predicate []Triple

func (t Triple) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{t.Field, t.Op, t.Value})
}

func (t *Triple) UnmarshalJSON(b []byte) error {
	var arr [3]string
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	t.Field, t.Op, t.Value = arr[0], arr[1], arr[2]
	return nil
}

// FormatTimestamp renders t in its own location using TimestampLayout.
// Sub-second precision is dropped, so 23:59:59.999 renders as 23:59:59.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a TimestampLayout string as wall-clock time in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(TimestampLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not %s", ErrBadValue, s, TimestampLayout)
	}
	return t, nil
}

// DayBounds returns 00:00:00.000 and 23:59:59.999 of now's calendar date,
// in now's location.
func DayBounds(now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	end = time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

// StatusForDay builds [status == status, visitingDate >= start, visitingDate <= end]
// for the calendar day containing now.
func StatusForDay(status string, now time.Time) Predicate {
	start, end := DayBounds(now)
	return Predicate{
		{Field: FieldStatus, Op: OpEq, Value: status},
		{Field: FieldVisitingDate, Op: OpGte, Value: FormatTimestamp(start)},
		{Field: FieldVisitingDate, Op: OpLte, Value: FormatTimestamp(end)},
	}
}

// Validate checks every triple against the known fields and operators.
func (p Predicate) Validate() error {
	for i, t := range p {
		f, ok := fields[t.Field]
		if !ok {
			return fmt.Errorf("triple %d: %w: %q", i, ErrUnknownField, t.Field)
		}
		if _, ok := mongoOps[t.Op]; !ok {
			return fmt.Errorf("triple %d: %w: %q", i, ErrUnknownOperator, t.Op)
		}
		if f.kind == kindTimestamp {
			if _, err := time.Parse(TimestampLayout, t.Value); err != nil {
				return fmt.Errorf("triple %d: %w: %q", i, ErrBadValue, t.Value)
			}
		}
	}
	return nil
}

// Clone returns an independent copy of p.
func (p Predicate) Clone() Predicate {
	if p == nil {
		return nil
	}
	out := make(Predicate, len(p))
	copy(out, p)
	return out
}

// ToBSON translates a conjunction into a Mongo filter. Conditions on the
// same field are merged into one operator document; a field that repeats an
// operator moves the later condition into $and so no condition is lost.
// Timestamp values are
// read as wall-clock time in loc; an upper bound of "<=" covers the whole
// second it names, so 23:59:59 matches through 23:59:59.999.
func ToBSON(p Predicate, loc *time.Location) (bson.M, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	filter := bson.M{}
	var extra bson.A
	for _, t := range p {
		f := fields[t.Field]

		var v any = t.Value
		if f.kind == kindTimestamp {
			ts, err := ParseTimestamp(t.Value, loc)
			if err != nil {
				return nil, err
			}
			if t.Op == OpLte {
				ts = ts.Add(time.Second - time.Millisecond)
			}
			v = ts.UTC()
		}

		op := mongoOps[t.Op]
		ops, _ := filter[f.column].(bson.M)
		if ops == nil {
			ops = bson.M{}
			filter[f.column] = ops
		}
		if _, taken := ops[op]; taken {
			extra = append(extra, bson.M{f.column: bson.M{op: v}})
			continue
		}
		ops[op] = v
	}
	if len(extra) > 0 {
		filter["$and"] = extra
	}
	return filter, nil
}
