package feedback

import "fmt"

type Field int

const (
	Overall Field = iota
	Positive
	Neutral
	Negative
)

// Fields is the fixed order in which fields are extracted, compared and
// persisted.
var Fields = []Field{Overall, Positive, Neutral, Negative}

// Ratings are the fields broken down by rating type.
var Ratings = []Field{Positive, Neutral, Negative}

var fieldNames = map[Field]string{
	Overall:  "overall",
	Positive: "positive",
	Neutral:  "neutral",
	Negative: "negative",
}

func (f Field) String() string {
	name, ok := fieldNames[f]
	if !ok {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return name
}

func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if fieldNames[f] == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown feedback field %q", name)
}

// the value a field holds when it could not be extracted or parsed
const MissingValue = "0"

// Record holds the textual representation of each feedback counter exactly as
// it is displayed and persisted.
type Record struct {
	Overall  string
	Positive string
	Neutral  string
	Negative string
}

func NewRecord() Record {
	return Record{
		Overall:  MissingValue,
		Positive: MissingValue,
		Neutral:  MissingValue,
		Negative: MissingValue,
	}
}

func (r Record) Get(f Field) string {
	switch f {
	case Overall:
		return r.Overall
	case Positive:
		return r.Positive
	case Neutral:
		return r.Neutral
	case Negative:
		return r.Negative
	}
	panic(fmt.Sprintf("unknown feedback field %d", int(f)))
}

func (r *Record) Set(f Field, value string) {
	switch f {
	case Overall:
		r.Overall = value
	case Positive:
		r.Positive = value
	case Neutral:
		r.Neutral = value
	case Negative:
		r.Negative = value
	default:
		panic(fmt.Sprintf("unknown feedback field %d", int(f)))
	}
}
