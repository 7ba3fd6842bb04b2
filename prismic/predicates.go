package prismic

import (
	"strconv"
	"strings"
)

// Predicate is a single filter expression such as at(document.type,"posts").
type Predicate string

// Predicates are combined with AND by the API.
type Predicates []Predicate

// At matches documents whose field at path equals value.
func At(path, value string) Predicate {
	return Predicate("[at(" + path + "," + strconv.Quote(value) + ")]")
}

// Any matches documents whose field at path equals one of values.
func Any(path string, values ...string) Predicate {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return Predicate("[any(" + path + ",[" + strings.Join(quoted, ",") + "])]")
}

// DocumentType is shorthand for At("document.type", t).
func DocumentType(t string) Predicate {
	return At("document.type", t)
}

func (ps Predicates) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for _, p := range ps {
		b.WriteString(string(p))
	}
	b.WriteByte(']')
	return b.String()
}
