package domain

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	perr "vqamerge/internal/platform/errors"
)

// maxExponent bounds scientific notation so a crafted id cannot force a huge allocation
const maxExponent = 4096

type idKind uint8

const (
	idNumber idKind = iota + 1
	idString
)

// QuestionID is a comparable join key. Numbers and strings never collide ("1" != 1);
// numerically equal numbers are one key (1, 1.0 and 1e0)
type QuestionID struct {
	kind idKind
	v    string
}

// IntID builds a numeric QuestionID
func IntID(n int64) QuestionID { return QuestionID{kind: idNumber, v: strconv.FormatInt(n, 10)} }

// StringID builds a string QuestionID
func StringID(s string) QuestionID { return QuestionID{kind: idString, v: s} }

// IsString reports whether the id came from a JSON string
func (q QuestionID) IsString() bool { return q.kind == idString }

// String renders numbers bare and strings quoted
func (q QuestionID) String() string {
	if q.kind == idString {
		return strconv.Quote(q.v)
	}
	return q.v
}

// UnmarshalJSON accepts a JSON number or string
func (q *QuestionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return perr.WithField(perr.Malformedf("question_id is empty"), "question_id")
	}
	switch c := b[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return perr.WithField(perr.Wrap(err, perr.ErrorCodeMalformed, "question_id"), "question_id")
		}
		*q = StringID(s)
		return nil
	case c == '-' || (c >= '0' && c <= '9'):
		canon, err := canonicalNumber(string(b))
		if err != nil {
			return perr.WithField(err, "question_id")
		}
		*q = QuestionID{kind: idNumber, v: canon}
		return nil
	case c == 'n':
		// null leaves the pointer field nil, so required validation reports it
		return nil
	}
	return perr.WithField(perr.Malformedf("question_id must be an integer or a string, got %s", b), "question_id")
}

// MarshalJSON writes the id back in its original JSON kind
func (q QuestionID) MarshalJSON() ([]byte, error) {
	if q.kind == idString {
		return json.Marshal(q.v)
	}
	if q.kind == 0 {
		return []byte("null"), nil
	}
	return []byte(q.v), nil
}

// canonicalNumber renders integral values in plain decimal and other values as an exact fraction
func canonicalNumber(s string) (string, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(strings.TrimPrefix(s[i+1:], "+"))
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return "", perr.Malformedf("question_id %s is out of range", s)
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", perr.Malformedf("question_id %s is not a number", s)
	}
	if r.IsInt() {
		return r.Num().String(), nil
	}
	return r.RatString(), nil
}
