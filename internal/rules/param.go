package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// State distinguishes how a rule parameter appeared in the stored configuration.
type State int

const (
	// Absent means the key was not present.
	Absent State = iota
	// Empty means the key was present with null, "" or an empty list.
	Empty
	// Set means the key carries a usable value.
	Set
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Set:
		return "set"
	default:
		return "absent"
	}
}

type emptiable interface {
	isEmpty() bool
}

// Param is one optional rule parameter.
type Param[T emptiable] struct {
	state State
	value T
}

// Of returns a parameter holding v. An empty v yields an Empty parameter.
func Of[T emptiable](v T) Param[T] {
	if v.isEmpty() {
		return Param[T]{state: Empty, value: v}
	}
	return Param[T]{state: Set, value: v}
}

func (p Param[T]) State() State { return p.state }

// Value returns the value and whether the parameter is Set.
func (p Param[T]) Value() (T, bool) {
	return p.value, p.state == Set
}

// IsZero lets encoding/json omit absent parameters.
func (p Param[T]) IsZero() bool { return p.state == Absent }

func (p *Param[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		var zero T
		p.state, p.value = Empty, zero
		return nil
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*p = Of(v)
	return nil
}

func (p Param[T]) MarshalJSON() ([]byte, error) {
	if p.state != Set {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}

// IDList is a set of host entity ids. It accepts a JSON array of numbers or
// numeric strings, or a comma separated string.
type IDList []int64

func (l IDList) isEmpty() bool { return len(l) == 0 }

func (l IDList) Contains(id int64) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

func (l *IDList) UnmarshalJSON(data []byte) error {
	items, err := decodeItems(data)
	if err != nil {
		return err
	}
	out := make(IDList, 0, len(items))
	for _, item := range items {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", item)
		}
		out = append(out, id)
	}
	*l = out
	return nil
}

// TextList is a list of trimmed, non-blank strings. It accepts a JSON array
// or a comma separated string; stray commas are ignored.
type TextList []string

func (l TextList) isEmpty() bool { return len(l) == 0 }

// ContainsFold reports whether value equals an item, ignoring case.
func (l TextList) ContainsFold(value string) bool {
	value = strings.TrimSpace(value)
	for _, v := range l {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// AnyWithin reports whether some item is a case-insensitive substring of value.
func (l TextList) AnyWithin(value string) bool {
	value = strings.ToLower(value)
	for _, v := range l {
		if strings.Contains(value, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

func (l *TextList) UnmarshalJSON(data []byte) error {
	items, err := decodeItems(data)
	if err != nil {
		return err
	}
	*l = TextList(items)
	return nil
}

// Weekdays is a set of days, 0 = Sunday through 6 = Saturday.
type Weekdays []time.Weekday

func (w Weekdays) isEmpty() bool { return len(w) == 0 }

func (w Weekdays) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var ids IDList
	if err := ids.UnmarshalJSON(data); err != nil {
		return err
	}
	out := make(Weekdays, 0, len(ids))
	for _, id := range ids {
		if id < 0 || id > 6 {
			return fmt.Errorf("weekday %d out of range 0-6", id)
		}
		out = append(out, time.Weekday(id))
	}
	*w = out
	return nil
}

func (w Weekdays) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(w))
	for i, d := range w {
		ints[i] = int(d)
	}
	return json.Marshal(ints)
}

// Money is an amount in cents. A zero amount counts as empty.
type Money int64

func (m Money) isEmpty() bool { return m == 0 }

// ParseMoney reads a decimal amount such as "50", "50.5" or "1,234.56".
func ParseMoney(value string) (Money, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return 0, nil
	}

	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")

	whole, frac, _ := strings.Cut(value, ".")
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", value)
	}

	total := units*100 + cents
	if negative {
		total = -total
	}
	return Money(total), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String formats the amount with two decimals.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m *Money) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	parsed, err := ParseMoney(text)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func decodeItems(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var raw []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, err
		}
	} else {
		raw = []json.RawMessage{trimmed}
	}

	var items []string
	for _, r := range raw {
		var text string
		if err := json.Unmarshal(r, &text); err != nil {
			var n json.Number
			if err := json.Unmarshal(r, &n); err != nil {
				return nil, fmt.Errorf("list items must be strings or numbers")
			}
			text = n.String()
		}
		for _, part := range strings.Split(text, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	}
	return items, nil
}
