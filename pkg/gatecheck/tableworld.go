package gatecheck

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TableWorld is a finite, table-driven World realization. Values are
// partial assignments of symbols to mask bits, encoded "bit=symbol" pairs
// joined with commas ("0=a,2=b"). Definables lists the assignments the
// world admits at each mask; Identify optionally coarsens Same at a mask by
// mapping values to a representative, which is how non-unique glues are
// modeled (distinct at the base, identified on the legs).
type TableWorld struct {
	Definables map[Mask][]Value         `json:"definables"`
	Identify   map[Mask]map[Value]Value `json:"identify,omitempty"`
}

var _ World = (*TableWorld)(nil)

func (w *TableWorld) IsDefinable(mask Mask, value Value) bool {
	norm, err := NormalizeValue(value)
	if err != nil {
		return false
	}
	for _, v := range w.Definables[mask] {
		nv, err := NormalizeValue(v)
		if err != nil {
			continue
		}
		if nv == norm {
			return true
		}
	}
	return false
}

func (w *TableWorld) Restrict(value Value, src, tgt Mask) (Value, bool) {
	if !Subset(tgt, src) {
		return "", false
	}
	assign, err := parseValue(value)
	if err != nil {
		return "", false
	}
	out := make(map[int]string)
	for bit, sym := range assign {
		if tgt&(1<<uint(bit)) != 0 {
			out[bit] = sym
		}
	}
	return formatValue(out), true
}

func (w *TableWorld) Same(mask Mask, a, b Value) bool {
	na, err := NormalizeValue(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeValue(b)
	if err != nil {
		return false
	}
	return w.rep(mask, na) == w.rep(mask, nb)
}

func (w *TableWorld) rep(mask Mask, v Value) Value {
	seen := map[Value]struct{}{v: {}}
	for {
		next, ok := w.Identify[mask][v]
		if !ok {
			return v
		}
		norm, err := NormalizeValue(next)
		if err != nil {
			return v
		}
		if _, cycle := seen[norm]; cycle {
			return norm
		}
		seen[norm] = struct{}{}
		v = norm
	}
}

func (w *TableWorld) IsCover(mask Mask, legs []Mask) bool {
	return Subset(mask, Union(legs))
}

func (w *TableWorld) Overlap(i, j Mask) Mask { return i & j }

func (w *TableWorld) Enumerate(mask Mask) []Value {
	vs := w.Definables[mask]
	out := make([]Value, len(vs))
	copy(out, vs)
	return out
}

func parseValue(v Value) (map[int]string, error) {
	out := make(map[int]string)
	s := strings.TrimSpace(string(v))
	if s == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		bit, sym, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return nil, fmt.Errorf("invalid assignment %q in value %q", part, v)
		}
		n, err := strconv.Atoi(bit)
		if err != nil || n < 0 || n > 63 {
			return nil, fmt.Errorf("invalid bit %q in value %q", bit, v)
		}
		out[n] = sym
	}
	return out, nil
}

func formatValue(assign map[int]string) Value {
	bits := make([]int, 0, len(assign))
	for b := range assign {
		bits = append(bits, b)
	}
	sort.Ints(bits)
	parts := make([]string, 0, len(bits))
	for _, b := range bits {
		parts = append(parts, strconv.Itoa(b)+"="+assign[b])
	}
	return Value(strings.Join(parts, ","))
}

// NormalizeValue reorders the assignment pairs of v into canonical form.
func NormalizeValue(v Value) (Value, error) {
	assign, err := parseValue(v)
	if err != nil {
		return "", err
	}
	return formatValue(assign), nil
}
