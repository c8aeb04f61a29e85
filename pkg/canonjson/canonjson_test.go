package canonjson

import "testing"

func TestMarshalSortsKeysRecursively(t *testing.T) {
	v := map[string]any{
		"b": 2,
		"a": map[string]any{"y": 2, "x": 1},
	}
	b, err := Marshal(v)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	const want = `{"a":{"x":1,"y":2},"b":2}`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}

func TestSumObjectDeterministicForSameState(t *testing.T) {
	a := map[string]any{
		"b": 2,
		"a": map[string]any{"y": 2, "x": 1},
	}
	b := map[string]any{
		"a": map[string]any{"x": 1, "y": 2},
		"b": 2,
	}
	ha, _, err := SumObject(a)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	hb, _, err := SumObject(b)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ha != hb {
		t.Fatalf("expected same hash, got %s vs %s", ha, hb)
	}
}

func TestSumObjectChangesWhenStateChanges(t *testing.T) {
	ha, _, _ := SumObject(map[string]any{"a": 1})
	hb, _, _ := SumObject(map[string]any{"a": 2})
	if ha == hb {
		t.Fatalf("expected different hashes")
	}
}

func TestCanonicalNumbers(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{1, "1"},
		{1.0, "1"},
		{-0.0, "0"},
		{100.0, "100"},
		{0.5, "0.5"},
		{0.0001, "0.0001"},
		{1e-5, "0.00001"},
		{1.2e-5, "0.000012"},
		{1e-6, "0.000001"},
		{1e-7, "1e-7"},
		{2.5e-8, "2.5e-8"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
	}
	for _, c := range cases {
		b, err := Marshal(c.in)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", c.in, err)
		}
		if string(b) != c.want {
			t.Fatalf("Marshal(%v) = %s, want %s", c.in, b, c.want)
		}
	}
}

func TestStringEscapingIsMinimal(t *testing.T) {
	b, err := Marshal("a<b>&\"\\\n")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	const want = `"a<b>&\"\\\n"`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}

func TestControlCharactersGetEscaped(t *testing.T) {
	b, err := Marshal("x\x01y\x1f")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	const want = `"x\u0001y\u001f"`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}

func TestStructsNormalizeThroughTags(t *testing.T) {
	type row struct {
		B string `json:"b"`
		A string `json:"a"`
	}
	b, err := Marshal(row{B: "2", A: "1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	const want = `{"a":"1","b":"2"}`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}

func TestNullAndArrays(t *testing.T) {
	b, err := Marshal(map[string]any{"xs": []any{nil, true, "s"}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	const want = `{"xs":[null,true,"s"]}`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}
