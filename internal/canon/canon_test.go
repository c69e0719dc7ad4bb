package canon

import "testing"

func TestEncodeSortsKeysByCodePoint(t *testing.T) {
	a := map[string]any{"b": "2", "a": "1", "c": "3"}
	out, err := Encode(a)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"a":"1","b":"2","c":"3"}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestEncodeStableUnderKeyReordering(t *testing.T) {
	first := map[string]any{"version": "1.0.0.0", "files": map[string]any{"z": "1", "a": "2"}}
	second := map[string]any{"files": map[string]any{"a": "2", "z": "1"}, "version": "1.0.0.0"}

	a, err := Encode(first)
	if err != nil {
		t.Fatalf("Encode first: %v", err)
	}
	b, err := Encode(second)
	if err != nil {
		t.Fatalf("Encode second: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("encodings differ under key reordering: %s vs %s", a, b)
	}
}

func TestEncodeNoInsignificantWhitespace(t *testing.T) {
	out, err := Encode(map[string]any{"a": []any{"1", "2"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"a":["1","2"]}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestEncodeNestedArraysPreserveOrder(t *testing.T) {
	out, err := Encode(map[string]any{"a": []any{"3", "1", "2"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"a":["3","1","2"]}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestFilesMapConversion(t *testing.T) {
	m := FilesMap(map[string]string{"a.txt": "deadbeef"})
	out, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"a.txt":"deadbeef"}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}
