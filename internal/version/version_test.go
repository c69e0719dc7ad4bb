package version

import "testing"

func TestParseTupleRequiresFourComponents(t *testing.T) {
	if _, ok := ParseTuple("1.2.3"); ok {
		t.Fatalf("expected three components to fail to parse")
	}
	tuple, ok := ParseTuple("1.2.3.4")
	if !ok {
		t.Fatalf("expected four components to parse")
	}
	if tuple != [4]int{1, 2, 3, 4} {
		t.Fatalf("got %v", tuple)
	}
}

func TestParseTupleIgnoresExtraComponents(t *testing.T) {
	tuple, ok := ParseTuple("1.2.3.4.5")
	if !ok {
		t.Fatalf("expected extra trailing components to still parse")
	}
	if tuple != [4]int{1, 2, 3, 4} {
		t.Fatalf("got %v", tuple)
	}
}

func TestParseTupleRejectsNonNumeric(t *testing.T) {
	if _, ok := ParseTuple("1.2.x.4"); ok {
		t.Fatalf("expected non-numeric component to fail")
	}
}

// P6: isUpToDate(v, v) == true.
func TestIsUpToDateReflexive(t *testing.T) {
	if !IsUpToDate("1.2.3.4", "1.2.3.4") {
		t.Fatalf("expected equal versions to be up to date")
	}
}

// P6: isUpToDate(v1, v2) XOR isUpToDate(v2, v1) when v1 != v2.
func TestIsUpToDateAntisymmetric(t *testing.T) {
	cases := [][2]string{
		{"1.0.0.0", "1.0.0.1"},
		{"2.0.0.0", "1.9.9.9"},
		{"1.2.3.4", "1.2.3.5"},
	}
	for _, c := range cases {
		a := IsUpToDate(c[0], c[1])
		b := IsUpToDate(c[1], c[0])
		if a == b {
			t.Fatalf("expected exactly one direction to be up to date for %v", c)
		}
	}
}

func TestIsUpToDateComponentPrecedence(t *testing.T) {
	if !IsUpToDate("2.0.0.0", "1.9.9.9") {
		t.Fatalf("expected higher first component to win regardless of later components")
	}
	if IsUpToDate("1.9.9.9", "2.0.0.0") {
		t.Fatalf("expected lower first component to lose regardless of later components")
	}
}

func TestIsUpToDateFalseWhenUnparsable(t *testing.T) {
	if IsUpToDate("not-a-version", "1.0.0.0") {
		t.Fatalf("expected unparsable local version to be treated as not up to date")
	}
	if IsUpToDate("1.0.0.0", "not-a-version") {
		t.Fatalf("expected unparsable remote version to be treated as not up to date")
	}
}
