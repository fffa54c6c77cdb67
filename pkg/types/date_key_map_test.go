package types

import "testing"

func TestDateKeyMapRoundTrip(t *testing.T) {
	m := DateKeyMap{"20250110": "order-1", "20250117": "order-2"}

	value, err := m.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}

	var decoded DateKeyMap
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(decoded) != 2 || decoded["20250110"] != "order-1" {
		t.Fatalf("unexpected decoded map %v", decoded)
	}
}

func TestDateKeyMapScanNil(t *testing.T) {
	var m DateKeyMap
	if err := m.Scan(nil); err != nil {
		t.Fatalf("scan nil failed: %v", err)
	}
	if m == nil || len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
}

func TestDateKeyMapCloneIsIndependent(t *testing.T) {
	m := DateKeyMap{"20250110": "order-1"}
	clone := m.Clone()
	clone["20250110"] = "changed"
	if m["20250110"] != "order-1" {
		t.Fatal("clone mutated the source map")
	}
}

func TestStringListContains(t *testing.T) {
	l := StringList{"a", "b"}
	if !l.Contains("a") || l.Contains("c") {
		t.Fatalf("unexpected contains behavior for %v", l)
	}
}
