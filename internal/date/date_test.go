package date

import (
	"encoding/json"
	"testing"
)

func TestParseAcceptsTimestamp(t *testing.T) {
	d, err := Parse("2026-03-04T10:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "2026-03-04" {
		t.Errorf("String() = %q", d.String())
	}
	if _, err := Parse("04.03.2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestJSONNullAndValue(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte("null"), &d); err != nil || !d.IsZero() {
		t.Fatalf("null: d=%v err=%v", d, err)
	}
	if err := json.Unmarshal([]byte(`"2026-12-24"`), &d); err != nil {
		t.Fatal(err)
	}
	out, _ := json.Marshal(d)
	if string(out) != `"2026-12-24"` {
		t.Errorf("marshal = %s", out)
	}
	zero, _ := json.Marshal(Date{})
	if string(zero) != "null" {
		t.Errorf("zero marshal = %s", zero)
	}
}

func TestCompareZeroLast(t *testing.T) {
	a := New(2026, 1, 1)
	b := New(2026, 2, 1)
	if a.Compare(b) >= 0 || b.Compare(a) <= 0 {
		t.Error("ordering of set dates wrong")
	}
	if a.Compare(Date{}) >= 0 {
		t.Error("zero date should sort last")
	}
	if (Date{}).Compare(Date{}) != 0 {
		t.Error("two zero dates should be equal")
	}
}
