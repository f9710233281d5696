package config

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestParseBasicDocument(t *testing.T) {
	input := `
# a leading comment
[import.texture]
mips = true
quality = 3
scale = 0.5
name = "diffuse"
tags = [ "ui", "hud" ]
`
	doc, errs := Parse(strings.NewReader(input))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	mips, ok := doc.Get("import.texture.mips")
	if !ok || !mips.AsBool() {
		t.Fatalf("expected import.texture.mips = true, got %+v %v", mips, ok)
	}
	quality, ok := doc.Get("import.texture.quality")
	if !ok || quality.AsInt() != 3 {
		t.Fatalf("expected quality = 3, got %+v %v", quality, ok)
	}
	name, ok := doc.Get("import.texture.name")
	if !ok || name.AsString() != "diffuse" {
		t.Fatalf("expected name = diffuse, got %+v %v", name, ok)
	}
	tags, ok := doc.Get("import.texture.tags")
	if !ok || len(tags.AsStringArray()) != 2 {
		t.Fatalf("expected 2 tags, got %+v %v", tags, ok)
	}
}

func TestParseAccumulatesErrorsWithoutAborting(t *testing.T) {
	input := `
good = 1
malformed line with no equals
another_good = "x"
`
	doc, errs := Parse(strings.NewReader(input))
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 parse error, got %d: %v", len(errs), errs)
	}
	if _, ok := doc.Get("good"); !ok {
		t.Fatal("expected well-formed entries before the bad line to survive")
	}
	if _, ok := doc.Get("another_good"); !ok {
		t.Fatal("expected well-formed entries after the bad line to survive")
	}
}

func TestRoundTrip(t *testing.T) {
	doc := New()
	doc.Set("a.b", Int(42))
	doc.Set("a.c", String("hello"))
	doc.Set("x.y", Bool(true))
	doc.Set("x.z", StringArray([]string{"one", "two"}))

	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}

	reparsed, errs := Parse(&buf)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors re-parsing: %v", errs)
	}
	for _, key := range doc.Keys() {
		orig, _ := doc.Get(key)
		got, ok := reparsed.Get(key)
		if !ok {
			t.Fatalf("key %q missing after round trip", key)
		}
		if !reflect.DeepEqual(got, orig) {
			t.Fatalf("key %q round-tripped as %+v, want %+v", key, got, orig)
		}
	}
}
