package vfs

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		`Foo\Bar.TXT`:    "foo/bar.txt",
		"./a/b/../c":      "a/c",
		"/leading/slash/": "leading/slash",
		"":                "",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrefixResolutionHighestPriorityWins(t *testing.T) {
	v := New()
	low := NewMemorySource()
	low.Put("textures/a.png", []byte("low"))
	high := NewMemorySource()
	high.Put("textures/a.png", []byte("high"))

	v.Mount("assets", low, 0)
	v.Mount("assets", high, 10)

	data, err := v.ReadSync("assets/textures/a.png")
	if err != nil {
		t.Fatalf("ReadSync: %v", err)
	}
	if string(data) != "high" {
		t.Fatalf("expected highest-priority mount to win, got %q", data)
	}
}

func TestListDirectoryMergesAndDedupes(t *testing.T) {
	v := New()
	a := NewMemorySource()
	a.Put("data/one.txt", nil)
	b := NewMemorySource()
	b.Put("data/one.txt", nil)
	b.Put("data/two.txt", nil)

	v.Mount("root", a, 1)
	v.Mount("root", b, 0)

	entries, err := v.ListDirectory("root/data")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 deduplicated entries, got %v", entries)
	}
}

func TestResolveMissingMountErrors(t *testing.T) {
	v := New()
	if _, err := v.ReadSync("nowhere/file.txt"); err == nil {
		t.Fatal("expected error for unresolvable path")
	}
}
