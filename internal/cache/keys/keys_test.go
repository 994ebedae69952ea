package keys

import (
	"regexp"
	"testing"
	"unicode"

	"github.com/mohammed-shakir/geomap-resolver/internal/core/model"
)

func req(names ...string) model.Request {
	return model.Request{Names: names, Width: 960, Height: 500}
}

func TestDeterminism_SameInputsSameKey(t *testing.T) {
	k1 := Plan("2024.06", req("France", "Germany"))
	k2 := Plan("2024.06", req("France", "Germany"))
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
}

func TestNames_HashedAsGiven(t *testing.T) {
	k1 := Plan(" 2024.06 ", req("  France", "Germany "))
	k2 := Plan("2024.06", req("France", "Germany"))
	if k1 == k2 {
		t.Fatalf("names differing in whitespace must not share a key: %s", k1)
	}
	if k3 := Plan(" 2024.06 ", req("France", "Germany")); k3 != k2 {
		t.Fatalf("catalog version should be trimmed:\n k3=%s\n k2=%s", k3, k2)
	}
	if !regexp.MustCompile(`^[A-Za-z0-9:_.=\-]+$`).MatchString(k1) {
		t.Fatalf("key contains disallowed characters: %s", k1)
	}
}

func TestDifference_OrderAndFieldsMatter(t *testing.T) {
	base := Plan("v", req("a", "b"))
	others := map[string]string{
		"order":    Plan("v", req("b", "a")),
		"catalog":  Plan("w", req("a", "b")),
		"boundary": Plan("v", req("ab")),
		"hint":     Plan("v", model.Request{Names: []string{"a", "b"}, Hints: []string{"europe"}, Width: 960, Height: 500}),
		"size":     Plan("v", model.Request{Names: []string{"a", "b"}, Width: 961, Height: 500}),
		"override": Plan("v", model.Request{Names: []string{"a", "b"}, Width: 960, Height: 500, Projection: "albers"}),
		"points":   Plan("v", model.Request{Points: [][2]float64{{1, 2}}, Width: 960, Height: 500}),
	}
	for name, k := range others {
		if k == base {
			t.Fatalf("%s: keys must differ (%s)", name, k)
		}
	}
}

func TestUnicodeSafety_NoPanicAndHashSuffixPresent(t *testing.T) {
	k := Plan("cat:é", model.Request{Names: []string{"Göteborg", "雪"}, Quality: "HIGH", Width: 10, Height: 10})
	for _, r := range k {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune leaked into key: %q in %s", r, k)
		}
	}
	if !regexp.MustCompile(`^mapspec:cat-:high:10x10:auto:f=[0-9a-f]{16}$`).MatchString(k) {
		t.Fatalf("unexpected key layout: %s", k)
	}
}
