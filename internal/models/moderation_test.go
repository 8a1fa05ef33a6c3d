package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestNormalizePair_Symmetric(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	x1, y1 := NormalizePair(a, b)
	x2, y2 := NormalizePair(b, a)

	if x1 != x2 || y1 != y2 {
		t.Fatalf("NormalizePair is not symmetric: (%s,%s) vs (%s,%s)", x1, y1, x2, y2)
	}
	if x1.String() > y1.String() {
		t.Fatalf("pair not sorted: %s > %s", x1, y1)
	}
}

func TestNormalizePair_Idempotent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	x, y := NormalizePair(a, b)
	x2, y2 := NormalizePair(x, y)

	if x != x2 || y != y2 {
		t.Fatalf("NormalizePair not idempotent: (%s,%s) vs (%s,%s)", x, y, x2, y2)
	}
}
