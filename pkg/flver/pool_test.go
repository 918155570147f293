package flver

import (
	"errors"
	"slices"
	"testing"
)

func TestPool_Claim(t *testing.T) {
	p := newPool("face set", []string{"a", "b", "c"})

	got, err := p.claim("mesh 0", []int32{2, 0})
	if err != nil {
		t.Fatalf("claim() error: %v", err)
	}
	if !slices.Equal(got, []string{"c", "a"}) {
		t.Errorf("claim() = %v, want [c a]", got)
	}
	if left := p.remaining(); !slices.Equal(left, []int{1}) {
		t.Errorf("remaining() = %v, want [1]", left)
	}

	// Claiming an index another owner already took fails.
	_, err = p.claim("mesh 1", []int32{1, 0})
	var claimErr *ClaimError
	if !errors.As(err, &claimErr) {
		t.Fatalf("claim() error = %v, want *ClaimError", err)
	}
	if claimErr.Kind != "face set" || claimErr.Index != 0 || claimErr.Owner != "mesh 1" {
		t.Errorf("ClaimError = %+v", claimErr)
	}
	if !errors.Is(err, ErrClaim) {
		t.Errorf("claim() error does not wrap ErrClaim")
	}
	if err := p.drained(); err != nil {
		t.Errorf("drained() error = %v after every index was claimed", err)
	}
}

func TestPool_Missing(t *testing.T) {
	p := newPool("vertex buffer", []int{10})
	if _, err := p.take("mesh 0", 5); !errors.Is(err, ErrClaim) {
		t.Errorf("take(5) error = %v, want ErrClaim", err)
	}
	if _, err := p.take("mesh 0", -1); !errors.Is(err, ErrClaim) {
		t.Errorf("take(-1) error = %v, want ErrClaim", err)
	}
	if err := p.drained(); !errors.Is(err, ErrOrphaned) {
		t.Errorf("drained() error = %v, want ErrOrphaned", err)
	}
}

func TestPool_Empty(t *testing.T) {
	p := newPool[*FaceSet]("face set", nil)
	if _, err := p.take("mesh 0", 0); !errors.Is(err, ErrClaim) {
		t.Errorf("take() on empty pool error = %v, want ErrClaim", err)
	}
	if err := p.drained(); err != nil {
		t.Errorf("drained() error = %v", err)
	}
}
