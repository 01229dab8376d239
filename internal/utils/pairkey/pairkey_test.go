package pairkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical_OrderIndependent(t *testing.T) {
	k1, lo1, hi1 := Canonical(7, 3)
	k2, lo2, hi2 := Canonical(3, 7)

	assert.Equal(t, "3_7", k1)
	assert.Equal(t, k1, k2)
	assert.Equal(t, lo1, lo2)
	assert.Equal(t, hi1, hi2)
	assert.Equal(t, uint64(3), lo1)
	assert.Equal(t, uint64(7), hi1)
}

func TestCanonical_EqualIDs(t *testing.T) {
	k, lo, hi := Canonical(5, 5)
	assert.Equal(t, "5_5", k)
	assert.Equal(t, lo, hi)
}
