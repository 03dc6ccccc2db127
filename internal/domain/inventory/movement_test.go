package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovement_Delta(t *testing.T) {
	assert.Equal(t, 5, Movement{Kind: KindIn, Quantity: 5}.Delta())
	assert.Equal(t, -3, Movement{Kind: KindOut, Quantity: 3}.Delta())
	assert.Equal(t, -2, Movement{Kind: KindReserved, Quantity: 2}.Delta())
	assert.Equal(t, -4, Movement{Kind: KindAdjust, Quantity: -4}.Delta())
	assert.Equal(t, 0, Movement{Kind: Kind("bogus"), Quantity: 9}.Delta())
}

func TestAvailable_SubtractsOnlyReservations(t *testing.T) {
	movements := []Movement{
		{Kind: KindReserved, Quantity: 2},
		{Kind: KindReserved, Quantity: 3},
		// Already reflected in the denormalized counter; ignored by the fold.
		{Kind: KindIn, Quantity: 100},
		{Kind: KindOut, Quantity: 10},
	}
	assert.Equal(t, 15, Available(20, movements))
}

func TestAvailable_MayGoNegative(t *testing.T) {
	// Reservation is advisory; oversell is surfaced, not forbidden.
	movements := []Movement{{Kind: KindReserved, Quantity: 8}}
	assert.Equal(t, -3, Available(5, movements))
}
