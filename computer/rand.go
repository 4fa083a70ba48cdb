package computer

import "math/rand/v2"

// NewRand returns a generator fully determined by the match seed, the turn
// and the player.
func NewRand(seed uint64, turn Turn, player PlayerID) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(turn)<<8|uint64(player)&0xff))
}
