// Package pow implements the proof of work puzzle that gates the creation
// of new blocks. A proof is valid when the hash of the previous proof and the
// new proof, written as decimal strings with no separator, begins with a
// difficulty number of 0's.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// DefaultDifficulty is the number of leading 0's a solution hash needs.
const DefaultDifficulty = 4

// checkEvery is how many attempts are made between checks of the context.
const checkEvery = 1 << 10

// reportEvery is how many attempts are made between progress events.
const reportEvery = 1_000_000

// =============================================================================

// Verify reports whether proof solves the puzzle posed by prevProof at the
// specified difficulty.
func Verify(proof uint64, prevProof uint64, difficulty uint16) bool {
	return isHashSolved(difficulty, Hash(proof, prevProof))
}

// Hash returns the hex encoded sha256 of the puzzle input for the two proofs.
func Hash(proof uint64, prevProof uint64) string {
	guess := strconv.FormatUint(prevProof, 10) + strconv.FormatUint(proof, 10)
	sum := sha256.Sum256([]byte(guess))
	return hex.EncodeToString(sum[:])
}

// Solve searches for the smallest proof that solves the puzzle posed by
// prevProof. The search starts at 0 and walks forward one at a time so the
// result is the same on every run. The search ends with the context error
// if the context is cancelled or its deadline passes first.
func Solve(ctx context.Context, prevProof uint64, difficulty uint16, ev func(v string, args ...any)) (uint64, error) {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("pow: Solve: MINING: started: prevProof[%d]: difficulty[%d]", prevProof, difficulty)
	defer ev("pow: Solve: MINING: completed")

	for proof := uint64(0); ; proof++ {
		if proof%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				ev("pow: Solve: MINING: CANCELLED: attempts[%d]", proof)
				return 0, err
			}
		}

		if proof > 0 && proof%reportEvery == 0 {
			ev("pow: Solve: MINING: attempts[%d]", proof)
		}

		if Verify(proof, prevProof, difficulty) {
			ev("pow: Solve: MINING: SOLVED: proof[%d]: attempts[%d]", proof, proof+1)
			return proof, nil
		}
	}
}

// =============================================================================

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint16, hash string) bool {
	if int(difficulty) > len(hash) {
		return false
	}

	return strings.TrimLeft(hash[:difficulty], "0") == ""
}
