// Package genesis maintains access to the genesis parameters.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Default genesis values used when no genesis file is provided.
const (
	DefaultDifficulty   = 4
	DefaultMiningReward = 1
	DefaultProof        = 100
)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`          // Timestamp of the genesis block. Nodes that share it share a genesis block.
	Difficulty   uint16    `json:"difficulty"`    // How many leading 0's a proof hash needs.
	MiningReward float64   `json:"mining_reward"` // Reward for mining a block.
	Proof        uint64    `json:"proof"`         // Proof carried by the genesis block.
}

// Default returns the genesis parameters for a node that has no
// genesis file.
func Default() Genesis {
	return Genesis{
		Date:         time.Now().UTC(),
		Difficulty:   DefaultDifficulty,
		MiningReward: DefaultMiningReward,
		Proof:        DefaultProof,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Values missing from the file keep
// their defaults.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, fmt.Errorf("reading genesis: %w", err)
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	return genesis, nil
}
