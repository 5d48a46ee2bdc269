package database

import "fmt"

// ValidateChain walks the chain from the second block onward and checks each
// block against the one before it. The genesis sentinel is never hashed
// against, so chains of zero or one block are valid.
func ValidateChain(blocks []Block, difficulty uint16) error {
	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], difficulty); err != nil {
			return fmt.Errorf("block %d: %w", i+1, err)
		}
	}

	return nil
}

// IsValidChain reports whether the chain passes ValidateChain.
func IsValidChain(blocks []Block, difficulty uint16) bool {
	return ValidateChain(blocks, difficulty) == nil
}
