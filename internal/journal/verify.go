package journal

import (
	"fmt"

	"simbatch/internal/security"
)

// Verify recomputes each entry hash, checks the chain links and sequence
// numbers, and verifies every signature.
func (j *Journal) Verify() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i, e := range j.entries {
		h, err := e.ComputeHash()
		if err != nil {
			return fmt.Errorf("compute hash for seq %d: %w", e.Seq, err)
		}
		if h != e.Hash {
			return fmt.Errorf("hash mismatch at seq %d", e.Seq)
		}

		if i > 0 && e.PrevHash != j.entries[i-1].Hash {
			return fmt.Errorf("prevHash mismatch at seq %d", e.Seq)
		}
		if e.Seq != i {
			return fmt.Errorf("sequence mismatch: expected %d, got %d", i, e.Seq)
		}

		if e.Signature != "" {
			ok, err := security.VerifySignatureFromHex(e.PubKey, []byte(e.Hash), e.Signature)
			if err != nil {
				return fmt.Errorf("verify signature at seq %d: %w", e.Seq, err)
			}
			if !ok {
				return fmt.Errorf("bad signature at seq %d", e.Seq)
			}
		}
	}
	return nil
}
