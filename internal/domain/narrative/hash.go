package narrative

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// HashContent returns the SHA-256 of the canonical JSON encoding of a content
// tree. encoding/json sorts map keys, so equal trees hash equal.
func HashContent(content map[string]any) string {
	data, err := json.Marshal(content)
	if err != nil {
		// Content trees come from JSON columns or struct literals; a
		// marshal failure here means a programming error upstream.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashBundle fingerprints the gathered source evidence so a regenerated
// narrative records exactly what it was built from.
func HashBundle(bundle EvidenceBundle) string {
	data, err := json.Marshal(bundle)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
