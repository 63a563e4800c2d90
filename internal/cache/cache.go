package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/ppiankov/factgate/internal/model"
)

// VerdictCache memoizes consensus results by content fingerprint.
// Implementations must fail open: callers treat any error as a miss.
type VerdictCache interface {
	Get(key string) (*model.ConsensusResult, bool)
	Set(key string, value *model.ConsensusResult) error
}

// Fingerprint derives a cache key from the article content, the provider
// set, and the prompt version. The provider set is sorted so the key does
// not depend on configuration order.
func Fingerprint(content string, providers []string, promptVersion string) string {
	sorted := make([]string, len(providers))
	copy(sorted, providers)
	sort.Strings(sorted)

	hash := sha256.Sum256([]byte(content + "\x00" + strings.Join(sorted, ",") + "\x00" + promptVersion))
	return "factgate:v1:" + hex.EncodeToString(hash[:])
}
