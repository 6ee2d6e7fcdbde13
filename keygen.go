package methodcache

import (
	"encoding/json"
	"fmt"

	"github.com/methodcache/methodcache/hybrid"
	"github.com/methodcache/methodcache/internal/util"
)

// KeyGenerator derives the cache key for a call. It must be deterministic
// and stable across processes; the engine treats the result as opaque.
//
// Implement a custom generator per call site instead of relying on runtime
// type introspection — the default covers JSON-representable arguments.
type KeyGenerator func(method string, args []any, pol hybrid.Policy) (string, error)

// DefaultKeyGenerator builds "method:vN" for zero-argument calls and
// "method:vN:<fnv64a of the JSON-encoded arguments>" otherwise. The policy
// version is folded in so bumping it invalidates prior results.
func DefaultKeyGenerator(method string, args []any, pol hybrid.Policy) (string, error) {
	if len(args) == 0 {
		return fmt.Sprintf("%s:v%d", method, pol.Version), nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("methodcache: derive key for %s: %w", method, err)
	}
	return fmt.Sprintf("%s:v%d:%016x", method, pol.Version, util.Fnv64aBytes(raw)), nil
}
