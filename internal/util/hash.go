// Package util contains internal helpers (hashing, sharding, padding).
package util

// 64-bit FNV-1a constants.
const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

// Fnv64a hashes s with 64-bit FNV-1a without allocating.
// Used for cache-key digests and tag-index shard selection; it is a fast
// non-cryptographic hash and must not be used for anything security-sensitive.
func Fnv64a(s string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

// Fnv64aBytes is the []byte counterpart of Fnv64a.
func Fnv64aBytes(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}
