package cache

import (
	"reflect"
	"time"
)

// MemoryMode selects how per-entry memory usage is estimated.
type MemoryMode int

const (
	// MemoryDisabled reports zero for every entry and skips estimation
	// entirely; memory-based eviction is effectively off.
	MemoryDisabled MemoryMode = iota
	// MemoryFast uses a cheap per-shape heuristic.
	MemoryFast
	// MemoryAccurate walks the value with a fixed per-field overhead.
	// Noticeably more expensive; use when memory limits must be tight.
	MemoryAccurate
)

const (
	// entryOverhead approximates the bookkeeping cost of one resident
	// entry: the record itself, map slot, tag memberships, order handle.
	entryOverhead = 96
	// fieldOverhead is the fixed per-field charge in accurate mode.
	fieldOverhead = 16

	// accurateMaxDepth and accurateMaxElems bound the accurate walk so a
	// pathological value cannot stall the write path.
	accurateMaxDepth = 4
	accurateMaxElems = 1024
)

// estimateSize returns the estimated resident size of v in bytes.
func estimateSize(v any, mode MemoryMode) int64 {
	switch mode {
	case MemoryDisabled:
		return 0
	case MemoryAccurate:
		return entryOverhead + accurateSize(reflect.ValueOf(v), 0)
	default:
		return entryOverhead + fastSize(v)
	}
}

// fastSize is the cheap heuristic: exact for common shapes, a flat guess
// for everything else.
func fastSize(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		return int64(len(x)) + 16
	case []byte:
		return int64(len(x)) + 24
	case bool:
		return 1
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return 8
	case time.Time:
		return 24
	case []string:
		n := int64(24)
		for _, s := range x {
			n += int64(len(s)) + 16
		}
		return n
	default:
		return 64
	}
}

// accurateSize walks rv charging a fixed overhead per field plus the
// inspected payload. Depth and element counts are bounded.
func accurateSize(rv reflect.Value, depth int) int64 {
	if !rv.IsValid() {
		return 0
	}
	if depth > accurateMaxDepth {
		return int64(rv.Type().Size())
	}
	switch rv.Kind() {
	case reflect.String:
		return int64(rv.Len()) + 16
	case reflect.Slice, reflect.Array:
		n := int64(24)
		limit := rv.Len()
		if limit > accurateMaxElems {
			limit = accurateMaxElems
		}
		for i := 0; i < limit; i++ {
			n += accurateSize(rv.Index(i), depth+1)
		}
		if rv.Len() > limit && limit > 0 {
			// Extrapolate the tail from the inspected prefix.
			n += (n / int64(limit)) * int64(rv.Len()-limit)
		}
		return n
	case reflect.Map:
		n := int64(48)
		iter := rv.MapRange()
		seen := 0
		for iter.Next() && seen < accurateMaxElems {
			n += accurateSize(iter.Key(), depth+1)
			n += accurateSize(iter.Value(), depth+1)
			n += fieldOverhead
			seen++
		}
		return n
	case reflect.Struct:
		n := int64(0)
		for i := 0; i < rv.NumField(); i++ {
			n += fieldOverhead + accurateSize(rv.Field(i), depth+1)
		}
		return n
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return 8
		}
		return 8 + accurateSize(rv.Elem(), depth+1)
	default:
		return int64(rv.Type().Size())
	}
}
