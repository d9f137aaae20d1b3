package gokafka

// pack64/unpack64 is the abstraction spec.md §4.1/§9 calls for: a single
// seam through which every 64-bit wire field (offsets, timestamps) flows,
// so that a target without native signed 64-bit integers could swap in a
// big-integer backend without touching call sites. Go has a native int64
// on every platform it targets, so this collapses to the identity
// function - kept as named functions (not inlined as raw casts) purely so
// the seam still exists for documentation and so the round-trip property
// in spec.md §8 can be tested against this exact boundary. The wire
// sentinels -1 (latest offset) and -2 (earliest offset) pass through
// unchanged, as required.
func pack64(v int64) int64 { return v }

func unpack64(v int64) int64 { return v }
