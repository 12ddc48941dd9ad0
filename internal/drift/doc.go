// Package drift compares the desired configuration of a router resource
// with its router-confirmed deployment state and reports divergence.
//
// # Pipeline
//
// A comparison runs in fixed stages:
//
//  1. Pending check: a resource without a deployment layer is PENDING.
//  2. Staleness: deployments applied longer ago than the stale threshold
//     (default 30 minutes) are flagged, without affecting the status.
//  3. Field exclusion: runtime-only fields such as traffic counters, uptime
//     and live health flags are removed from both layers.
//  4. Fast path: both filtered layers are hashed; equal hashes mean SYNCED.
//  5. Field diff: otherwise a recursive diff lists every drifted leaf with a
//     network, security or general category.
//
// Any failure along the way (for example a value that cannot be serialized)
// yields an ERROR result instead of an error return, so callers can treat
// every resource uniformly.
//
// # Values
//
// Configuration and deployment values are JSON-like: nil, bool, numbers,
// strings, []any and map[string]any, as produced by decoding JSON or YAML.
// Other slices and string-keyed maps are accepted through reflection and
// time.Time values are compared by their ISO-8601 representation. A missing
// map key plays the role of "undefined"; a key holding nil is an explicit
// null and differs from a missing key.
//
// # Hashing
//
// Hash is a 32-bit FNV-1a over the UTF-16 code units of the canonical JSON
// encoding. It is a pre-filter, not a cryptographic digest: two different
// values with colliding hashes are reported as SYNCED.
package drift
