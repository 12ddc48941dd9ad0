package drift

import (
	"strconv"
	"strings"
)

// DefaultExcludedFields are runtime-only field names that change on their own
// and never count as drift.
var DefaultExcludedFields = []string{
	// Traffic counters
	"bytesIn", "bytesOut", "packetsIn", "packetsOut", "txRate", "rxRate",
	// Connection timing
	"lastHandshake", "lastSeen", "connectedSince", "lastConnected", "uptime",
	// Volatile counts
	"currentPeers", "activeConnections", "cpuLoad", "memoryUsage",
	// Auto-updating timestamps
	"lastUpdated", "lastModified", "lastAccessed",
	// Health and live status
	"health", "status", "isRunning", "errorCount",
}

var defaultExcluded = func() map[string]struct{} {
	set := make(map[string]struct{}, len(DefaultExcludedFields))
	for _, f := range DefaultExcludedFields {
		set[f] = struct{}{}
	}
	return set
}()

// ShouldExcludeField reports whether the dotted path is runtime-only. A path
// matches when its last segment or the full path is a default exclusion or
// appears in extra.
func ShouldExcludeField(path string, extra ...string) bool {
	name := path
	if i := strings.LastIndex(path, "."); i >= 0 {
		name = path[i+1:]
	}

	if _, ok := defaultExcluded[name]; ok {
		return true
	}
	if _, ok := defaultExcluded[path]; ok {
		return true
	}
	for _, e := range extra {
		if e == name || e == path {
			return true
		}
	}
	return false
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func indexPath(prefix string, i int) string {
	return prefix + "[" + strconv.Itoa(i) + "]"
}

// OmitExcludedFields returns a copy of v without excluded object keys,
// recursing through objects and arrays. Array elements are never dropped;
// their paths are prefix[i]. Scalars and nil are returned unchanged.
func OmitExcludedFields(v any, extra []string, pathPrefix string) any {
	if isMissing(v) {
		return v
	}

	if obj, ok := asObject(v); ok {
		out := make(map[string]any, len(obj))
		for k, item := range obj {
			path := joinPath(pathPrefix, k)
			if ShouldExcludeField(path, extra...) {
				continue
			}
			out[k] = OmitExcludedFields(item, extra, path)
		}
		return out
	}

	if arr, ok := asArray(v); ok {
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = OmitExcludedFields(item, extra, indexPath(pathPrefix, i))
		}
		return out
	}

	return v
}
