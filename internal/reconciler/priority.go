package reconciler

import "strings"

// priorityTable maps resource type prefixes to priorities.
var priorityTable = map[string]Priority{
	// Connectivity
	"wan":       PriorityHigh,
	"vpn":       PriorityHigh,
	"wireguard": PriorityHigh,
	"openvpn":   PriorityHigh,

	// Local network and services
	"lan":        PriorityNormal,
	"dhcp":       PriorityNormal,
	"firewall":   PriorityNormal,
	"wifi":       PriorityNormal,
	"wireless":   PriorityNormal,
	"interfaces": PriorityNormal,
	"routing":    PriorityNormal,
	"dns":        PriorityNormal,

	// Housekeeping
	"logging": PriorityLow,
	"scripts": PriorityLow,
	"system":  PriorityLow,
	"ntp":     PriorityLow,
}

// GetResourcePriority returns the priority of a dotted resource type using
// the longest matching prefix: "vpn.wireguard.peer" tries the full type,
// then "vpn.wireguard", then "vpn". Unknown types are PriorityNormal.
func GetResourcePriority(resourceType string) Priority {
	candidate := resourceType
	for candidate != "" {
		if p, ok := priorityTable[candidate]; ok {
			return p
		}
		i := strings.LastIndex(candidate, ".")
		if i < 0 {
			break
		}
		candidate = candidate[:i]
	}
	return PriorityNormal
}
