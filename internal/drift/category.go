package drift

import "strings"

var networkKeywords = []string{"ip", "address", "subnet", "gateway", "dns", "mac", "port", "interface", "vlan"}

var securityKeywords = []string{"key", "secret", "password", "certificate", "auth", "firewall", "allow", "deny"}

// CategorizeField classifies a dotted path by case-insensitive substring.
// Network keywords win over security keywords; anything else is general.
func CategorizeField(path string) Category {
	lower := strings.ToLower(path)
	for _, kw := range networkKeywords {
		if strings.Contains(lower, kw) {
			return CategoryNetwork
		}
	}
	for _, kw := range securityKeywords {
		if strings.Contains(lower, kw) {
			return CategorySecurity
		}
	}
	return CategoryGeneral
}
