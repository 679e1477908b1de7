package inventory

import (
	"regexp"
	"strings"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"
)

// macPattern matches a MAC-48 in either colon or hyphen notation. It is
// applied to upper-cased input.
var macPattern = regexp.MustCompile(`^([0-9A-F]{2}[:-]){5}([0-9A-F]{2})$`)

// IsMAC reports whether data, trimmed and upper-cased, is a MAC-48 address.
func IsMAC(data string) bool {
	return macPattern.MatchString(strings.ToUpper(strings.TrimSpace(data)))
}

// FirstMAC returns the data of the first field holding a MAC address. The
// value is returned exactly as stored.
func FirstMAC(fields []types.InventoryField) (string, bool) {
	for _, field := range fields {
		if IsMAC(field.Data) {
			return field.Data, true
		}
	}
	return "", false
}
