package bank

// RegistryLayout is the fixed row order of a tenant's document registry
// worksheet. The registry lists more document slots than the reconciler
// processes (tiered BCA/DANA documents, CIMB); only slots whose key is a
// Bank are resolved into queue locations.
var RegistryLayout = []string{
	"BCA",
	"bcaMedium",
	"bcaVip",
	"DANA",
	"danaMedium",
	"danaVip",
	"CIMB",
	"MANDIRI",
	"BNI",
	"BRI",
}

// RegistrySlot returns the registry row index (0-based) holding the
// primary document for b, or -1 when b has no slot.
func RegistrySlot(b Bank) int {
	for i, key := range RegistryLayout {
		if key == string(b) {
			return i
		}
	}
	return -1
}
