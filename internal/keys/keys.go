package keys

import "strings"

const (
	uploadsDir = "uploads"

	DumpFile     = "dump.sql"
	MetadataFile = "tenant.json"
)

// TenantPrefix is where a tenant's files live: uploads/<tenant-id>/.
func TenantPrefix(tenantID string) string {
	return uploadsDir + "/" + tenantID + "/"
}

// ClonePrefix is where a clone's files live: <clone-id>/uploads/.
func ClonePrefix(cloneID string) string {
	return cloneID + "/" + uploadsDir + "/"
}

func TenantKey(tenantID, rel string) string {
	return TenantPrefix(tenantID) + rel
}

func CloneKey(cloneID, rel string) string {
	return ClonePrefix(cloneID) + rel
}

// DumpKey locates a clone's schema dump.
func DumpKey(cloneID string) string {
	return cloneID + "/" + DumpFile
}

// MetadataKey locates a clone's tenant row.
func MetadataKey(cloneID string) string {
	return cloneID + "/" + MetadataFile
}

// Relative strips prefix from key. ok is false when key is outside prefix.
func Relative(key, prefix string) (rel string, ok bool) {
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return strings.TrimPrefix(key, prefix), true
}
