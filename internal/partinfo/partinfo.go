// Package partinfo queries filesystem space for the partition holding the
// firmware staging path, the collaborator spec.md §6 calls out as external
// ("Partition info: query yielding (total_bytes, used_bytes)"). Grounded on
// the teacher's use of github.com/shirou/gopsutil/v3 for host statistics
// (internal/cli/ui/ui.go used its cpu/mem subpackages for a live dashboard);
// this reuses the same module's disk subpackage instead, the natural fit
// for a filesystem free-space query.
package partinfo

import (
	"github.com/shirou/gopsutil/v3/disk"
)

// Info reports space on the partition backing path, in bytes.
type Info struct {
	TotalBytes uint64
	UsedBytes  uint64
	FreeBytes  uint64
}

// Query reports Info for the partition containing path.
func Query(path string) (Info, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return Info{}, err
	}
	return Info{
		TotalBytes: usage.Total,
		UsedBytes:  usage.Used,
		FreeBytes:  usage.Free,
	}, nil
}
