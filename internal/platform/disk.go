package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DiskInfo reports the capacity of a volume.
type DiskInfo struct {
	TotalBytes uint64
	FreeBytes  uint64
}

// TotalGB returns the capacity in gibibytes.
func (d DiskInfo) TotalGB() float64 { return float64(d.TotalBytes) / (1 << 30) }

// FreeGB returns the space available to unprivileged users in gibibytes.
func (d DiskInfo) FreeGB() float64 { return float64(d.FreeBytes) / (1 << 30) }

// UsedPercent returns the used share of the volume in percent.
func (d DiskInfo) UsedPercent() float64 {
	if d.TotalBytes == 0 {
		return 0
	}
	return 100 * float64(d.TotalBytes-d.FreeBytes) / float64(d.TotalBytes)
}

// Disk returns the statistics of the volume holding path.
func Disk(path string) (DiskInfo, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskInfo{}, fmt.Errorf("failed to stat volume %s: %w", path, err)
	}
	bsize := uint64(st.Bsize)
	return DiskInfo{
		TotalBytes: uint64(st.Blocks) * bsize,
		FreeBytes:  uint64(st.Bavail) * bsize,
	}, nil
}
