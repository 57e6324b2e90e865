package utils

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
	GB = 1024 * MB
	TB = 1024 * GB
)

// FormatBytes converts bytes to human-readable format
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatGB renders a byte count as gibibytes with two decimals.
func FormatGB(bytes int64) string {
	return fmt.Sprintf("%.2f GB", BytesToGB(bytes))
}

// BytesToGB converts bytes to gibibytes.
func BytesToGB(bytes int64) float64 {
	return float64(bytes) / GB
}

// BytesToMB converts bytes to mebibytes.
func BytesToMB(bytes int64) float64 {
	return float64(bytes) / MB
}

// ParseSize converts human-readable size to bytes. Bare numbers are bytes.
func ParseSize(size string) (int64, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return 0, fmt.Errorf("invalid size format: empty")
	}
	n, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, fmt.Errorf("invalid size format: %s", size)
	}
	return int64(n), nil
}

// SumSizes adds up a slice of sizes
func SumSizes(sizes []int64) int64 {
	var total int64
	for _, size := range sizes {
		total += size
	}
	return total
}
