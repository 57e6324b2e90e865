package junk

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	bytesPerMB = 1 << 20
	bytesPerGB = 1 << 30
)

// Item is a discovered candidate for deletion.
type Item struct {
	ID          string `json:"id" yaml:"id"`
	Type        Type   `json:"type" yaml:"type"`
	Path        string `json:"path" yaml:"path"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	SizeBytes   int64  `json:"size_bytes" yaml:"size_bytes"`
	RelatedApp  string `json:"related_app,omitempty" yaml:"related_app,omitempty"`
	Selected    bool   `json:"selected" yaml:"selected"`
}

// NewItem creates a selected item with a fresh session-unique id.
func NewItem(t Type, path, displayName string, size int64, relatedApp string) Item {
	if size < 0 {
		size = 0
	}
	return Item{
		ID:          uuid.NewString(),
		Type:        t,
		Path:        path,
		DisplayName: displayName,
		SizeBytes:   size,
		RelatedApp:  relatedApp,
		Selected:    true,
	}
}

// SizeMB returns the size in mebibytes.
func (i Item) SizeMB() float64 { return float64(i.SizeBytes) / bytesPerMB }

// SizeGB returns the size in gibibytes.
func (i Item) SizeGB() float64 { return float64(i.SizeBytes) / bytesPerGB }

// FormattedSize returns the size the way the item list displays it.
func (i Item) FormattedSize() string {
	switch {
	case i.SizeGB() >= 1:
		return fmt.Sprintf("%.1f GB", i.SizeGB())
	case i.SizeMB() >= 1:
		return fmt.Sprintf("%.1f MB", i.SizeMB())
	default:
		return fmt.Sprintf("%d KB", i.SizeBytes/1024)
	}
}

// RelatedAppFromEntry derives an application name from a directory entry
// such as "com.vendor.Some.App.plist" -> "Some App".
func RelatedAppFromEntry(entry string) string {
	without := strings.TrimSuffix(entry, filepath.Ext(entry))
	parts := strings.FieldsFunc(without, func(r rune) bool { return r == '.' })
	if len(parts) >= 3 {
		return strings.Join(parts[2:], " ")
	}
	return without
}

// FailedItem records an item that could not be deleted.
type FailedItem struct {
	Item   Item   `json:"item" yaml:"item"`
	Reason string `json:"reason" yaml:"reason"`
}

// ScanResult is the output of a scan. No two items share a path.
type ScanResult struct {
	Items     []Item        `json:"items" yaml:"items"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Cancelled bool          `json:"cancelled" yaml:"cancelled"`
}

// NewScanResult builds a ScanResult, dropping any item whose path was
// already seen. The first occurrence wins.
func NewScanResult(items []Item, duration time.Duration) *ScanResult {
	return &ScanResult{Items: Dedup(items), Duration: duration}
}

// Dedup returns items with duplicate paths removed, keeping order.
func Dedup(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Path]; ok {
			continue
		}
		seen[item.Path] = struct{}{}
		out = append(out, item)
	}
	return out
}

// TotalSize sums the sizes of selected items.
func (r *ScanResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Items {
		if item.Selected {
			total += item.SizeBytes
		}
	}
	return total
}

// TotalGB returns TotalSize in gibibytes.
func (r *ScanResult) TotalGB() float64 {
	return float64(r.TotalSize()) / bytesPerGB
}

// Selected returns the selected items in order.
func (r *ScanResult) Selected() []Item {
	out := make([]Item, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Selected {
			out = append(out, item)
		}
	}
	return out
}

// SetSelected toggles the selection flag of the item with the given id.
// It reports whether the item was found.
func (r *ScanResult) SetSelected(id string, selected bool) bool {
	for i := range r.Items {
		if r.Items[i].ID == id {
			r.Items[i].Selected = selected
			return true
		}
	}
	return false
}

// ItemsByType groups items by their type.
func (r *ScanResult) ItemsByType() map[Type][]Item {
	grouped := make(map[Type][]Item)
	for _, item := range r.Items {
		grouped[item.Type] = append(grouped[item.Type], item)
	}
	return grouped
}

// ItemsByApp groups items that have a related application.
func (r *ScanResult) ItemsByApp() map[string][]Item {
	grouped := make(map[string][]Item)
	for _, item := range r.Items {
		if item.RelatedApp == "" {
			continue
		}
		grouped[item.RelatedApp] = append(grouped[item.RelatedApp], item)
	}
	return grouped
}

// ItemsByCategory groups items by the category of their type.
func (r *ScanResult) ItemsByCategory() map[CategoryGroup][]Item {
	grouped := make(map[CategoryGroup][]Item)
	for _, item := range r.Items {
		c := Category(item.Type)
		grouped[c] = append(grouped[c], item)
	}
	return grouped
}

// SortedTypes returns the types present in the result, largest first.
func (r *ScanResult) SortedTypes() []Type {
	byType := r.ItemsByType()
	sizes := make(map[Type]int64, len(byType))
	types := make([]Type, 0, len(byType))
	for t, items := range byType {
		types = append(types, t)
		for _, item := range items {
			sizes[t] += item.SizeBytes
		}
	}
	sort.Slice(types, func(i, j int) bool {
		if sizes[types[i]] == sizes[types[j]] {
			return types[i] < types[j]
		}
		return sizes[types[i]] > sizes[types[j]]
	})
	return types
}

// CleanResult summarises one clean invocation.
type CleanResult struct {
	FreedBytes   int64         `json:"freed_bytes" yaml:"freed_bytes"`
	DeletedCount int           `json:"deleted_count" yaml:"deleted_count"`
	FailedCount  int           `json:"failed_count" yaml:"failed_count"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Deleted      []Item        `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Failed       []FailedItem  `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// FreedGB returns the freed amount in gibibytes.
func (c *CleanResult) FreedGB() float64 { return float64(c.FreedBytes) / bytesPerGB }

// FreedMB returns the freed amount in mebibytes.
func (c *CleanResult) FreedMB() float64 { return float64(c.FreedBytes) / bytesPerMB }

// FormattedFreed renders the freed amount for notifications.
func (c *CleanResult) FormattedFreed() string {
	if c.FreedGB() >= 1 {
		return fmt.Sprintf("%.2f GB", c.FreedGB())
	}
	return fmt.Sprintf("%.1f MB", c.FreedMB())
}
