package cleaner

import (
	"github.com/fenilsonani/junk-cleaner/internal/junk"
)

// Strategy names how one item is removed.
type Strategy int

const (
	// StrategyTrashFirst moves the item to the Trash, then falls back to
	// direct and finally elevated removal.
	StrategyTrashFirst Strategy = iota
	// StrategyUnloadService stops a launch agent or daemon before removing
	// its definition file.
	StrategyUnloadService
	// StrategyForgetReceipt drops the package from the installer database
	// before removing the receipt file.
	StrategyForgetReceipt
	// StrategyEmptyTrash removes the children of a Trash folder one by one.
	StrategyEmptyTrash
	// StrategyElevated removes the item with the elevated primitive only.
	StrategyElevated
)

var strategyNames = map[Strategy]string{
	StrategyTrashFirst:    "trash-first",
	StrategyUnloadService: "unload-service",
	StrategyForgetReceipt: "forget-receipt",
	StrategyEmptyTrash:    "empty-trash",
	StrategyElevated:      "elevated",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// StrategyFor picks the removal strategy for item. systemOwned tells
// whether the item's path lies under a root-owned prefix. The most specific
// rule wins: item type before path prefix.
func StrategyFor(item junk.Item, systemOwned bool) Strategy {
	switch {
	case item.Type.IsService():
		return StrategyUnloadService
	case item.Type == junk.AppReceipts:
		return StrategyForgetReceipt
	case item.Type == junk.TrashContents:
		return StrategyEmptyTrash
	case systemOwned:
		return StrategyElevated
	default:
		return StrategyTrashFirst
	}
}

// serviceFirst returns items with every service item ahead of the rest,
// keeping the relative order inside each group.
func serviceFirst(items []junk.Item) []junk.Item {
	ordered := make([]junk.Item, 0, len(items))
	for _, item := range items {
		if item.Type.IsService() {
			ordered = append(ordered, item)
		}
	}
	for _, item := range items {
		if !item.Type.IsService() {
			ordered = append(ordered, item)
		}
	}
	return ordered
}
