package junk

import (
	"testing"
)

func TestClassificationIsTotal(t *testing.T) {
	if len(AllTypes) != len(classifications) {
		t.Fatalf("AllTypes has %d entries, classification table has %d", len(AllTypes), len(classifications))
	}

	validCategory := make(map[CategoryGroup]bool)
	for _, c := range AllCategories {
		validCategory[c] = true
	}

	seen := make(map[Type]bool)
	for _, typ := range AllTypes {
		if seen[typ] {
			t.Errorf("type %q listed twice", typ)
		}
		seen[typ] = true

		if _, ok := classifications[typ]; !ok {
			t.Errorf("type %q has no classification", typ)
			continue
		}
		if !validCategory[Category(typ)] {
			t.Errorf("type %q has invalid category %q", typ, Category(typ))
		}
		switch Risk(typ) {
		case RiskSafe, RiskCaution, RiskDangerous:
		default:
			t.Errorf("type %q has invalid risk %v", typ, Risk(typ))
		}
		if typ.String() == string(typ) {
			t.Errorf("type %q has no display name", typ)
		}
	}
}

func TestClassificationSamples(t *testing.T) {
	tests := []struct {
		typ      Type
		category CategoryGroup
		risk     RiskLevel
	}{
		{AppCaches, CategoryAppLeftovers, RiskSafe},
		{AppLaunchDaemons, CategoryAppLeftovers, RiskDangerous},
		{AppReceipts, CategoryAppLeftovers, RiskDangerous},
		{TrashContents, CategorySystemJunk, RiskSafe},
		{XcodeDerivedData, CategoryDevTools, RiskSafe},
		{IOSBackups, CategoryDevTools, RiskCaution},
		{ChromeCache, CategoryBrowsers, RiskSafe},
		{DownloadsOld, CategoryOther, RiskCaution},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := tt.typ.Category(); got != tt.category {
				t.Errorf("Category() = %q, want %q", got, tt.category)
			}
			if got := tt.typ.Risk(); got != tt.risk {
				t.Errorf("Risk() = %v, want %v", got, tt.risk)
			}
		})
	}
}

func TestUnknownTypeIsConservative(t *testing.T) {
	unknown := Type("not_a_type")
	if Category(unknown) != CategoryOther {
		t.Errorf("unknown category = %q", Category(unknown))
	}
	if Risk(unknown) != RiskDangerous {
		t.Errorf("unknown risk = %v", Risk(unknown))
	}
	if _, ok := ParseType("not_a_type"); ok {
		t.Error("ParseType accepted unknown key")
	}
	if typ, ok := ParseType("npm_cache"); !ok || typ != NpmCache {
		t.Errorf("ParseType(npm_cache) = %q, %v", typ, ok)
	}
}

func TestIsService(t *testing.T) {
	for _, typ := range AllTypes {
		want := typ == AppLaunchAgents || typ == AppLaunchDaemons
		if typ.IsService() != want {
			t.Errorf("%q IsService() = %v", typ, typ.IsService())
		}
	}
}
