package core

import "testing"

func TestRegionOf(t *testing.T) {
	cases := map[string]string{
		"广东":             RegionSouth,
		"广东省":            RegionSouth,
		" 上海市 ":          RegionEast,
		"广西壮族自治区":        RegionSouth,
		"新疆维吾尔自治区":       RegionNorthwest,
		"内蒙古自治区":         RegionNorth,
		"香港特别行政区":        RegionSAR,
		"Guangdong":      RegionSouth,
		"SICHUAN":        RegionSouthwest,
		"Hubei Province": RegionCentral,
		"":               RegionOther,
		"Atlantis":       RegionOther,
	}
	for in, want := range cases {
		if got := RegionOf(in); got != want {
			t.Fatalf("%q: got %q, want %q", in, got, want)
		}
	}
}

func TestRegionTableOverrides(t *testing.T) {
	base := DefaultRegions()
	custom := base.WithOverrides(map[string]string{"广东省": "Greater Bay", "Atlantis": "Sea", "": "x"})

	if got := custom.Lookup("广东"); got != "Greater Bay" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := custom.Lookup("atlantis"); got != "Sea" {
		t.Fatalf("new entry not applied: %q", got)
	}
	if got := base.Lookup("广东"); got != RegionSouth {
		t.Fatalf("base table mutated: %q", got)
	}
}

func TestAggregateByRegion(t *testing.T) {
	sales := []Sale{
		sale("2024-01-01", 10000, 1, "广东"),
		sale("2024-02-01", 5000, 1, "广西"),
		sale("2024-02-01", 20000, 1, "浙江"),
		sale("2024-02-01", 100, 1, "Atlantis"),
		sale("2023-02-01", 999999, 1, "浙江"),
	}
	got := AggregateByRegion(sales, 2024, MetricAmount, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 regions, got %v", got)
	}
	if got[0].Region != RegionEast || got[0].Value != 200 {
		t.Fatalf("first region: %+v", got[0])
	}
	if got[1].Region != RegionSouth || got[1].Value != 150 {
		t.Fatalf("second region: %+v", got[1])
	}
	if got[2].Region != RegionOther {
		t.Fatalf("last region: %+v", got[2])
	}
}
