package core

import (
	"sort"
	"strings"
)

const (
	RegionNorth     = "North China"
	RegionNortheast = "Northeast China"
	RegionEast      = "East China"
	RegionCentral   = "Central China"
	RegionSouth     = "South China"
	RegionSouthwest = "Southwest China"
	RegionNorthwest = "Northwest China"
	RegionSAR       = "Hong Kong, Macau & Taiwan"
	RegionOther     = "Other"
)

// RegionAmount is a metric total for one region.
type RegionAmount struct {
	Region string
	Value  float64
}

type provinceEntry struct {
	name   string // normalised Chinese name
	pinyin string
	region string
}

var provinces = []provinceEntry{
	{"北京", "beijing", RegionNorth},
	{"天津", "tianjin", RegionNorth},
	{"河北", "hebei", RegionNorth},
	{"山西", "shanxi", RegionNorth},
	{"内蒙古", "inner mongolia", RegionNorth},
	{"辽宁", "liaoning", RegionNortheast},
	{"吉林", "jilin", RegionNortheast},
	{"黑龙江", "heilongjiang", RegionNortheast},
	{"上海", "shanghai", RegionEast},
	{"江苏", "jiangsu", RegionEast},
	{"浙江", "zhejiang", RegionEast},
	{"安徽", "anhui", RegionEast},
	{"福建", "fujian", RegionEast},
	{"江西", "jiangxi", RegionEast},
	{"山东", "shandong", RegionEast},
	{"河南", "henan", RegionCentral},
	{"湖北", "hubei", RegionCentral},
	{"湖南", "hunan", RegionCentral},
	{"广东", "guangdong", RegionSouth},
	{"广西", "guangxi", RegionSouth},
	{"海南", "hainan", RegionSouth},
	{"重庆", "chongqing", RegionSouthwest},
	{"四川", "sichuan", RegionSouthwest},
	{"贵州", "guizhou", RegionSouthwest},
	{"云南", "yunnan", RegionSouthwest},
	{"西藏", "tibet", RegionSouthwest},
	{"陕西", "shaanxi", RegionNorthwest},
	{"甘肃", "gansu", RegionNorthwest},
	{"青海", "qinghai", RegionNorthwest},
	{"宁夏", "ningxia", RegionNorthwest},
	{"新疆", "xinjiang", RegionNorthwest},
	{"香港", "hong kong", RegionSAR},
	{"澳门", "macau", RegionSAR},
	{"台湾", "taiwan", RegionSAR},
}

// Longest suffixes first so "壮族自治区" wins over "自治区".
var provinceSuffixes = []string{
	"维吾尔自治区", "壮族自治区", "回族自治区", "特别行政区", "自治区", "省", "市",
}

// RegionTable maps normalised province names to regions.
type RegionTable struct {
	byName map[string]string
}

// DefaultRegions returns the built-in province table.
func DefaultRegions() *RegionTable {
	t := &RegionTable{byName: make(map[string]string, len(provinces)*2)}
	for _, p := range provinces {
		t.byName[p.name] = p.region
		t.byName[p.pinyin] = p.region
	}
	return t
}

// WithOverrides returns a copy of the table with extra province -> region
// entries. Keys are normalised the same way as lookups.
func (t *RegionTable) WithOverrides(overrides map[string]string) *RegionTable {
	out := &RegionTable{byName: make(map[string]string, len(t.byName)+len(overrides))}
	for k, v := range t.byName {
		out.byName[k] = v
	}
	for k, v := range overrides {
		k = NormalizeProvince(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out.byName[k] = v
	}
	return out
}

// Lookup returns the region of a province, or RegionOther.
func (t *RegionTable) Lookup(province string) string {
	if r, ok := t.byName[NormalizeProvince(province)]; ok {
		return r
	}
	return RegionOther
}

// Len is the number of known names, Chinese and pinyin.
func (t *RegionTable) Len() int {
	return len(t.byName)
}

var defaultRegions = DefaultRegions()

// RegionOf looks a province up in the built-in table.
func RegionOf(province string) string {
	return defaultRegions.Lookup(province)
}

// NormalizeProvince trims whitespace and administrative suffixes, and
// lowercases latin names.
func NormalizeProvince(province string) string {
	p := strings.TrimSpace(province)
	for _, suf := range provinceSuffixes {
		if strings.HasSuffix(p, suf) && len(p) > len(suf) {
			p = strings.TrimSuffix(p, suf)
			break
		}
	}
	p = strings.ToLower(strings.TrimSpace(p))
	p = strings.TrimSuffix(p, " province")
	return p
}

// AggregateByRegion sums the metric per region for the given year, largest
// first. A nil table means the built-in one.
func AggregateByRegion(sales []Sale, year int, metric Metric, table *RegionTable) []RegionAmount {
	if table == nil {
		table = defaultRegions
	}
	totals := map[string]float64{}
	for _, s := range sales {
		if s.PaymentDate.IsZero() || s.Year() != year {
			continue
		}
		totals[table.Lookup(s.Province)] += metric.Value(s)
	}
	out := make([]RegionAmount, 0, len(totals))
	for r, v := range totals {
		out = append(out, RegionAmount{Region: r, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Region < out[j].Region
	})
	return out
}
