package filters

import (
	"strings"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// DeviceTypes is the device type whitelist
var DeviceTypes = []string{
	"smartphone",
	"feature_phone",
	"tablet",
	"smartwatch",
	"other",
}

// Brands is the brand whitelist
var Brands = []string{
	"apple", "samsung", "google", "huawei", "xiaomi", "oppo", "vivo",
	"realme", "oneplus", "nokia", "motorola", "sony", "lg", "asus",
	"infinix", "tecno", "honor", "other",
}

// knownStatuses keeps the values of in that parse as a status, without duplicates
func knownStatuses(in []string) []string {
	var out []string
	seen := make(map[domain.Status]bool, len(in))
	for _, v := range in {
		st, ok := domain.ParseStatus(v)
		if !ok || seen[st] {
			continue
		}
		seen[st] = true
		out = append(out, string(st))
	}
	return out
}

// allowed returns the lower-cased values of in that appear in whitelist,
// without duplicates and in input order
func allowed(in []string, whitelist []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if seen[v] {
			continue
		}
		for _, w := range whitelist {
			if v == w {
				out = append(out, v)
				seen[v] = true
				break
			}
		}
	}
	return out
}
