package domain

import (
	"fmt"
	"strings"
)

var supportedPlatforms = map[string]struct{}{
	"twitter":         {},
	"x":               {},
	"linkedin":        {},
	"facebook":        {},
	"instagram":       {},
	"tiktok":          {},
	"youtube":         {},
	"pinterest":       {},
	"threads":         {},
	"email":           {},
	"google_business": {},
}

func NormalizePlatform(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func IsSupportedPlatform(v string) bool {
	_, ok := supportedPlatforms[NormalizePlatform(v)]
	return ok
}

func ValidateCampaignName(v string) error {
	trimmed := strings.TrimSpace(v)
	if len(trimmed) < 2 || len(trimmed) > 120 {
		return fmt.Errorf("%w: campaign_name must be 2-120 chars", ErrInvalidInput)
	}
	return nil
}

// MaxBlogQuota bounds the content pieces a single campaign may generate.
const MaxBlogQuota = 50

func ValidateBlogQuota(v int) error {
	if v < 0 || v > MaxBlogQuota {
		return fmt.Errorf("%w: content_preferences.blogs must be 0-%d", ErrInvalidInput, MaxBlogQuota)
	}
	return nil
}

func ValidateBudget(v float64) error {
	if v < 0 {
		return fmt.Errorf("%w: budget must be >= 0", ErrInvalidInput)
	}
	return nil
}

// NormalizePlatforms lowercases, de-duplicates and validates the requested platforms.
func NormalizePlatforms(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		p := NormalizePlatform(v)
		if p == "" {
			continue
		}
		if !IsSupportedPlatform(p) {
			return nil, fmt.Errorf("%w: unsupported platform %q", ErrInvalidInput, v)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// ScopeRules returns the rule set sent to the repurposing engine. Requested
// platforms without a caller rule get an enabled default; platforms outside
// the requested list are disabled. With no requested platforms the caller
// rules pass through unchanged.
func ScopeRules(rules RepurposeRules, platforms []string) RepurposeRules {
	out := make(RepurposeRules, len(rules)+len(platforms))
	for platform, rule := range rules {
		out[NormalizePlatform(platform)] = rule
	}
	if len(platforms) == 0 {
		return out
	}
	requested := make(map[string]struct{}, len(platforms))
	for _, p := range platforms {
		requested[p] = struct{}{}
		if _, ok := out[p]; !ok {
			out[p] = PlatformRule{Enabled: true, IncludeHashtags: true}
		}
	}
	for platform, rule := range out {
		if _, ok := requested[platform]; !ok {
			rule.Enabled = false
			out[platform] = rule
		}
	}
	return out
}
