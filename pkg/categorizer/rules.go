package categorizer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Signal weights. Domain identity is the strongest signal; keyword hits
// scale with the number of distinct keywords found, capped per field so
// keyword-stuffed titles cannot dominate.
const (
	domainWeight        = 0.6
	patternWeight       = 0.2
	titleKeywordWeight  = 0.15
	descKeywordWeight   = 0.10
	maxTitleKeywordHits = 3
	maxDescKeywordHits  = 2
)

// RuleCategorizer scores links against the static catalog. It is pure:
// no I/O, no state, same input always yields the same output.
type RuleCategorizer struct {
	catalog []CategoryDefinition
}

func NewRuleCategorizer() *RuleCategorizer {
	return &RuleCategorizer{catalog: Catalog()}
}

var _ LinkCategorizer = (*RuleCategorizer)(nil)

func (c *RuleCategorizer) Name() string { return "rules" }

// Categorize satisfies LinkCategorizer. The rule engine never fails.
func (c *RuleCategorizer) Categorize(_ context.Context, in Input) (*CategoryMatch, error) {
	return c.Match(in), nil
}

// Match scores every catalog entry and returns the best one, or nil
// when nothing scored above zero. Ties resolve to the earlier catalog
// entry. Confidence is clamped to [0,1].
func (c *RuleCategorizer) Match(in Input) *CategoryMatch {
	host := NormalizeHost(in.URL)
	lowerURL := strings.ToLower(in.URL)
	lowerTitle := strings.ToLower(in.Title)
	lowerDesc := strings.ToLower(in.Description)

	var best *CategoryMatch
	for _, def := range c.catalog {
		score, reasons := scoreCategory(def, host, lowerURL, lowerTitle, lowerDesc)
		if score <= 0 {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &CategoryMatch{Category: def.Name, Confidence: score, Reasons: reasons}
		}
	}
	if best != nil {
		best.Confidence = clamp01(best.Confidence)
	}
	return best
}

func scoreCategory(def CategoryDefinition, host, lowerURL, lowerTitle, lowerDesc string) (float64, []string) {
	var score float64
	var reasons []string

	if host != "" {
		if domain, ok := matchDomain(def.Domains, host); ok {
			score += domainWeight
			reasons = append(reasons, "domain matches "+domain)
		}
	}

	if lowerURL != "" {
		for _, pattern := range def.URLPatterns {
			if pattern.MatchString(lowerURL) {
				score += patternWeight
				reasons = append(reasons, "url matches pattern "+pattern.String())
				break
			}
		}
	}

	titleHits := 0
	for _, kw := range def.Keywords {
		if lowerTitle == "" || titleHits == maxTitleKeywordHits {
			break
		}
		if strings.Contains(lowerTitle, kw) {
			score += titleKeywordWeight
			reasons = append(reasons, fmt.Sprintf("title contains %q", kw))
			titleHits++
		}
	}

	descHits := 0
	for _, kw := range def.Keywords {
		if lowerDesc == "" || descHits == maxDescKeywordHits {
			break
		}
		if strings.Contains(lowerDesc, kw) {
			score += descKeywordWeight
			reasons = append(reasons, fmt.Sprintf("description contains %q", kw))
			descHits++
		}
	}

	return score, reasons
}

// matchDomain checks a normalized host against a category's domain
// entries. Dotted entries match the host exactly or as a subdomain
// suffix ("gist.github.com" matches "github.com"); dotless entries are
// host fragments matched by substring.
func matchDomain(domains []string, host string) (string, bool) {
	for _, domain := range domains {
		if strings.Contains(domain, ".") {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return domain, true
			}
		} else if strings.Contains(host, domain) {
			return domain, true
		}
	}
	return "", false
}

// NormalizeHost extracts the lowercased host from a URL, stripping any
// leading "www.". Malformed or host-less URLs yield "": they carry no
// domain signal but never cause an error.
func NormalizeHost(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
