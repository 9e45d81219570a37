package scoring

import (
	"net/url"
	"strings"
)

// Tier is a coarse trust level derived from a credibility score.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// TierFor maps a score to its trust tier.
func TierFor(score float64) Tier {
	switch {
	case score >= 0.8:
		return TierHigh
	case score >= 0.5:
		return TierMedium
	default:
		return TierLow
	}
}

// Credibility is the provenance assessment of a research URL.
type Credibility struct {
	Score   float64  `json:"score"`
	Tier    Tier     `json:"tier"`
	Reasons []string `json:"reasons,omitempty"`
}

// GovernmentScore is the fixed credibility of .gov hosts on the compliance path.
const GovernmentScore = 0.7

// trustedDomains are publishers whose research is credited without review.
var trustedDomains = []string{
	"iso.org",
	"nist.gov",
	"gartner.com",
	"mckinsey.com",
	"hbr.org",
	"forrester.com",
	"deloitte.com",
	"pmi.org",
	"axelos.com",
	"ieee.org",
}

// userContentMarkers flag hosts or paths carrying user-generated content.
var userContentMarkers = []string{"blog", "wiki", "forum"}

// SourceCredibility scores a research URL by its domain.
func SourceCredibility(rawURL string) Credibility {
	host, full := hostOf(rawURL)
	score := 0.5
	var reasons []string

	if isTrusted(host) {
		score += 0.3
		reasons = append(reasons, "Trusted publisher")
	}

	switch {
	case strings.HasSuffix(host, ".edu"):
		score += 0.2
		reasons = append(reasons, "Educational institution")
	case strings.HasSuffix(host, ".gov"):
		score += 0.2
		reasons = append(reasons, "Government source")
	case strings.HasSuffix(host, ".org"):
		score += 0.1
		reasons = append(reasons, "Organization domain")
	}

	for _, marker := range userContentMarkers {
		if strings.Contains(full, marker) {
			score -= 0.2
			reasons = append(reasons, "User-generated content")
			break
		}
	}

	score = Clamp(score, 0, 1)
	return Credibility{Score: score, Tier: TierFor(score), Reasons: reasons}
}

// ComplianceSourceCredibility scores a URL for the compliance path, where
// government hosts get a fixed score regardless of other bonuses.
func ComplianceSourceCredibility(rawURL string) Credibility {
	host, _ := hostOf(rawURL)
	if strings.HasSuffix(host, ".gov") {
		return Credibility{
			Score:   GovernmentScore,
			Tier:    TierFor(GovernmentScore),
			Reasons: []string{"Government source"},
		}
	}
	return SourceCredibility(rawURL)
}

func isTrusted(host string) bool {
	for _, d := range trustedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// hostOf returns the lower-cased host and the lower-cased URL without scheme.
func hostOf(rawURL string) (string, string) {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if s == "" {
		return "", ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", s
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return host, host + u.EscapedPath()
}
