package service

import (
	"strings"

	"github.com/noah-isme/smart-attendance/internal/models"
)

// TrustService maps a client IP string onto a coarse trust bucket. The
// policy is literal prefix matching, a deliberately cheap and explainable
// heuristic: mismatches land in the WARNING/SUSPICIOUS buckets for human
// review, nothing is ever blocked.
type TrustService struct {
	campusPrefixes []string
}

// NewTrustService constructs the classifier with the configured campus
// network prefixes.
func NewTrustService(campusPrefixes []string) *TrustService {
	return &TrustService{campusPrefixes: campusPrefixes}
}

// Classify is pure and total: every input maps to some status. Rules are
// evaluated in precedence order, first match wins.
func (s *TrustService) Classify(ip string) (models.IPStatus, string) {
	if strings.HasPrefix(ip, "127.") || ip == "::1" {
		return models.IPStatusDev, "local development, trust judgment skipped"
	}

	for _, prefix := range s.campusPrefixes {
		if strings.HasPrefix(ip, prefix) {
			return models.IPStatusNormal, "trusted in-campus network"
		}
	}

	if strings.HasPrefix(ip, "10.") || strings.HasPrefix(ip, "192.168.") {
		return models.IPStatusWarning, "adjacent/internal network, needs review"
	}

	return models.IPStatusSuspicious, "external network, suspected off-campus"
}
