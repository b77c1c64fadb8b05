package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"award-seat-alerts/internal/config"
	"award-seat-alerts/internal/provider"
)

// Signature is a stable content-derived identifier for an offer. Two
// sightings of the same offer across cycles sign identically even when
// the provider reassigns its record id; materially different offers
// diverge. Volatile provider fields (freshness timestamp) never enter
// the hash.
type Signature string

// Signer derives Signatures. The optional-field policy is fixed at
// construction so every cycle of a run signs consistently.
type Signer struct {
	includeMileage bool
	includeSeats   bool
}

// NewSigner constructs a Signer from the signature policy.
func NewSigner(cfg config.SignatureConfig) *Signer {
	return &Signer{
		includeMileage: cfg.IncludeMileage,
		includeSeats:   cfg.IncludeSeats,
	}
}

// Sign hashes the salient offer fields into a fixed-length signature.
func (s *Signer) Sign(rec provider.Availability) Signature {
	parts := []string{
		strings.ToUpper(rec.Origin),
		strings.ToUpper(rec.Destination),
		rec.Date,
		strings.ToUpper(rec.Cabin),
		strings.ToLower(rec.Source),
	}
	if s.includeMileage {
		parts = append(parts, optInt(rec.MileageCost))
	}
	if s.includeSeats {
		parts = append(parts, optInt(rec.RemainingSeats))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return Signature(hex.EncodeToString(sum[:]))
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
