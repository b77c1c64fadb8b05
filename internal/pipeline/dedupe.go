package pipeline

import "award-seat-alerts/internal/provider"

// Dedupe drops records whose provider identifier was already seen,
// keeping the first occurrence and preserving order. The provider id
// is trusted as canonical at this tier; payloads are not compared.
// Cross-cycle suppression is handled separately by signatures.
func Dedupe(records []provider.Availability) []provider.Availability {
	if len(records) == 0 {
		return records
	}

	seen := make(map[string]struct{}, len(records))
	out := records[:0:0]
	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out
}
