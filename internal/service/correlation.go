package service

import "polar-billing-bridge/internal/model"

// Polar round-trips checkout metadata under several spellings depending on
// whether the session came from a checkout link or the API. Each logical
// reference has one ordered alias table; adding a spelling is a table edit.
var (
	transactionRefAliases = []string{"reference_id", "referenceId", "transactionId"}
	businessRefAliases    = []string{"businessId", "business_id"}
)

// ResolveTransactionRef extracts the correlation reference for the
// transaction side, top-level fields first, then metadata aliases in order.
// Empty string means unresolvable.
func ResolveTransactionRef(p *model.EventPayload) string {
	if p.ReferenceID != "" {
		return p.ReferenceID
	}
	if p.ExternalReference != "" {
		return p.ExternalReference
	}
	return firstMetaString(p.Metadata, transactionRefAliases)
}

// ResolveBusinessRef extracts the business-side reference. Resolved
// independently of the transaction reference; either may be absent.
func ResolveBusinessRef(p *model.EventPayload) string {
	return firstMetaString(p.Metadata, businessRefAliases)
}

func firstMetaString(meta map[string]any, aliases []string) string {
	for _, key := range aliases {
		if v, ok := meta[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
