package inspector

// Exact not-found and gated error strings from §7. These are wire contracts
// returned verbatim in an ERROR frame's message field.
const (
	errEntityNotFound = "Entity not found"
	errAssetNotFound  = "Asset not found"
	errWorldNotFound  = "World not found"
)

// failedToExpand formats §7's "Failed to expand path: …" not-found/gated
// error, shared by REQUEST_EXPAND and REQUEST_PACKET_EXPAND (§8 S7).
func failedToExpand(reason string) string {
	return "Failed to expand path: " + reason
}

// gateDisabled formats the literal "<feature> is disabled via debug config"
// message §4.6 documents for action-like RPCs.
func gateDisabled(feature string) string {
	return feature + " is disabled via debug config"
}
