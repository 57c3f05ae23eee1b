package sync

// IsManualSync checks if the sync reason indicates a manual sync
func IsManualSync(reason Reason) bool {
	return reason == ReasonManualRequested
}

// hashPreview shortens a hash for log lines
func hashPreview(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
