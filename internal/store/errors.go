package store

// ErrorText converts a failed fetch into the display string stored by a
// container. When the error carries no message the localized fallback is used.
func ErrorText(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
