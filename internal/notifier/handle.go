package notifier

import "strings"

// HandlePrefix marks notifications created for new mail
const HandlePrefix = "TBC-NewMail: "

// BuildHandle returns the notification handle for a header message id
func BuildHandle(headerMessageID string) string {
	return HandlePrefix + headerMessageID
}

// ParseHandle recovers the header message id from a handle. It reports
// false for handles that were not created by BuildHandle.
func ParseHandle(handle string) (string, bool) {
	if !strings.HasPrefix(handle, HandlePrefix) {
		return "", false
	}
	return strings.TrimPrefix(handle, HandlePrefix), true
}
