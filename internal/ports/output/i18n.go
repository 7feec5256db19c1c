package output

// T looks up user-facing strings for a locale.
type T interface {
	// T renders the message identified by key for the given locale.
	// data is an optional map used for template placeholders (may be nil).
	T(locale, key string, data map[string]any) string
	// TN is T for messages with plural forms; count picks the form and is
	// available to the template as .Count.
	TN(locale, key string, count int, data map[string]any) string
}
