package output

// T looks up user-facing messages. DescribeError renders domain errors
// through it.
type T interface {
	// T renders key for locale with data as template input (may be nil).
	// A missing key is returned unchanged.
	T(locale, key string, data map[string]any) string
}
