package utils

// Reverse returns a reversed copy of s, leaving s untouched. HCI commands take
// device addresses little-endian, the reverse of their printed form.
func Reverse[S ~[]E, E any](s S) S {
	out := make(S, len(s))

	for i, v := range s {
		out[len(s)-1-i] = v
	}

	return out
}
