package chat

// RoomKey derives the deterministic room name for a two-party
// conversation: both usernames sorted and joined with an underscore, so
// either participant computes the same key.
func RoomKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}
