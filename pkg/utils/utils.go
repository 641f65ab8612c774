package utils

// TruncateAddress shortens an account identifier for display: the first 6
// characters, an ellipsis, then the last 4. An empty input stays empty.
// Inputs shorter than 10 characters are not guarded; the head and tail may
// overlap.
func TruncateAddress(addr string) string {
	if addr == "" {
		return ""
	}
	head := addr
	if len(head) > 6 {
		head = head[:6]
	}
	tail := addr
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return head + "..." + tail
}

func TruncateString(str string, num int) string {
	if len(str) <= num {
		return str
	}
	if num <= 3 {
		return str[:num]
	}
	return str[0:num-3] + "..."
}
