package session

// Notice is a user-facing, non-fatal notification. Store-call failures
// become notices; nothing in a session crashes the enclosing view.
type Notice struct {
	Kind string // "info", "error", "refresh"
	Text string
}

func infoNotice(text string) Notice  { return Notice{Kind: "info", Text: text} }
func errorNotice(text string) Notice { return Notice{Kind: "error", Text: text} }

var refreshNotice = Notice{Kind: "refresh"}
