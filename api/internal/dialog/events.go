package dialog

// Inbound is one user turn as delivered by the messaging gateway: free
// text and/or attachment content URLs.
type Inbound struct {
	Text           string
	AttachmentURLs []string
}

// Card is a rich greeting card shown once at session start.
type Card struct {
	Title    string
	Text     string
	ImageURL string
}

// Outbound is one reply the gateway should deliver. Confirm marks the
// message as a yes/no question so the gateway can attach its own prompt
// affordance (inline keyboard, quick replies, ...).
type Outbound struct {
	Text    string
	Confirm bool
	Card    *Card
}

func reply(text string) Outbound   { return Outbound{Text: text} }
func confirm(text string) Outbound { return Outbound{Text: text, Confirm: true} }
