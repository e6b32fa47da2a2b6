package broadcast

// Discord field limits. Anything longer is truncated at build time rather
// than rejected; anything structurally invalid (bad color, bad URL) is
// dropped field-by-field so a single bad value never sinks the payload.
const (
	MaxTitle       = 256
	MaxDescription = 4000
	MaxFooter      = 2048
	MaxCTALabel    = 80

	// 5 buttons per row, 5 rows per message.
	MaxCTAs    = 25
	RowSize    = 5
	MaxCTARows = 5
)

// EmbedData is the text content of a broadcast.
type EmbedData struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	Color       string `json:"color,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Footer      string `json:"footer,omitempty"`
}

// CTA is a single call-to-action link button.
type CTA struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Payload is the immutable-once-built description of what to send,
// independent of where it is sent.
type Payload struct {
	Embed EmbedData `json:"embedData"`
	CTAs  []CTA     `json:"ctas"`
}

// TargetKind discriminates the Target variant.
type TargetKind string

const (
	TargetChannel TargetKind = "channel"
	TargetDM      TargetKind = "dm"
)

// DMMode selects direct-message recipients by presence at send time.
type DMMode string

const (
	DMAll     DMMode = "all"
	DMOnline  DMMode = "online"
	DMOffline DMMode = "offline"
)

// Target is the destination selector: one channel, or a presence-filtered set
// of guild members reached via DM. ChannelID is meaningful only for
// TargetChannel, DMMode only for TargetDM.
type Target struct {
	Kind      TargetKind `json:"type"`
	ChannelID string     `json:"channelId,omitempty"`
	DMMode    DMMode     `json:"dmMode,omitempty"`
}

func ChannelTarget(channelID string) Target {
	return Target{Kind: TargetChannel, ChannelID: channelID}
}

func DMTarget(mode DMMode) Target {
	if mode == "" {
		mode = DMAll
	}
	return Target{Kind: TargetDM, DMMode: mode}
}
