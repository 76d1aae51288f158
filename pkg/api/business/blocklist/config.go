package blocklist

type Config struct {
	BlockedIPsParam string `conf:"BLOCKED_IPS_PARAM" default:"/nakom.is/blocked-ips"`

	// The parameter store caps standard values at 4096 bytes; leave
	// headroom and prune oldest-first past this.
	MaxDocumentBytes int `conf:"MAX_DOCUMENT_BYTES" default:"3500"`
}
