package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	"L000": {
		Category: CategoryCLI,
		Message:  "Unexpected error",
	},

	// ============================================
	// Link Errors (L001-L099)
	// ============================================

	"L001": {
		Category:   CategoryLink,
		Message:    "Peer never entered multi-player mode",
		Detail:     "Both ends must open the port before the negotiation timeout. The mode signal was never valid on both sides.",
		Suggestion: "Start the other end, or raise link.negotiate_timeout.",
	},
	"L002": {
		Category:   CategoryLink,
		Message:    "Handshake not completed before timeout",
		Detail:     "The mode signal was valid but no handshake frame arrived in time.",
		Suggestion: "Check that both ends run the same slot period and that nothing else is driving the port.",
	},
	"L003": {
		Category:   CategoryLink,
		Message:    "Handshake mismatch",
		Detail:     "The peer sent a handshake frame that does not match the local one. Both ends must use the same handshake string.",
		Suggestion: "Compare link.handshake on both ends.",
	},
	"L004": {
		Category:   CategoryLink,
		Message:    "Handshake length does not match frame size",
		Detail:     "The handshake string must be exactly one frame (12 bytes) long.",
		Suggestion: "Pad or shorten link.handshake to 12 bytes.",
	},
	"L005": {
		Category:   CategoryLink,
		Message:    "Transmission error",
		Detail:     "The port raised its error bit and the link was torn down.",
		Suggestion: "Reconnect. If it keeps happening, lower the slot rate.",
	},
	"L006": {
		Category:   CategoryLink,
		Message:    "Failed to open port",
		Detail:     "The port could not be opened for the requested peer.",
		Suggestion: "Check the peer address and that the host is listening.",
	},
	"L007": {
		Category:   CategoryLink,
		Message:    "Peer left multi-player mode",
		Detail:     "The mode signal dropped while connected and no Disconnect notice arrived.",
		Suggestion: "Check the other end's log for the reason it stopped.",
	},
	"L008": {
		Category: CategoryLink,
		Message:  "No free frame for the handshake",
		Detail:   "Every TX frame was still held when the handshake started.",
	},

	// ============================================
	// Sync Errors (L100-L199)
	// ============================================

	"L101": {
		Category:   CategorySync,
		Message:    "Update required",
		Detail:     "The peer runs a newer version. Sessions between different versions are refused.",
		Suggestion: "Update multilink on this machine.",
	},
	"L102": {
		Category:   CategorySync,
		Message:    "Peer must update",
		Detail:     "The peer runs an older version. Sessions between different versions are refused.",
		Suggestion: "Ask the other player to update.",
	},
	"L103": {
		Category:   CategorySync,
		Message:    "Update loop stalled",
		Detail:     "The watchdog was not fed within its timeout.",
		Suggestion: "Raise watchdog.timeout or investigate what blocked the loop.",
	},

	// ============================================
	// Config Errors (L200-L299)
	// ============================================

	"L201": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Suggestion: "Run `multilink config init` to write the defaults.",
	},
	"L202": {
		Category: CategoryConfig,
		Message:  "Invalid config syntax",
		Detail:   "The config file is not valid YAML.",
	},
	"L203": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
	},
	"L204": {
		Category: CategoryConfig,
		Message:  "Failed to write config",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
