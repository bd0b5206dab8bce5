package locales

// MessagesEnUS holds English (US) translations.
var MessagesEnUS = map[string]string{
	// Common messages
	"success":        "Operation successful",
	"common.success": "Success",
	"error":          "Operation failed",
	"not_found":      "Not found",
	"bad_request":    "Bad request",
	"internal_error": "Internal error",
	"invalid_param":  "Invalid parameter",

	// Relay related
	"relay.message_required": "Query parameter 'message' is required",
	"relay.invalid_history":  "Query parameter 'history' is not a valid conversation history",
	"relay.invalid_format":   "Unsupported response format",

	// Stats related
	"stats.fetched": "Statistics fetched",
}
