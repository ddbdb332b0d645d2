// # Error Codes Reference
//
// User-facing messages carry a code that users can quote to support staff.
// Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: The file exceeds the upload size limit
//	          Action: Split the file or remove unused columns
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Unsupported encoding: The character encoding is not supported
//	          Action: Save the file as UTF-8 or pick a listed encoding
//	          Patterns: "unsupported encoding"
//
//	FILE003 - Empty file: The uploaded file is empty
//	          Action: Upload a file that contains data
//	          Patterns: "empty file"
//
//	FILE004 - No file: No file was selected
//	          Action: Select a file to upload
//	          Patterns: "no file provided"
//
// # Format Errors (FMT001-FMT099)
//
//	FMT001 - Unknown format: The requested input format is not supported
//	         Action: Choose json, xml, text, excel or pdf
//	         Patterns: "unknown format"
//
//	FMT002 - Decoder unavailable: This format is disabled on the server
//	         Action: Convert the file to CSV or text before uploading
//	         Patterns: "decoder unavailable"
//
//	FMT003 - Invalid delimiter: The delimiter is not supported
//	         Action: Use comma, semicolon, tab or pipe
//	         Patterns: "unsupported output delimiter", "unsupported input delimiter", "invalid delimiter"
//
// # Request Errors (CNV004-CNV007)
//
//	CNV004 - System busy: Too many conversions in progress
//	         Action: Wait a moment and try again
//	         Patterns: "too many concurrent conversions"
//
//	CNV005 - Timeout: The conversion took too long
//	         Action: Try a smaller file
//	         Patterns: "context deadline exceeded"
//
//	CNV006 - Cancelled: The request was cancelled
//	         Action: Try again
//	         Patterns: "context canceled"
//
//	CNV007 - No result: Nothing has been cleaned or converted yet
//	         Action: Clean or convert a file first
//	         Patterns: "no result available"
//
// # JSON Errors (JSON001-JSON099)
//
//	JSON001 - Empty JSON: The JSON document has no records
//	          Action: Provide an object or a non-empty array of objects
//	          Patterns: "empty json data"
//
//	JSON002 - Invalid JSON: The JSON document could not be parsed
//	          Action: Check the file with a JSON validator
//	          Patterns: "json parsing error"
//
// # XML Errors (XML001-XML099)
//
//	XML001 - No XML data: The XML root has no record elements
//	         Action: Make sure records are direct children of the root
//	         Patterns: "no data found in xml"
//
//	XML002 - Invalid XML: The XML document is not well-formed
//	         Action: Check for unclosed or mismatched tags
//	         Patterns: "xml parsing error"
//
// # Conversion Errors (CNV001-CNV003)
//
//	CNV001 - Excel conversion failed: The workbook could not be read
//	         Action: Save the workbook as .xlsx and try again
//	         Patterns: "excel conversion error"
//
//	CNV002 - PDF conversion failed: No text could be extracted
//	         Action: Make sure the PDF contains selectable text
//	         Patterns: "pdf conversion error"
//
//	CNV003 - Cleaning failed: The CSV could not be cleaned
//	         Action: Check the cleaning options and try again
//	         Patterns: "csv cleaning error"
//
// # Access Errors (RATE001, AUTH001-AUTH002, DB001)
//
//	RATE001 - Rate limited: Too many requests
//	AUTH001 - Missing API key
//	AUTH002 - Invalid API key
//	DB001   - History database unreachable
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// # Pattern Matching
//
// Patterns match case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones. For example
// "decoder unavailable" precedes "excel conversion error" because an
// unavailable decoder is reported inside an Excel conversion failure.

package core

import "strings"

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps lowercase technical patterns to user messages.
// Order matters: specific before general.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The file exceeds the upload size limit",
			Action:  "Split the file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The file exceeds the upload size limit",
			Action:  "Split the file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported encoding",
		msg: UserMessage{
			Message: "The character encoding is not supported",
			Action:  "Save the file as UTF-8 or pick a listed encoding",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file that contains data",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Select a file to upload",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Format Errors (FMT001-FMT003)
	// Checked before conversion errors, which can wrap them.
	// =========================================================================
	{
		pattern: "unknown format",
		msg: UserMessage{
			Message: "The requested input format is not supported",
			Action:  "Choose json, xml, text, excel or pdf",
			Code:    "FMT001",
		},
	},
	{
		pattern: "decoder unavailable",
		msg: UserMessage{
			Message: "This format is disabled on the server",
			Action:  "Convert the file to CSV or text before uploading",
			Code:    "FMT002",
		},
	},
	{
		pattern: "unsupported output delimiter",
		msg: UserMessage{
			Message: "The delimiter is not supported",
			Action:  "Use comma, semicolon, tab or pipe",
			Code:    "FMT003",
		},
	},
	{
		pattern: "unsupported input delimiter",
		msg: UserMessage{
			Message: "The delimiter is not supported",
			Action:  "Use comma, semicolon, tab or pipe",
			Code:    "FMT003",
		},
	},
	{
		pattern: "invalid delimiter",
		msg: UserMessage{
			Message: "The delimiter is not supported",
			Action:  "Use comma, semicolon, tab or pipe",
			Code:    "FMT003",
		},
	},

	// =========================================================================
	// Request Errors (CNV004-CNV007)
	// =========================================================================
	{
		pattern: "too many concurrent conversions",
		msg: UserMessage{
			Message: "Too many conversions in progress",
			Action:  "Wait a moment and try again",
			Code:    "CNV004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The conversion took too long",
			Action:  "Try a smaller file",
			Code:    "CNV005",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Try again",
			Code:    "CNV006",
		},
	},
	{
		pattern: "no result available",
		msg: UserMessage{
			Message: "Nothing has been cleaned or converted yet",
			Action:  "Clean or convert a file first",
			Code:    "CNV007",
		},
	},

	// =========================================================================
	// JSON and XML Errors
	// =========================================================================
	{
		pattern: "empty json data",
		msg: UserMessage{
			Message: "The JSON document has no records",
			Action:  "Provide an object or a non-empty array of objects",
			Code:    "JSON001",
		},
	},
	{
		pattern: "json parsing error",
		msg: UserMessage{
			Message: "The JSON document could not be parsed",
			Action:  "Check the file with a JSON validator",
			Code:    "JSON002",
		},
	},
	{
		pattern: "no data found in xml",
		msg: UserMessage{
			Message: "The XML root has no record elements",
			Action:  "Make sure records are direct children of the root",
			Code:    "XML001",
		},
	},
	{
		pattern: "xml parsing error",
		msg: UserMessage{
			Message: "The XML document is not well-formed",
			Action:  "Check for unclosed or mismatched tags",
			Code:    "XML002",
		},
	},

	// =========================================================================
	// Conversion Errors (CNV001-CNV003)
	// =========================================================================
	{
		pattern: "excel conversion error",
		msg: UserMessage{
			Message: "The workbook could not be read",
			Action:  "Save the workbook as .xlsx and try again",
			Code:    "CNV001",
		},
	},
	{
		pattern: "pdf conversion error",
		msg: UserMessage{
			Message: "No text could be extracted from the PDF",
			Action:  "Make sure the PDF contains selectable text",
			Code:    "CNV002",
		},
	},
	{
		pattern: "csv cleaning error",
		msg: UserMessage{
			Message: "The CSV could not be cleaned",
			Action:  "Check the cleaning options and try again",
			Code:    "CNV003",
		},
	},

	// =========================================================================
	// Access Errors
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "missing api key",
		msg: UserMessage{
			Message: "Authentication required",
			Action:  "Send an X-API-Key header",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid api key",
		msg: UserMessage{
			Message: "The API key is not valid",
			Action:  "Check the key with your administrator",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "The history database is unreachable",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
//
//	msg := MapError(ErrTooManyConversions)
//	// msg.Code == "CNV004"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	return MapMessage(err.Error())
}

// MapMessage maps an error string, such as the Error of a failed
// conversion result, to a user message. An empty string maps to the zero
// UserMessage.
func MapMessage(text string) UserMessage {
	if text == "" {
		return UserMessage{}
	}

	lower := strings.ToLower(text)
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// IsUserFacing reports whether err matches a known pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
