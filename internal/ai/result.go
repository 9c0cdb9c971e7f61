package ai

// ErrorKind classifies a failed transport call
type ErrorKind string

const (
	KindNetwork     ErrorKind = "network"
	KindTimeout     ErrorKind = "timeout"
	KindHTTPStatus  ErrorKind = "http_status"
	KindRateLimited ErrorKind = "rate_limited"
	KindDecode      ErrorKind = "decode"
	KindEmpty       ErrorKind = "empty"
	KindCanceled    ErrorKind = "canceled"
	KindRequest     ErrorKind = "request"
)

// Result is the outcome of one chat-completion call. When OK is set Text
// holds the raw reply; otherwise ErrorKind and Message describe the failure.
type Result struct {
	OK        bool
	Text      string
	ErrorKind ErrorKind
	Message   string
}

// Success builds an OK result
func Success(text string) Result {
	return Result{OK: true, Text: text}
}

// Failure builds a failed result
func Failure(kind ErrorKind, message string) Result {
	return Result{ErrorKind: kind, Message: message}
}
