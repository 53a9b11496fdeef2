package models

// Response codes carried in every console envelope.
const (
	CodeOK       = 0
	CodeFailure  = 1
	CodeNotFound = 10
)

// Envelope is the uniform console response body.
type Envelope struct {
	Code   int               `json:"code"`
	Msg    string            `json:"msg"`
	Data   any               `json:"data"`
	Errors map[string]string `json:"errors,omitempty"`
}
