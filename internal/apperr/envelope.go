package apperr

import "math"

// Envelope is the JSON body of every rejected request.
type Envelope struct {
	Status            string       `json:"status"`
	Message           string       `json:"message"`
	Code              Code         `json:"code"`
	Details           []FieldError `json:"details,omitempty"`
	RetryAfterSeconds int64        `json:"retryAfterSeconds,omitempty"`
	IsActive          *bool        `json:"isActive,omitempty"`
	User              any          `json:"user,omitempty"`
	Detail            string       `json:"detail,omitempty"`
}

// NewEnvelope renders err. Internal causes are only exposed when verbose is set.
func NewEnvelope(err error, verbose bool) Envelope {
	e := From(err)
	env := Envelope{
		Status:  statusWord(e.HTTPStatus()),
		Message: e.Message,
		Code:    e.Code,
		Details: e.Fields,
	}
	if e.RetryAfter > 0 {
		env.RetryAfterSeconds = int64(math.Ceil(e.RetryAfter.Seconds()))
	}
	if e.Inactive {
		active := false
		env.IsActive = &active
		env.User = e.User
	}
	if verbose && e.Err != nil {
		env.Detail = e.Err.Error()
	}
	return env
}

func statusWord(status int) string {
	if status >= 500 {
		return "error"
	}
	return "fail"
}
