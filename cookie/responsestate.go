package cookie

// ResponseState tracks whether the response body has started. Cookie and
// session mutations check it instead of introspecting the transport.
type ResponseState struct {
	started bool
}

// NewResponseState returns a ResponseState in the NotStarted state.
func NewResponseState() *ResponseState {
	return &ResponseState{}
}

// Start marks the response as started. Idempotent.
func (s *ResponseState) Start() {
	s.started = true
}

// Started reports whether the response body has started.
func (s *ResponseState) Started() bool {
	return s.started
}
