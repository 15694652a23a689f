package handlers

import "context"

// PingHandler is a trivial endpoint that sits behind the full middleware
// chain, used to exercise and demonstrate the limiter.
type PingHandler struct{}

// NewPingHandler creates a new ping handler.
func NewPingHandler() *PingHandler {
	return &PingHandler{}
}

// PingRequest optionally carries the rate-limited identity, echoed back so
// callers can see which counter their requests land on.
type PingRequest struct {
	User string `header:"x-user" doc:"Identity the request is attributed to" required:"false"`
}

// PingResponse is the response for the ping endpoint.
type PingResponse struct {
	Body struct {
		Message string `json:"message"`
		User    string `json:"user,omitempty"`
	}
}

// Ping responds to any request that made it through the rate limiters.
func (h *PingHandler) Ping(_ context.Context, req *PingRequest) (*PingResponse, error) {
	resp := &PingResponse{}
	resp.Body.Message = "pong"
	resp.Body.User = req.User

	return resp, nil
}
