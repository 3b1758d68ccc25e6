package dto

// ErrorBody carries a machine readable code and a human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
