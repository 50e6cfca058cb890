package models

// APIResponse is the uniform envelope for HTTP endpoint responses.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Result  any    `json:"result,omitempty"`
}

// Success builds a success response carrying a result.
func Success(result any) APIResponse {
	return APIResponse{Status: "ok", Result: result}
}

// SuccessWithMessage builds a success response with a human message.
func SuccessWithMessage(message string, result any) APIResponse {
	return APIResponse{Status: "ok", Message: message, Result: result}
}

// Error builds an error response.
func Error(message string) APIResponse {
	return APIResponse{Status: "error", Message: message}
}
