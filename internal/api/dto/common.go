package dto

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type AcceptedResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id,omitempty"`
}
