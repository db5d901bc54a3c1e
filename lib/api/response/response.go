package response

import "invitebot/lib/clock"

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Count         *int        `json:"count,omitempty"`
	Success       bool        `json:"success" validate:"required"`
	StatusMessage string      `json:"status_message"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

// List wraps a collection together with its size.
func List[T any](items []T) Response {
	count := len(items)
	if items == nil {
		items = make([]T, 0)
	}
	r := Ok(items)
	r.Count = &count
	return r
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}
