package advisor

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

// SuggestRequestDTO is the request payload for the suggestion endpoint.
// Keys are course names, values are numeric scores on the 0-100 projection.
type SuggestRequestDTO struct {
	Subjects map[string]float64 `json:"subjects"`
}

// SuggestResponseDTO is the response payload of the suggestion endpoint.
type SuggestResponseDTO struct {
	Suggestion string `json:"suggestion"`
}

// APIErrorDTO is the error payload returned on 4xx/5xx responses.
type APIErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("advisor api error [%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("advisor api error: %s", e.Message)
}
