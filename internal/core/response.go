package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"weatherwager/internal/types"
)

// APIResponse is the standard envelope for all successful API responses.
// Warnings carries non-fatal notices, e.g. that a balance mutation reached
// memory only.
type APIResponse struct {
	Data     interface{} `json:"data,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// APIErrorResponse is the standard envelope for all error API responses.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned to clients.
// Classification is the taxonomy tag the UI keys its display message on, and
// Display is that message resolved server-side.
type ErrorDetail struct {
	Code           string               `json:"code"`
	Classification string               `json:"classification"`
	Message        string               `json:"message"`
	Display        types.DisplayMessage `json:"display"`
	Details        map[string]any       `json:"details,omitempty"`
	RequestID      string               `json:"request_id"`
}

// JSON writes a JSON response with the given status code and data.
// If marshalling fails, it falls back to a 500 error response.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fallback := APIErrorResponse{
			Error: ErrorDetail{
				Code:           string(types.ErrCodeInternalUnexpected),
				Classification: types.ClassAPI,
				Message:        "failed to marshal response",
				Display:        types.DisplayMessageFor(types.ClassAPI),
				RequestID:      types.GetRequestID(r.Context()),
			},
		}
		_ = json.NewEncoder(w).Encode(fallback)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes an error response to the client. If the error is (or wraps) a
// *types.AppError, its code determines the HTTP status and classification;
// generic errors become an opaque 500 so internal details never leak.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	requestID := types.GetRequestID(r.Context())

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		classification := appErr.Code.Classification()
		resp := APIErrorResponse{
			Error: ErrorDetail{
				Code:           string(appErr.Code),
				Classification: classification,
				Message:        appErr.Message,
				Display:        types.DisplayMessageFor(classification),
				Details:        appErr.Details,
				RequestID:      requestID,
			},
		}
		JSON(w, r, appErr.HTTPStatus(), resp)
		return
	}

	resp := APIErrorResponse{
		Error: ErrorDetail{
			Code:           string(types.ErrCodeInternalUnexpected),
			Classification: types.ClassAPI,
			Message:        "an unexpected error occurred",
			Display:        types.DisplayMessageFor(types.ClassAPI),
			RequestID:      requestID,
		},
	}
	JSON(w, r, http.StatusInternalServerError, resp)
}

// DecodeJSON reads the request body into dst with strict field checking.
// It returns a validation AppError on malformed input.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return types.NewAppError(
			types.ErrCodeValidationMissingField,
			"invalid JSON in request body",
			err,
		)
	}
	return nil
}
