package server

import "github.com/docsage/docsage/internal/rag"

// AskRequest asks a question against one or more uploaded documents.
type AskRequest struct {
	Question   string   `json:"question"`
	SessionIDs []string `json:"session_ids"`
}

// SummarizeRequest requests a summary over the given sessions.
type SummarizeRequest struct {
	SessionIDs []string `json:"session_ids"`
}

// CompareRequest requests a cross-document comparison; needs at least two sessions.
type CompareRequest struct {
	SessionIDs []string `json:"session_ids"`
}

type UploadResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	PageCount int    `json:"page_count"`
}

type AskResponse struct {
	Answer    string         `json:"answer"`
	Citations []rag.Citation `json:"citations"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

type CompareResponse struct {
	Comparison string `json:"comparison"`
}

// ErrorResponse is the uniform failure payload. Failures are returned with
// 200 status and this body, never raw stack traces or bare HTTP errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
