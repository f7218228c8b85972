package handlers

import "gearledger/domain"

// VersionResponse is the body of GET /api/sync/version.
type VersionResponse struct {
	Version int64 `json:"version"`
}

// ResultsResponse is the body of GET /api/results.
type ResultsResponse struct {
	Results []domain.Result `json:"results"`
	Count   int             `json:"count"`
}

// ResultResponse wraps one row; Version is set only by operations that bump
// the sync version.
type ResultResponse struct {
	Result  domain.Result `json:"result"`
	Version int64         `json:"version,omitempty"`
}

// ClearRequest is the body of POST /api/results/clear.
type ClearRequest struct {
	Client string `json:"client"`
}

// ClearResponse reports the bulk delete outcome.
type ClearResponse struct {
	Deleted int64 `json:"deleted"`
	Version int64 `json:"version"`
}

// ClientsResponse is the body of GET /api/clients.
type ClientsResponse struct {
	Clients []string `json:"clients"`
}

// CountResponse is the body of GET /api/clients/count.
type CountResponse struct {
	Count int `json:"count"`
}

// UploadResponse is the body of POST /api/catalog.
type UploadResponse struct {
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Version  int64  `json:"version"`
}
