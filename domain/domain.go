// Package domain contains the wire and storage types shared by the sync
// server, the storage layer, discovery and the client consumer.
package domain

import "time"

// Result is one row of the scanned-part ledger: at most one row exists per
// (normalized artikul, client) pair, merged on every subsequent write.
type Result struct {
	ID          int64     `json:"id"`
	Artikul     string    `json:"artikul"`
	Client      string    `json:"client"`
	Quantity    int       `json:"quantity"`
	Weight      float64   `json:"weight"`
	Brand       string    `json:"brand,omitempty"`
	Description string    `json:"description,omitempty"`
	SalePrice   float64   `json:"sale_price"`
	TotalPrice  float64   `json:"total_price"`
	LastUpdated time.Time `json:"last_updated"`
}

// ResultInput is a single accepted write against the ledger. Artikul and
// Client are required; Quantity is a delta added to any existing row.
type ResultInput struct {
	Artikul     string  `json:"artikul"`
	Client      string  `json:"client"`
	Quantity    int     `json:"quantity"`
	Weight      float64 `json:"weight"`
	Brand       string  `json:"brand"`
	Description string  `json:"description"`
	SalePrice   float64 `json:"sale_price"`
}

// ResultPatch is a sparse update for a single row. Nil fields are left
// untouched; the set of patchable fields is the full allow-list.
type ResultPatch struct {
	Artikul     *string  `json:"artikul,omitempty"`
	Client      *string  `json:"client,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	Description *string  `json:"description,omitempty"`
	SalePrice   *float64 `json:"sale_price,omitempty"`
	TotalPrice  *float64 `json:"total_price,omitempty"`
}

// IsZero reports whether the patch carries no fields at all.
func (p ResultPatch) IsZero() bool {
	return p.Artikul == nil && p.Client == nil && p.Quantity == nil &&
		p.Weight == nil && p.Brand == nil && p.Description == nil &&
		p.SalePrice == nil && p.TotalPrice == nil
}

// CatalogInfo is the metadata of the single in-memory catalog blob.
// Exists is false when no catalog has been uploaded since server start.
type CatalogInfo struct {
	Exists     bool      `json:"exists"`
	Filename   string    `json:"filename,omitempty"`
	Size       int       `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploaded_at,omitempty"`
}

// AnnounceType identifies a gearledger server discovery datagram.
const AnnounceType = "gearledger_server"

// Announcement is the JSON datagram broadcast on the discovery port.
type Announcement struct {
	Type string `json:"type"`
	IP   string `json:"ip"`
	Port int    `json:"port"`
	Name string `json:"name"`
}

// DiscoveredServer is a client-side view of one announced server, keyed by
// Addr ("ip:port") and pruned when LastSeen falls outside the staleness window.
type DiscoveredServer struct {
	IP       string
	Port     int
	Name     string
	LastSeen time.Time
}

// ServerStatus is the response of the status probe.
type ServerStatus struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

// Push-plane event types.
const (
	EventConnected       = "connected"
	EventResultsChanged  = "results_changed"
	EventCatalogUploaded = "catalog_uploaded"
)

// Event is one push-plane notification fanned out over SSE.
type Event struct {
	Type     string       `json:"type"`
	Version  int64        `json:"version"`
	Filename string       `json:"filename,omitempty"`
	Size     int          `json:"size,omitempty"`
	Catalog  *CatalogInfo `json:"catalog,omitempty"`
}
