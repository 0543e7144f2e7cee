package types

// Event represents a typed event emitted after a ledger operation commits.
// TxID correlates every event produced by one operation.
type Event struct {
	Type       string            `json:"type"`
	TxID       string            `json:"txId,omitempty"`
	Attributes map[string]string `json:"attributes"`
}
