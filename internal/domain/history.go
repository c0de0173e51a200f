package domain

// History status values.
const (
	HistoryStatusSuccess   = "success"
	HistoryStatusCancelled = "cancelled"
)

// Maximum number of history entries kept; older ones are evicted.
const MaxHistoryRecords = 50

// A completed or cancelled mission summary, stored newest-first.
type HistoryRecord struct {
	Timestamp string `json:"timestamp"`
	Pickup    string `json:"pickup"`
	Delivery  string `json:"delivery"`
	Status    string `json:"status"`
}
