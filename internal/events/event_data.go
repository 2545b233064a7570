package events

// EventData is the interface that all event data types must implement.
// This allows for type-safe event data while maintaining flexibility.
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PricesSyncedData contains data for PricesSynced events
type PricesSyncedData struct {
	Symbols int `json:"symbols"`
	Rows    int `json:"rows"`
}

// EventType returns the event type for PricesSyncedData
func (d *PricesSyncedData) EventType() EventType {
	return PricesSynced
}

// QuoteReceivedData contains data for QuoteReceived events
type QuoteReceivedData struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// EventType returns the event type for QuoteReceivedData
func (d *QuoteReceivedData) EventType() EventType {
	return QuoteReceived
}

// AnalysisCompletedData contains data for AnalysisCompleted events
type AnalysisCompletedData struct {
	AnalysisID string `json:"analysis_id"`
	Kind       string `json:"kind"`
	Symbols    int    `json:"symbols"`
}

// EventType returns the event type for AnalysisCompletedData
func (d *AnalysisCompletedData) EventType() EventType {
	return AnalysisCompleted
}

// FeedStateData contains data for FeedConnected / FeedDisconnected events
type FeedStateData struct {
	URL       string `json:"url"`
	Connected bool   `json:"connected"`
}

// EventType returns the event type for FeedStateData
func (d *FeedStateData) EventType() EventType {
	if d.Connected {
		return FeedConnected
	}
	return FeedDisconnected
}
