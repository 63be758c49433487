package types

type ScanRequest struct {
	Payload   string `json:"payload"`
	Location  string `json:"location,omitempty"`
	ScannerID string `json:"scanner_id,omitempty"`
}

type ScanResponse struct {
	OK         bool   `json:"ok"`
	EntryType  string `json:"entry_type"`
	PersonID   string `json:"person_id"`
	PersonName string `json:"person_name"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

type TodayStats struct {
	Date            string `json:"date"`
	Entries         int    `json:"entries"`
	Exits           int    `json:"exits"`
	CurrentlyInside int    `json:"currently_inside"`
	ActivePersons   int    `json:"active_persons"`
}

type EntryView struct {
	ID         string `json:"id"`
	PersonID   string `json:"person_id"`
	PersonName string `json:"person_name"`
	EntryType  string `json:"entry_type"`
	Timestamp  string `json:"timestamp"`
	Location   string `json:"location,omitempty"`
	ScannerID  string `json:"scanner_id,omitempty"`
}
