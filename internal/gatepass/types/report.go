package types

type ReportRequest struct {
	Type     string `json:"type"`           // ALL_ENTRIES | PERSON_LIST | DAILY_STATISTICS | PERSON_DETAIL
	From     string `json:"from,omitempty"` // YYYY-MM-DD, inclusive
	To       string `json:"to,omitempty"`   // YYYY-MM-DD, inclusive
	PersonID string `json:"person_id,omitempty"`
}

type ReportResponse struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     int    `json:"size"`
	ShareURL string `json:"share_url"`
}

type ShareRequest struct {
	Phone string `json:"phone"`
}

type ShareResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
