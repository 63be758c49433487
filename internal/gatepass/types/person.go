package types

type RegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PersonView is the API shape of a person.  Phone is formatted, never raw.
type PersonView struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	NotificationStatus string `json:"notification_status"`
	Active             bool   `json:"active"`
	CreatedAt          string `json:"created_at"`
	ExpiresAt          string `json:"credential_expires_at,omitempty"`
}

type RegisterResponse struct {
	Person    PersonView `json:"person"`
	Delivered bool       `json:"delivered"`
	Message   string     `json:"message"`
}

type NotificationView struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id,omitempty"`
	Kind     string `json:"kind"`
	Phone    string `json:"phone"` // masked
	Status   string `json:"status"`
	SentAt   string `json:"sent_at"`
	Error    string `json:"error,omitempty"`
}
