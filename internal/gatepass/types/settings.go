package types

type Settings struct {
	MessageTemplate string `json:"message_template"`
	AttachQRImage   bool   `json:"attach_qr_image"`
}

// SettingsUpdate is a partial update; nil fields are left unchanged.
type SettingsUpdate struct {
	MessageTemplate *string `json:"message_template,omitempty"`
	AttachQRImage   *bool   `json:"attach_qr_image,omitempty"`
}

type Preview struct {
	Text string `json:"text"`
}
