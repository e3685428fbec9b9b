package cloud

import "encoding/json"

// DocumentPushPayload is the body sent when publishing a project document.
// The document itself travels as raw JSON so the sync layer never has to
// track the editor's schema.
type DocumentPushPayload struct {
	ProjectID string          `json:"project_id"`
	Name      string          `json:"name"`
	DeviceID  string          `json:"device_id,omitempty"`
	Revision  int             `json:"revision,omitempty"`
	Document  json.RawMessage `json:"document"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// DocumentPushResult is the server's acknowledgement of a push.
type DocumentPushResult struct {
	ProjectID string `json:"project_id"`
	Revision  int    `json:"revision"`
	StoredAt  string `json:"stored_at,omitempty"`
}

// RemoteDocument is a full project document fetched from the cloud.
type RemoteDocument struct {
	ProjectID string          `json:"project_id"`
	Name      string          `json:"name"`
	Revision  int             `json:"revision"`
	Document  json.RawMessage `json:"document"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// RemoteProject is a listing entry; the document body is omitted.
type RemoteProject struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Revision  int    `json:"revision"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
