package avatars

// Avatar statuses
const (
	StatusPending = "PENDING"
	StatusReady   = "READY"
)

// Avatar represents the item stored in the Avatars DynamoDB table. The id is
// the remote generation job's order id.
type Avatar struct {
	ID           string `dynamodbav:"id"` // PK
	RequestID    string `dynamodbav:"request_id"`
	FilterID     string `dynamodbav:"filter_id"`
	Status       string `dynamodbav:"status"`
	OutputURL    string `dynamodbav:"output_url,omitempty"`
	CreationDate string `dynamodbav:"creation_date"`
}

// Rendered is the caller-facing shape used when avatars are embedded in order
// responses.
type Rendered struct {
	AvatarID     string `json:"avatarId"`
	OutputURL    string `json:"outputUrl"`
	FilterID     string `json:"filterId"`
	CreationDate string `json:"creationDate"`
}

// Render converts a stored avatar to the response shape.
func Render(a Avatar) Rendered {
	return Rendered{
		AvatarID:     a.ID,
		OutputURL:    a.OutputURL,
		FilterID:     a.FilterID,
		CreationDate: a.CreationDate,
	}
}
