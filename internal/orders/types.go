package orders

import "github.com/snapit/avatar-orderflow/internal/avatars"

// Order statuses
const (
	StatusActive    = "active"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// AllStatuses in the order used for unfiltered listings.
var AllStatuses = []string{StatusActive, StatusPaid, StatusCancelled}

// ValidStatus reports whether s is one of the three order statuses.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusPaid || s == StatusCancelled
}

// Order represents the item stored in the Orders DynamoDB table. OrderID is
// the human-facing sequential label ("A1", "A2", ...) and the table's primary
// key; ID is an opaque unique token kept for cross-system references.
type Order struct {
	ID               string   `dynamodbav:"id" json:"id"`
	OrderID          string   `dynamodbav:"orderId" json:"orderId"` // PK
	Date             string   `dynamodbav:"date" json:"date"`       // YYYY-MM-DD, GSI partition key
	Status           string   `dynamodbav:"status" json:"status"`
	Price            float64  `dynamodbav:"price" json:"price"`
	PaidTimestamp    string   `dynamodbav:"paidTimestamp,omitempty" json:"paidTimestamp,omitempty"`
	CaptureTimestamp string   `dynamodbav:"captureTimestamp" json:"captureTimestamp"`
	CityID           string   `dynamodbav:"cityId" json:"cityId"`
	RequestID        string   `dynamodbav:"requestId" json:"requestId"`
	ImageURL         string   `dynamodbav:"imageUrl" json:"imageUrl"` // mirrors the first avatar's output
	AvatarIDs        []string `dynamodbav:"avatarIds" json:"avatarIds"`
}

// Enriched pairs an order with its resolved avatar records for responses.
type Enriched struct {
	Order
	Avatars []avatars.Rendered `json:"avatars"`
}
