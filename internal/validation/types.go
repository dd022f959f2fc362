package validation

// CreateOrderRequest is the payload for POST /api/orders. AvatarIDs are the
// purchased avatars; the first one sets the order's image.
type CreateOrderRequest struct {
	RequestID string   `json:"requestId" validate:"required"`
	CityID    string   `json:"cityId" validate:"required"`
	Price     float64  `json:"price" validate:"gte=0"`
	AvatarIDs []string `json:"avatarIds" validate:"required,min=1,dive,required"`
}

// UpdateStatusRequest is the payload for POST /api/orders/:orderId/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paid cancelled"`
}

// UpdateAvatarsRequest is the payload for PUT /api/orders/:orderId/avatars
type UpdateAvatarsRequest struct {
	AvatarIDs []string `json:"avatarIds" validate:"required,min=1,dive,required"`
}

// GenerateAvatarRequest is the payload for POST /api/avatars/generate
type GenerateAvatarRequest struct {
	RequestID string `json:"requestId" validate:"required"`
	FilterID  string `json:"filterId" validate:"required"`
	ImageURL  string `json:"imageUrl" validate:"required,url"` // user's uploaded selfie
}

// DispatchRequest is the payload for POST /api/avatars/dispatch: one
// generation per filter configured for the city.
type DispatchRequest struct {
	RequestID string `json:"requestId" validate:"required"`
	CityID    string `json:"cityId" validate:"required"`
	Gender    string `json:"gender" validate:"omitempty,oneof=male female"`
	ImageURL  string `json:"imageUrl" validate:"required,url"`
}

// StatusCheckRequest is the payload for POST /api/avatars/status
type StatusCheckRequest struct {
	OrderID string `json:"orderId" validate:"required"` // remote generation job id
}

// OverlayRequest is the payload for POST /api/avatars/overlay. Each avatar
// becomes its own queued overlay job.
type OverlayRequest struct {
	AvatarIDs  []string `json:"avatarIds" validate:"required,min=1,dive,required"`
	OverlayURL string   `json:"overlayUrl" validate:"omitempty,url"` // defaults to the configured frame asset
}

// RecordViewRequest is the payload for POST /api/views
type RecordViewRequest struct {
	RequestID  string `json:"requestId" validate:"required"`
	Language   string `json:"language"`
	UserAgent  string `json:"userAgent"`
	Timezone   string `json:"timezone"`
	ScreenSize string `json:"screenSize"`
}
