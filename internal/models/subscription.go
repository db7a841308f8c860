package models

// PushSubscription is what the browser's PushManager hands out. Endpoint is the identity.
type PushSubscription struct {
	Endpoint       string           `json:"endpoint" validate:"required,url"`
	ExpirationTime *int64           `json:"expirationTime"`
	Keys           SubscriptionKeys `json:"keys" validate:"required"`
}

type SubscriptionKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}
