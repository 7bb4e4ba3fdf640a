package models

import "time"

// Event types published to the account events topic.
const (
	AccountRegisteredV1      = "com.streamhive.account.registered.v1"
	AccountLoggedInV1        = "com.streamhive.account.logged_in.v1"
	AccountLoggedOutV1       = "com.streamhive.account.logged_out.v1"
	AccountPasswordChangedV1 = "com.streamhive.account.password_changed.v1"
	AccountProfileUpdatedV1  = "com.streamhive.account.profile_updated.v1"
)

// AccountRegisteredPayload is the data payload of AccountRegisteredV1.
type AccountRegisteredPayload struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// AccountLoggedInPayload is the data payload of AccountLoggedInV1.
type AccountLoggedInPayload struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// AccountPasswordChangedPayload is the data payload of AccountPasswordChangedV1.
type AccountPasswordChangedPayload struct {
	UserID    string    `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// AccountProfileUpdatedPayload is the data payload of AccountProfileUpdatedV1.
type AccountProfileUpdatedPayload struct {
	UserID        string   `json:"user_id"`
	UpdatedFields []string `json:"updated_fields"`
}
