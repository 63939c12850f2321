package apiclient

import "time"

// User is the client-side projection of an account.
type User struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// LiveDetails is the live-status of a YouTube video. On failure only IsLive,
// Reason and possibly Status are set.
type LiveDetails struct {
	IsLive             bool    `json:"isLive"`
	ActiveLiveChatID   *string `json:"activeLiveChatId,omitempty"`
	PrivacyStatus      string  `json:"privacyStatus,omitempty"`
	ScheduledStartTime *string `json:"scheduledStartTime,omitempty"`
	ActualStartTime    *string `json:"actualStartTime,omitempty"`
	ActualEndTime      *string `json:"actualEndTime,omitempty"`
	Reason             string  `json:"reason,omitempty"`
	Status             int     `json:"status,omitempty"`
}

// Failed reports whether the lookup itself failed upstream.
func (d LiveDetails) Failed() bool {
	return d.Reason != ""
}
