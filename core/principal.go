package core

import "time"

// Theme is a UI theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// NotificationPrefs controls which notification channels are enabled.
type NotificationPrefs struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// Preferences holds per-principal settings.
type Preferences struct {
	Theme         Theme             `json:"theme"`
	Notifications NotificationPrefs `json:"notifications"`
}

// DefaultPreferences returns the preferences assigned to a freshly
// provisioned principal.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme: ThemeLight,
		Notifications: NotificationPrefs{
			Email: true,
			Push:  true,
		},
	}
}

// Principal is the application's representation of an authenticated user,
// keyed by Flow wallet address. Exactly one principal exists per wallet.
type Principal struct {
	ID            string      `json:"id"`
	WalletAddress string      `json:"flowWalletAddress"`
	Username      string      `json:"username"`
	Email         string      `json:"email,omitempty"`
	ProfileImage  string      `json:"profileImage,omitempty"`
	Bio           string      `json:"bio"`
	IsAdmin       bool        `json:"isAdmin"`
	IsWhitelisted bool        `json:"isWhitelisted"`
	Preferences   Preferences `json:"preferences"`
	LastActiveAt  time.Time   `json:"lastActive"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// PublicProfile is the view of a principal exposed on unauthenticated
// lookups. Email and authorization flags are withheld.
type PublicProfile struct {
	Username     string    `json:"username"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public returns the unauthenticated view of the principal.
func (p *Principal) Public() PublicProfile {
	return PublicProfile{
		Username:     p.Username,
		ProfileImage: p.ProfileImage,
		Bio:          p.Bio,
		CreatedAt:    p.CreatedAt,
	}
}

const (
	usernameMinLen = 3
	usernameMaxLen = 30
	bioMaxLen      = 500
)

// DefaultUsername derives the display name assigned when a wallet connects
// without suggesting one.
func DefaultUsername(address string) string {
	if len(address) < 6 {
		return "User_" + address
	}
	return "User_" + address[len(address)-6:]
}

// ValidUsername reports whether a display name is acceptable.
func ValidUsername(name string) bool {
	return len(name) >= usernameMinLen && len(name) <= usernameMaxLen
}

// ProfileUpdate describes a partial profile edit. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Username     *string
	Email        *string
	Bio          *string
	ProfileImage *string
}

// Validate checks the update against the profile constraints.
func (u ProfileUpdate) Validate() error {
	if u.Username != nil && !ValidUsername(*u.Username) {
		return ErrInvalidUsername
	}
	if u.Bio != nil && len(*u.Bio) > bioMaxLen {
		return ErrBioTooLong
	}
	return nil
}

// PreferencesUpdate describes a partial preferences edit. Nil fields are
// left untouched.
type PreferencesUpdate struct {
	Theme       *Theme
	NotifyEmail *bool
	NotifyPush  *bool
}

// Validate checks the update against the preference constraints.
func (u PreferencesUpdate) Validate() error {
	if u.Theme != nil && *u.Theme != ThemeLight && *u.Theme != ThemeDark {
		return ErrInvalidTheme
	}
	return nil
}

// Apply merges the update into existing preferences.
func (u PreferencesUpdate) Apply(p Preferences) Preferences {
	if u.Theme != nil {
		p.Theme = *u.Theme
	}
	if u.NotifyEmail != nil {
		p.Notifications.Email = *u.NotifyEmail
	}
	if u.NotifyPush != nil {
		p.Notifications.Push = *u.NotifyPush
	}
	return p
}
