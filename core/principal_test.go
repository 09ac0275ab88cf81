package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultUsername(t *testing.T) {
	assert.Equal(t, "User_abc123", DefaultUsername("0x1234567890abc123"))
	assert.Equal(t, "User_0x12", DefaultUsername("0x12"))
}

func TestProfileUpdateValidate(t *testing.T) {
	short := "ab"
	long := strings.Repeat("x", 31)
	ok := "alice"
	bigBio := strings.Repeat("b", 501)

	assert.NoError(t, ProfileUpdate{}.Validate())
	assert.NoError(t, ProfileUpdate{Username: &ok}.Validate())
	assert.ErrorIs(t, ProfileUpdate{Username: &short}.Validate(), ErrInvalidUsername)
	assert.ErrorIs(t, ProfileUpdate{Username: &long}.Validate(), ErrInvalidUsername)
	assert.ErrorIs(t, ProfileUpdate{Bio: &bigBio}.Validate(), ErrBioTooLong)
}

func TestPreferencesUpdate(t *testing.T) {
	bad := Theme("neon")
	assert.ErrorIs(t, PreferencesUpdate{Theme: &bad}.Validate(), ErrInvalidTheme)

	dark := ThemeDark
	off := false
	prefs := PreferencesUpdate{Theme: &dark, NotifyPush: &off}.Apply(DefaultPreferences())
	assert.Equal(t, ThemeDark, prefs.Theme)
	assert.True(t, prefs.Notifications.Email)
	assert.False(t, prefs.Notifications.Push)
}

func TestRejectKindCode(t *testing.T) {
	assert.Equal(t, "TOKEN_MISSING", RejectMissing.Code())
	assert.Equal(t, "TOKEN_EXPIRED", RejectExpired.Code())
	assert.Equal(t, "FORBIDDEN", RejectForbidden.Code())

	// A deleted principal must be indistinguishable from a forged token.
	assert.Equal(t, RejectInvalid.Code(), RejectPrincipalGone.Code())
}
