// Package host describes the chayns host runtime the request layer talks to:
// environment identifiers, the user's access token, the wait cursor, alert
// dialogs and local storage.
//
// The request layer only depends on the small interfaces in this package.
// Static is an in-memory Runtime for servers, tools and tests.
package host

import (
	"context"
	"strconv"

	"github.com/chincoe/chayns-helper-sub000/storage"
)

// Env holds the identifiers of the site and user a request runs for.
type Env struct {
	SiteID     string `json:"siteId" mapstructure:"site_id"`
	TappID     int    `json:"tappId" mapstructure:"tapp_id"`
	LocationID int    `json:"locationId" mapstructure:"location_id"`
	PersonID   string `json:"personId" mapstructure:"person_id"`
	UserID     int    `json:"userId" mapstructure:"user_id"`
	Language   string `json:"language" mapstructure:"language"`
}

// Placeholders returns the URL placeholder tokens and their values,
// e.g. "##siteId##" → "60021-08989".
func (e Env) Placeholders() map[string]string {
	return map[string]string{
		"##siteId##":     e.SiteID,
		"##tappId##":     strconv.Itoa(e.TappID),
		"##locationId##": strconv.Itoa(e.LocationID),
		"##personId##":   e.PersonID,
		"##userId##":     strconv.Itoa(e.UserID),
		"##language##":   e.Language,
	}
}

// TokenSource provides the user's access token.
//
// RefreshAccessToken performs a silent re-authentication and returns the new
// token. It is called at most once per request, when the backend reports an
// expired token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshAccessToken(ctx context.Context) (string, error)
}

// WaitCursor shows and hides the host's wait cursor.
type WaitCursor interface {
	ShowWaitCursor(text string)
	HideWaitCursor()
}

// Dialogs shows user-facing alert dialogs.
type Dialogs interface {
	Alert(ctx context.Context, title, message string) error
}

// Runtime is the full host contract.
type Runtime interface {
	Env() Env
	TokenSource
	WaitCursor
	Dialogs
	LocalStorage() storage.Store
}
