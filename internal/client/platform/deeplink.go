package platform

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
)

var ErrInvalidLink = errors.New("invalid login link")

// LoginLink is the content of a login deep link. Any field may be empty.
type LoginLink struct {
	Credentials models.Credentials
	Code        string
}

// ParseLoginLink decodes links of the form
//
//	scheme://login?useremail=..&password=..&broker=..&usercode=..
//
// The broker host becomes an https server address.
func ParseLoginLink(raw string) (LoginLink, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return LoginLink{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	q := u.Query()

	link := LoginLink{
		Credentials: models.Credentials{
			Email:    q.Get("useremail"),
			Password: q.Get("password"),
		},
		Code: q.Get("usercode"),
	}
	if broker := q.Get("broker"); broker != "" {
		broker = strings.TrimPrefix(strings.TrimPrefix(broker, "https://"), "http://")
		link.Credentials.Server = "https://" + strings.TrimRight(broker, "/")
	}

	if link.Credentials == (models.Credentials{}) && link.Code == "" {
		return LoginLink{}, fmt.Errorf("%w: no login parameters", ErrInvalidLink)
	}
	return link, nil
}
