package moodle

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// User is the subset of a core_user_get_users entry the monitor consumes
type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"fullname"`
	LastAccess int64  `json:"lastaccess"`
}

// LastAccessTime returns LastAccess as a time, zero when Moodle reports none
func (u User) LastAccessTime() time.Time {
	if u.LastAccess <= 0 {
		return time.Time{}
	}
	return time.Unix(u.LastAccess, 0)
}

type usersResult struct {
	Users []User `json:"users"`
}

// ActiveUsers returns users whose last access is at or after since, in the
// order Moodle returned them
func (c *Client) ActiveUsers(ctx context.Context, since time.Time) ([]User, error) {
	cut := since.Unix()
	params := url.Values{}
	params.Set("criteria[0][key]", "lastaccess")
	params.Set("criteria[0][value]", strconv.FormatInt(cut, 10))

	var res usersResult
	if err := c.call(ctx, "core_user_get_users", params, &res); err != nil {
		return nil, err
	}
	out := make([]User, 0, len(res.Users))
	for _, u := range res.Users {
		if u.LastAccess >= cut {
			out = append(out, u)
		}
	}
	if dropped := len(res.Users) - len(out); dropped > 0 {
		c.log.Debug().Int("dropped", dropped).Int64("since", cut).Msg("moodle users outside window")
	}
	return out, nil
}

// SiteInfo describes the Moodle site behind the token
type SiteInfo struct {
	SiteName string `json:"sitename"`
	Release  string `json:"release"`
	Username string `json:"username"`
}

// SiteInfo calls core_webservice_get_site_info, which any valid token may use
func (c *Client) SiteInfo(ctx context.Context) (SiteInfo, error) {
	var si SiteInfo
	err := c.call(ctx, "core_webservice_get_site_info", nil, &si)
	return si, err
}
