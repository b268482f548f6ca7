package moodle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/testkit"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL + "/", Token: "secret-token", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_Validates(t *testing.T) {
	if _, err := NewClient(Options{BaseURL: "localhost", Token: "x"}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("relative url should be rejected, got %v", err)
	}
	if _, err := NewClient(Options{BaseURL: "http://moodle.local", Token: " "}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("empty token should be rejected, got %v", err)
	}
	c, err := NewClient(Options{BaseURL: "http://moodle.local/", Token: "t"})
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if c.Endpoint() != "http://moodle.local/webservice/rest/server.php" {
		t.Fatalf("endpoint %q", c.Endpoint())
	}
}

func TestActiveUsers_RequestShapeAndFilter(t *testing.T) {
	since := time.Unix(1_700_000_000, 0)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/webservice/rest/server.php" {
			t.Errorf("path %q", r.URL.Path)
		}
		q := r.URL.Query()
		want := map[string]string{
			"wstoken":            "secret-token",
			"wsfunction":         "core_user_get_users",
			"moodlewsrestformat": "json",
			"criteria[0][key]":   "lastaccess",
			"criteria[0][value]": "1700000000",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("param %s=%q want %q", k, q.Get(k), v)
			}
		}
		_, _ = w.Write([]byte(`{"users":[
			{"id":7,"username":"ana","fullname":"Ana P","lastaccess":1700000100},
			{"id":3,"username":"old","fullname":"Old Timer","lastaccess":1699999999},
			{"id":5,"username":"bo","fullname":"Bo","lastaccess":1700000000}
		],"warnings":[]}`))
	})

	users, err := c.ActiveUsers(context.Background(), since)
	if err != nil {
		t.Fatalf("ActiveUsers: %v", err)
	}
	if len(users) != 2 || users[0].ID != 7 || users[1].ID != 5 {
		t.Fatalf("expected [7 5] in source order, got %+v", users)
	}
	if users[0].FullName != "Ana P" || users[0].Username != "ana" {
		t.Fatalf("fields not decoded: %+v", users[0])
	}
	if !users[1].LastAccessTime().Equal(since) {
		t.Fatalf("last access %v", users[1].LastAccessTime())
	}
}

func TestUser_LastAccessZero(t *testing.T) {
	if !(User{}).LastAccessTime().IsZero() {
		t.Fatal("zero lastaccess should map to zero time")
	}
}

func TestActiveUsers_EmptyList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"users":[],"warnings":[]}`))
	})
	users, err := c.ActiveUsers(context.Background(), time.Now())
	if err != nil || len(users) != 0 {
		t.Fatalf("got %v %v", users, err)
	}
}

func TestActiveUsers_Failures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		invalid bool
	}{
		{"http 500", http.StatusInternalServerError, "oops", false},
		{"bad json", http.StatusOK, "<html>", false},
		{"invalid token", http.StatusOK, `{"exception":"moodle_exception","errorcode":"invalidtoken","message":"Invalid token - token not found"}`, true},
		{"other exception", http.StatusOK, `{"exception":"invalid_parameter_exception","errorcode":"invalidparameter","message":"Invalid parameter value detected"}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.ActiveUsers(context.Background(), time.Now())
			testkit.MustCode(t, err, perr.ErrorCodeSourceUnavailable)
			if got := errors.Is(err, ErrInvalidToken); got != tc.invalid {
				t.Fatalf("token rejected=%v want %v (err=%v)", got, tc.invalid, err)
			}
		})
	}
}

func TestActiveUsers_TransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: url, Token: "secret-token", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.ActiveUsers(context.Background(), time.Now())
	testkit.MustCode(t, err, perr.ErrorCodeSourceUnavailable)
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("token leaked into error: %v", err)
	}
}

func TestActiveUsers_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"users":[]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ActiveUsers(ctx, time.Now())
	testkit.MustCode(t, err, perr.ErrorCodeSourceUnavailable)
}

func TestSiteInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("wsfunction") != "core_webservice_get_site_info" {
			t.Errorf("wsfunction %q", r.URL.Query().Get("wsfunction"))
		}
		_, _ = w.Write([]byte(`{"sitename":"School","release":"4.3","username":"ws"}`))
	})
	si, err := c.SiteInfo(context.Background())
	if err != nil || si.SiteName != "School" || si.Release != "4.3" {
		t.Fatalf("got %+v %v", si, err)
	}
}
