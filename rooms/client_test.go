package rooms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{in: "", err: ErrEmptyName},
		{in: "   ", err: ErrEmptyName},
		{in: "ab", want: "ab", err: ErrNameTooShort},
		{in: "  ab ", want: "ab", err: ErrNameTooShort},
		{in: "abc", want: "abc"},
		{in: "  anime talk  ", want: "anime talk"},
	}
	for _, tc := range cases {
		got, err := Validate(tc.in)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, "input %q", tc.in)
		} else {
			assert.NoError(t, err, "input %q", tc.in)
		}
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/create_room", handler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	return c
}

func TestCreateRoomSendsForm(t *testing.T) {
	var gotName, gotType string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotName = r.FormValue("room_name")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "room_id": 7, "room_name": gotName})
	})

	resp, err := c.CreateRoom(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", gotName)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.True(t, resp.Success)
	assert.Equal(t, "abc", resp.Name)
	assert.Equal(t, int64(7), resp.RoomID)
}

func TestCreateRoomFailureReply(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Room already exists"})
	})

	resp, err := c.CreateRoom(context.Background(), "general")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Room already exists", resp.Message)
}

func TestCreateRoomUndecodableReply(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<h1>oops</h1>"))
	})

	_, err := c.CreateRoom(context.Background(), "abc")
	assert.Error(t, err)
}

func TestNewClientRejectsSocketURL(t *testing.T) {
	_, err := NewClient("ws://localhost:5000", nil)
	assert.Error(t, err)
}
