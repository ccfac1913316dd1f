package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenhq/raven/internal/api"
	"github.com/ravenhq/raven/internal/config"
	"github.com/ravenhq/raven/internal/lifecycle"
	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/moderation"
	"github.com/ravenhq/raven/internal/store"
)

// newTestServer runs the full router over the in-memory store with
// in-process moderation dispatch, the same wiring cmd/api falls back to
// without Redis. JWT_SECRET is unset so requests act as the dev identity.
func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()

	cfg := &config.Config{}
	st := store.New(store.NewMemory())
	mod := moderation.New(cfg.Moderation)

	disp := lifecycle.NewAsyncDispatcher(mod)
	manager := lifecycle.NewManager(st, disp)
	disp.Bind(manager)

	srv := httptest.NewServer(api.NewRouter(nil, nil, cfg, st, manager, mod).Setup())
	t.Cleanup(srv.Close)
	return srv, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestMessageEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/v1/threads/house/h1/messages"

	t.Run("SendIsOptimistic", func(t *testing.T) {
		resp := postJSON(t, base, map[string]string{"content": "hello there"})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		msg := decode[models.Message](t, resp)
		assert.Equal(t, "hello there", msg.Content)
		assert.NotEmpty(t, msg.ID)

		// With moderation unconfigured the fail-open resolution lands
		// shortly after the optimistic append.
		require.Eventually(t, func() bool {
			resp, err := http.Get(base)
			if err != nil {
				return false
			}
			msgs := decode[[]models.Message](t, resp)
			return len(msgs) == 1 && msgs[0].Status == models.StatusSent
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("EmptyContentRejected", func(t *testing.T) {
		resp := postJSON(t, base, map[string]string{"content": "   "})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownThreadKindRejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/v1/threads/group/h1/messages", map[string]string{"content": "hi"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHouseAndFriendEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("CreateHouseThenDeleteOwnMessage", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/v1/houses", map[string]any{"name": "Iron Keep", "is_private": true})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		house := decode[models.House](t, resp)

		msgURL := srv.URL + "/api/v1/threads/house/" + house.ID + "/messages"
		resp = postJSON(t, msgURL, map[string]string{"content": "first decree"})
		msg := decode[models.Message](t, resp)

		req, err := http.NewRequest(http.MethodDelete, msgURL+"/"+msg.ID, nil)
		require.NoError(t, err)
		delResp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		delResp.Body.Close()
		assert.Equal(t, http.StatusNoContent, delResp.StatusCode, "owner may always delete")
	})

	t.Run("DeleteInForeignHouseForbidden", func(t *testing.T) {
		// A house owned by someone else where the dev user has no role.
		srv2, st2 := newTestServer(t)
		require.NoError(t, st2.SetHouse(t.Context(), models.House{
			ID:      "h9",
			OwnerID: "someone-else",
			Roles:   []models.HouseRole{{ID: "r1", Permissions: []string{}}},
		}))

		req, err := http.NewRequest(http.MethodDelete, srv2.URL+"/api/v1/threads/house/h9/messages/m1", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("JoinPublicHouse", func(t *testing.T) {
		srv3, st3 := newTestServer(t)
		require.NoError(t, st3.SetHouse(t.Context(), models.House{
			ID:           "h7",
			Name:         "Cyber Runners",
			OwnerID:      "someone-else",
			MembersCount: 1,
			Roles: []models.HouseRole{
				{ID: "r1", Name: "Founder"},
				{ID: "r2", Name: "New Operative", Permissions: []string{}},
			},
			Members: []models.HouseMember{{ID: "someone-else", RoleID: "r1"}},
		}))

		resp := postJSON(t, srv3.URL+"/api/v1/houses/h7/join", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		house := decode[models.House](t, resp)
		assert.Equal(t, 2, house.MembersCount)

		m, ok := house.Member("u1")
		require.True(t, ok, "dev identity joined")
		assert.Equal(t, "r2", m.RoleID, "joiner lands on the last role")

		resp = postJSON(t, srv3.URL+"/api/v1/houses/h7/join", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("SelfFriendRejected", func(t *testing.T) {
		// The dev identity's own comms code.
		resp := postJSON(t, srv.URL+"/api/v1/friends", map[string]string{
			"username":   "Me",
			"comms_code": "RVN-0001",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("PermissionCatalog", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/permissions")
		require.NoError(t, err)
		perms := decode[[]string](t, resp)
		assert.Contains(t, perms, "DELETE_MESSAGES")
		assert.Len(t, perms, 5)
	})
}
