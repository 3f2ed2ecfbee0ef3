package tomapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/domain/model"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
)

func TestListTargets_EncodesFilter(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/targets/", r.URL.Path)
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "25", q.Get("page_size"))
		assert.Equal(t, "M31", q.Get("name"))
		assert.Equal(t, "3,9", q.Get("tags"))
		next := 3
		writeJSON(t, w, http.StatusOK, model.Page[model.Target]{
			Count: 60, Next: &next, Current: 2, Total: 3,
			Results: []model.Target{{ID: 31, Name: "M31", RA: 10.68, Dec: 41.27}},
		})
	}))

	page, err := c.WithTokenSource(&fakeTokens{token: "a"}).ListTargets(context.Background(), model.TargetFilter{
		ListOptions: model.ListOptions{Page: 2, PageSize: 25},
		Name:        " M31 ",
		Tags:        []int64{3, 9},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 3, *page.Next)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "M31", page.Results[0].Name)
}

func TestListObservations_EncodesFilter(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2,4", q.Get("status"))
		assert.Equal(t, "7", q.Get("users"))
		writeJSON(t, w, http.StatusOK, model.Page[model.Observation]{Count: 0, Current: 1, Total: 0})
	}))

	page, err := c.WithTokenSource(&fakeTokens{token: "a"}).ListObservations(context.Background(), model.ObservationFilter{
		Status: []model.ObservationStatus{model.ObservationStatus(2), model.ObservationStatus(4)},
		Users:  []int64{7},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

func TestDeleteTargets_SendsIDs(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var body map[string][]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []int64{1, 2}, body["target_ids"])
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "2 targets deleted successfully"})
	}))

	require.NoError(t, c.WithTokenSource(&fakeTokens{token: "a"}).DeleteTargets(context.Background(), []int64{1, 2}))
}

func TestSetUserRole(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/user/12/", r.URL.Path)
		var body model.UserRoleUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 2, body.Role)
		writeJSON(t, w, http.StatusOK, model.User{ID: 12, Username: "deneb", Role: 2})
	}))

	u, err := c.WithTokenSource(&fakeTokens{token: "a"}).SetUserRole(context.Background(), 12, domainauth.RoleFaculty)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Role)
}

func TestCurrentUser_UsesGivenToken(t *testing.T) {
	inactive := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "JWT fixed", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, model.User{
			ID: 5, Username: "altair", Role: 1, Institute: "NCU", IsActive: &inactive,
		})
	}))

	p, err := c.CurrentUser(context.Background(), "fixed")
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.ID)
	assert.Equal(t, domainauth.RoleAdmin, p.Role)
	assert.False(t, p.IsActive)
}

func TestRevokeToken_SendsRefresh(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/logout/", r.URL.Path)
		assert.Equal(t, "JWT a", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "r", body["refresh"])
		writeJSON(t, w, http.StatusOK, map[string]string{"detail": "Successfully logged out."})
	}))

	require.NoError(t, c.RevokeToken(context.Background(), domainauth.Credentials{AccessToken: "a", RefreshToken: "r"}))
}

func TestExchangeSocialToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/oauth/github/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gh-token", body["access_token"])
		writeJSON(t, w, http.StatusOK, map[string]string{"access": "a", "refresh": "r"})
	}))

	creds, err := c.ExchangeSocialToken(context.Background(), "github", "gh-token")
	require.NoError(t, err)
	assert.Equal(t, "a", creds.AccessToken)

	_, err = c.ExchangeSocialToken(context.Background(), "myspace", "x")
	assert.ErrorIs(t, err, domainauth.ErrUnknown)
}

func TestObservationMessages(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /api/observations/4/messages/":
			var message string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&message))
			assert.Equal(t, "seeing is poor tonight", message)
			writeJSON(t, w, http.StatusOK, model.Observation{ID: 4, Comments: []model.Comment{{ID: 11, Context: message}}})
		case "DELETE /api/comments/11/":
			w.WriteHeader(http.StatusNoContent)
		case "POST /api/observations/4/duplicate/":
			writeJSON(t, w, http.StatusOK, model.Observation{ID: 5, Name: "copy"})
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	api := c.WithTokenSource(&fakeTokens{token: "a"})
	ctx := context.Background()

	o, err := api.PostObservationMessage(ctx, 4, "seeing is poor tonight")
	require.NoError(t, err)
	require.Len(t, o.Comments, 1)
	require.NoError(t, api.DeleteComment(ctx, 11))

	dup, err := api.DuplicateObservation(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), dup.ID)
}

func TestTargetLookups(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/targets/31/simbad/":
			_, _ = w.Write([]byte(`{"RA":"00 42 44.330","DEC":"+41 16 07.50","otype":"AGN","flux_V":3.44,"flux_g":null}`))
		case "/api/targets/31/sed/":
			_, _ = w.Write([]byte(`[{"filter":"2MASS:Ks","flux":[1.2],"fluxe":[0.1],"fluxv":[138000],"wavelength":2.16}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	api := c.WithTokenSource(&fakeTokens{token: "a"})

	d, err := api.TargetSimbad(context.Background(), 31)
	require.NoError(t, err)
	assert.Equal(t, "+41 16 07.50", d.Dec)
	require.NotNil(t, d.FluxV)
	assert.InDelta(t, 3.44, *d.FluxV, 1e-9)
	assert.Nil(t, d.FluxSDSSg)

	sed, err := api.TargetSED(context.Background(), 31)
	require.NoError(t, err)
	require.Len(t, sed, 1)
	assert.Equal(t, "2MASS:Ks", sed[0].Filter)
	assert.InDelta(t, 2.16, *sed[0].Wavelength, 1e-9)
}

func TestDeleteAccount(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/user/42/delete/", r.URL.Path)
		writeJSON(t, w, http.StatusForbidden, map[string]string{"detail": "Forbidden"})
	}))

	err := c.WithTokenSource(&fakeTokens{token: "a"}).DeleteAccount(context.Background(), 42)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)
}
