package solarwinds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New("", "user", "pass", nil)
	assert.Error(t, err)

	_, err = New("orion.example.com", "", "", nil)
	assert.Error(t, err)

	c, err := New("orion.example.com", "user", "pass", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://orion.example.com:17778/SolarWinds/InformationService/v3/Json/", c.baseURL)
}

func TestFlaggedNodes(t *testing.T) {
	var gotBody struct {
		Query      string         `json:"query"`
		Parameters map[string]any `json:"parameters"`
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/SolarWinds/InformationService/v3/Json/Query", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [
			{"NodeID": 1042, "Caption": "edge01", "IPAddress": "203.0.113.7"},
			{"NodeID": 1043, "Caption": "edge02", "IPAddress": "10.1.2.3"}
		]}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL, "admin", "secret", ts.Client())
	require.NoError(t, err)

	nodes, err := c.FlaggedNodes(context.Background(), "TE_Monitor")
	require.NoError(t, err)

	require.Len(t, nodes, 2)
	assert.Equal(t, 1042, nodes[0].ID)
	assert.Equal(t, "edge01", nodes[0].Caption)
	assert.Equal(t, "203.0.113.7", nodes[0].IPAddress)

	assert.Contains(t, gotBody.Query, "CustomProperties.TE_Monitor = TRUE")
}

func TestFlaggedNodesRejectsBadPropertyName(t *testing.T) {
	c, err := New("orion.example.com", "admin", "secret", nil)
	require.NoError(t, err)

	for _, property := range []string{"", "bad property", "x; DELETE", "café"} {
		_, err := c.FlaggedNodes(context.Background(), property)
		assert.Error(t, err, "property %q", property)
	}
}

func TestQueryErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer ts.Close()

	c, err := New(ts.URL, "admin", "wrong", ts.Client())
	require.NoError(t, err)

	err = c.Status(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 401")
	assert.ErrorContains(t, err, "bad credentials")
}

func TestQueryParameters(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Parameters map[string]any `json:"parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1042), body.Parameters["id"])

		w.Write([]byte(`{"results": [{"Uri": "swis://x"}]}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL, "admin", "secret", ts.Client())
	require.NoError(t, err)

	var rows []struct {
		URI string `json:"Uri"`
	}
	err = c.Query(context.Background(),
		"SELECT Uri FROM Orion.Nodes WHERE NodeID=@id",
		map[string]any{"id": 1042}, &rows)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "swis://x", rows[0].URI)
}
