package censusdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/landscout/internal/domain/model"
)

func TestFetchTracts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tracts", r.URL.Path)
		assert.Equal(t, "-74.100000,40.600000,-73.900000,40.800000", r.URL.Query().Get("bbox"))
		_, _ = w.Write([]byte(`{
			"tracts": [
				{
					"tract_id": "36061000100",
					"median_income": 68500,
					"population": 3200,
					"geometry": [[40.61, -74.05], [40.62, -74.04]]
				},
				{"tract_id": "36061000200", "median_income": 91200, "population": 1450}
			]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	tracts, err := client.FetchTracts(context.Background(), model.BoundingBox{
		MinLat: 40.6, MinLng: -74.1, MaxLat: 40.8, MaxLng: -73.9,
	})
	require.NoError(t, err)
	require.Len(t, tracts, 2)
	assert.Equal(t, "36061000100", tracts[0].TractID)
	assert.InDelta(t, 68500, tracts[0].MedianIncome, 1e-9)
	require.Len(t, tracts[0].Geometry, 2)
	assert.InDelta(t, 40.61, tracts[0].Geometry[0].Lat, 1e-9)
	assert.Empty(t, tracts[1].Geometry)
}

func TestFetchTractsInvalidBox(t *testing.T) {
	t.Parallel()

	client, err := NewClient(ClientOptions{BaseURL: "http://unused.invalid"})
	require.NoError(t, err)

	_, err = client.FetchTracts(context.Background(), model.BoundingBox{
		MinLat: 41, MinLng: -74, MaxLat: 40, MaxLng: -73,
	})
	assert.Error(t, err)
}

func TestFetchTractsServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.FetchTracts(context.Background(), model.BoundingBox{
		MinLat: 40, MinLng: -74, MaxLat: 41, MaxLng: -73,
	})
	assert.ErrorIs(t, err, ErrCensusStatus)
}
