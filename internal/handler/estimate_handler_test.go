package handler

import (
	"net/http"
	"testing"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "est@example.com")

	t.Run("unknown destination falls back", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/estimates", token, map[string]any{
			"from": "London", "to": "Atlantis, Nowhere", "starRating": "4",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp service.CostBreakdown
		decodeBody(t, rec, &resp)
		assert.True(t, resp.Total.Equal(domain.DefaultEstimatedCost))
	})

	t.Run("known destination", func(t *testing.T) {
		dests := service.NewCostEstimator().Destinations("")
		require.NotEmpty(t, dests)

		rec := s.do(t, http.MethodPost, "/estimates", token, map[string]any{
			"from": "London", "to": dests[0].Label(), "starRating": "3", "transport": "Taxi",
			"flightDetails": map[string]any{"adults": 2, "cabinClass": "economy"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp service.CostBreakdown
		decodeBody(t, rec, &resp)
		require.NotNil(t, resp.Destination)
		assert.True(t, resp.Total.IsPositive())
		assert.Equal(t, "300", resp.Transport.String())
	})

	t.Run("negative passengers", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/estimates", token, map[string]any{
			"to": "Paris, France", "flightDetails": map[string]any{"adults": -1},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListDestinations(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "dest@example.com")

	rec := s.do(t, http.MethodGet, "/destinations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all DestinationListResponse
	decodeBody(t, rec, &all)
	require.NotEmpty(t, all.Destinations)

	continent := all.Destinations[0].Continent
	rec = s.do(t, http.MethodGet, "/destinations?continent="+continent, token, nil)
	var filtered DestinationListResponse
	decodeBody(t, rec, &filtered)
	assert.NotEmpty(t, filtered.Destinations)
	assert.LessOrEqual(t, len(filtered.Destinations), len(all.Destinations))
	for _, d := range filtered.Destinations {
		assert.Equal(t, continent, d.Continent)
	}
}
