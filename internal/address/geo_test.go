package address

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGeo(t *testing.T) *Geo {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /countries", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":false,"msg":"ok","data":[
			{"country":"Afghanistan","iso2":"AF","iso3":"AFG"},
			{"country":"Egypt","iso2":"EG","iso3":"EGY"}]}`))
	})
	mux.HandleFunc("POST /countries/states", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["country"] != "Egypt" {
			w.Write([]byte(`{"error":true,"msg":"country not found","data":{}}`))
			return
		}
		w.Write([]byte(`{"error":false,"data":{"name":"Egypt","states":[
			{"name":"Alexandria","state_code":"ALX"},{"name":"Cairo","state_code":"C"}]}}`))
	})
	mux.HandleFunc("POST /countries/state/cities", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":false,"data":["Cairo","Heliopolis"]}`))
	})
	mux.HandleFunc("POST /countries/cities", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":false,"data":["Alexandria","Cairo","Giza"]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewGeo(upstream.New("countries", srv.URL, time.Second, quietLogger()))
}

func TestCountries_OneBasedIDs(t *testing.T) {
	countries, err := setupGeo(t).Countries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, Country{ID: 2, Name: "Egypt", ISO2: "EG", ISO3: "EGY"}, countries[1])
}

func TestCountryByName_IgnoresCase(t *testing.T) {
	g := setupGeo(t)

	c, err := g.CountryByName(context.Background(), "eGyPt")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "EG", c.ISO2)

	c, err = g.CountryByName(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestStates(t *testing.T) {
	g := setupGeo(t)

	states, err := g.States(context.Background(), "Egypt")
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, State{ID: 1, Name: "Alexandria", StateCode: "ALX", CountryName: "Egypt"}, states[0])

	_, err = g.States(context.Background(), "Atlantis")
	assert.ErrorContains(t, err, "country not found")
}

func TestCities(t *testing.T) {
	g := setupGeo(t)

	byState, err := g.Cities(context.Background(), "Egypt", "Cairo")
	require.NoError(t, err)
	assert.Equal(t, []City{
		{ID: 1, Name: "Cairo", StateName: "Cairo", CountryName: "Egypt"},
		{ID: 2, Name: "Heliopolis", StateName: "Cairo", CountryName: "Egypt"},
	}, byState)

	byCountry, err := g.Cities(context.Background(), "Egypt", "")
	require.NoError(t, err)
	assert.Len(t, byCountry, 3)
	assert.Empty(t, byCountry[0].StateName)
}
