package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/upstream"
)

type Country struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	ISO2 string `json:"iso2"`
	ISO3 string `json:"iso3"`
}

type State struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	StateCode   string `json:"state_code"`
	CountryName string `json:"country_name"`
}

type City struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	StateName   string `json:"state_name,omitempty"`
	CountryName string `json:"country_name"`
}

// Geo looks up countries, states and cities on countriesnow.space.
// Returned ids are 1-based positions in the upstream listing.
type Geo struct {
	client *upstream.Client
}

func NewGeo(client *upstream.Client) *Geo {
	return &Geo{client: client}
}

type countriesResponse struct {
	Error bool   `json:"error"`
	Msg   string `json:"msg"`
	Data  []struct {
		Country string `json:"country"`
		ISO2    string `json:"iso2"`
		ISO3    string `json:"iso3"`
	} `json:"data"`
}

type statesResponse struct {
	Error bool   `json:"error"`
	Msg   string `json:"msg"`
	Data  struct {
		States []struct {
			Name      string `json:"name"`
			StateCode string `json:"state_code"`
		} `json:"states"`
	} `json:"data"`
}

type citiesResponse struct {
	Error bool     `json:"error"`
	Msg   string   `json:"msg"`
	Data  []string `json:"data"`
}

func (g *Geo) Countries(ctx context.Context) ([]Country, error) {
	var resp countriesResponse
	if err := g.client.GetJSON(ctx, "countries", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error {
		return nil, fmt.Errorf("countries lookup failed: %s", resp.Msg)
	}
	out := make([]Country, 0, len(resp.Data))
	for i, c := range resp.Data {
		out = append(out, Country{ID: i + 1, Name: c.Country, ISO2: c.ISO2, ISO3: c.ISO3})
	}
	return out, nil
}

// CountryByName finds a country ignoring case. It returns nil when absent.
func (g *Geo) CountryByName(ctx context.Context, name string) (*Country, error) {
	countries, err := g.Countries(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range countries {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, nil
}

func (g *Geo) States(ctx context.Context, country string) ([]State, error) {
	var resp statesResponse
	body := map[string]string{"country": country}
	if err := g.client.PostJSON(ctx, "countries/states", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error {
		return nil, fmt.Errorf("states lookup failed: %s", resp.Msg)
	}
	out := make([]State, 0, len(resp.Data.States))
	for i, s := range resp.Data.States {
		out = append(out, State{ID: i + 1, Name: s.Name, StateCode: s.StateCode, CountryName: country})
	}
	return out, nil
}

// Cities lists the cities of state, or of the whole country when state is
// empty.
func (g *Geo) Cities(ctx context.Context, country, state string) ([]City, error) {
	var resp citiesResponse
	var err error
	if state != "" {
		err = g.client.PostJSON(ctx, "countries/state/cities", map[string]string{"country": country, "state": state}, &resp)
	} else {
		err = g.client.PostJSON(ctx, "countries/cities", map[string]string{"country": country}, &resp)
	}
	if err != nil {
		return nil, err
	}
	if resp.Error {
		return nil, fmt.Errorf("cities lookup failed: %s", resp.Msg)
	}
	out := make([]City, 0, len(resp.Data))
	for i, name := range resp.Data {
		out = append(out, City{ID: i + 1, Name: name, StateName: state, CountryName: country})
	}
	return out, nil
}
