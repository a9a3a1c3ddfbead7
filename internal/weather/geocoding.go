// In file: internal/weather/geocoding.go
package weather

import (
	"context"
	"net/url"
	"strconv"
)

// Coordinates is a resolved place. It is never cached.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinates) values() url.Values {
	v := url.Values{}
	v.Set("latitude", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	v.Set("longitude", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	return v
}

// Resolve maps a place name to the coordinates of the geocoder's best match.
func (c *Client) Resolve(ctx context.Context, place string) (Coordinates, error) {
	params := url.Values{}
	params.Set("name", place)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	body, err := c.fetch(ctx, c.cfg.GeocodingURL, params)
	if err != nil {
		return Coordinates{}, err
	}

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Country   string  `json:"country"`
		} `json:"results"`
	}
	if err := decodeBody(c.cfg.GeocodingURL, body, &payload); err != nil {
		return Coordinates{}, err
	}
	if len(payload.Results) == 0 {
		return Coordinates{}, &LocationNotFoundError{Location: place}
	}

	best := payload.Results[0]
	c.logger.Debug("Resolved location", map[string]interface{}{
		"location": place,
		"match":    best.Name,
		"country":  best.Country,
		"lat":      best.Latitude,
		"lon":      best.Longitude,
	})
	return Coordinates{Latitude: best.Latitude, Longitude: best.Longitude}, nil
}
