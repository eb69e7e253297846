package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTemperature is assumed whenever the weather lookup fails; the water
// goal then gets no temperature surcharge.
const DefaultTemperature = 20.0

// WeatherAPI resolves the current temperature for a city.
type WeatherAPI interface {
	CurrentTemperature(ctx context.Context, city string) float64
}

// OpenMeteoService geocodes a city name and reads the current temperature
// from Open-Meteo. Both endpoints are free and keyless.
type OpenMeteoService struct {
	geocodingURL string
	forecastURL  string
	client       *http.Client
	log          *logrus.Logger
}

func NewOpenMeteoService(log *logrus.Logger) *OpenMeteoService {
	return &OpenMeteoService{
		geocodingURL: "https://geocoding-api.open-meteo.com/v1/search",
		forecastURL:  "https://api.open-meteo.com/v1/forecast",
		client:       &http.Client{Timeout: 10 * time.Second},
		log:          log,
	}
}

func (s *OpenMeteoService) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("open-meteo status %d", resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}

// CurrentTemperature never fails: lookup misses and network errors degrade
// to DefaultTemperature so profile setup can always finish.
func (s *OpenMeteoService) CurrentTemperature(ctx context.Context, city string) float64 {
	var geo struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	geoURL := fmt.Sprintf("%s?name=%s&count=1&format=json", s.geocodingURL, url.QueryEscape(city))
	if err := s.getJSON(ctx, geoURL, &geo); err != nil {
		s.log.WithError(err).WithField("city", city).Warn("geocoding failed, using default temperature")
		return DefaultTemperature
	}
	if len(geo.Results) == 0 {
		s.log.WithField("city", city).Info("city not found, using default temperature")
		return DefaultTemperature
	}

	var weather struct {
		CurrentWeather struct {
			Temperature *float64 `json:"temperature"`
		} `json:"current_weather"`
	}
	wURL := fmt.Sprintf("%s?latitude=%f&longitude=%f&current_weather=true&timezone=auto",
		s.forecastURL, geo.Results[0].Latitude, geo.Results[0].Longitude)
	if err := s.getJSON(ctx, wURL, &weather); err != nil {
		s.log.WithError(err).WithField("city", city).Warn("weather lookup failed, using default temperature")
		return DefaultTemperature
	}
	if weather.CurrentWeather.Temperature == nil {
		return DefaultTemperature
	}
	return *weather.CurrentWeather.Temperature
}
