package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gojek/heimdall/v7/httpclient"
)

const (
	GEOCODING_API_BASE_URL = "https://geocoding-api.open-meteo.com/v1"
	FORECAST_API_BASE_URL  = "https://api.open-meteo.com/v1"
)

// ServiceWeather resolves a best-effort weather label for a place name.
// Journey saves call it only to fill an empty weather field; every failure
// here is swallowed by the caller.
type ServiceWeather struct {
	client          *httpclient.Client
	geocodingURL    string
	forecastBaseURL string
}

func NewServiceWeather() (*ServiceWeather, error) {
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(5*time.Second),
		httpclient.WithRetryCount(2),
	)

	return &ServiceWeather{client, GEOCODING_API_BASE_URL, FORECAST_API_BASE_URL}, nil
}

type geocodingResp struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResp struct {
	CurrentWeather struct {
		WeatherCode int `json:"weathercode"`
	} `json:"current_weather"`
}

func (service *ServiceWeather) CurrentByPlace(ctx context.Context, placeName string) (string, error) {
	resp, err := service.client.Get(
		fmt.Sprintf("%s/search?name=%s&count=1", service.geocodingURL, url.QueryEscape(placeName)),
		http.Header{},
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var geo geocodingResp
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return "", err
	}
	if len(geo.Results) == 0 {
		return "", errors.New("place not found")
	}

	resp, err = service.client.Get(
		fmt.Sprintf("%s/forecast?latitude=%f&longitude=%f&current_weather=true",
			service.forecastBaseURL, geo.Results[0].Latitude, geo.Results[0].Longitude),
		http.Header{},
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var forecast forecastResp
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return "", err
	}

	return weatherLabel(forecast.CurrentWeather.WeatherCode), nil
}

// WMO weather interpretation codes, collapsed to the labels journey cards show.
func weatherLabel(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 3:
		return "cloudy"
	case code <= 48:
		return "fog"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "showers"
	case code <= 86:
		return "snow"
	default:
		return "thunderstorm"
	}
}
