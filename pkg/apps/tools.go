package apps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/mdp/qrterminal/v3"

	"github.com/ajirodesu/chaldea/pkg/command"
)

const (
	geocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	forecastURL = "https://api.open-meteo.com/v1/forecast"
)

type weatherCommand struct {
	client *http.Client
}

func (c *weatherCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "weather",
		Description: "Current weather for a place",
		Category:    "tools",
		Cooldown:    5 * time.Second,
		Guide:       []string{"<city>"},
	}
}

type geocodeResult struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResult struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

func (c *weatherCommand) OnStart(ctx context.Context, req *command.Request) error {
	place := strings.Join(req.Args, " ")
	if place == "" {
		return req.Usages(ctx)
	}

	var geo geocodeResult
	query := url.Values{"name": {place}, "count": {"1"}}
	if err := c.getJSON(ctx, geocodeURL+"?"+query.Encode(), &geo); err != nil {
		return err
	}
	if len(geo.Results) == 0 {
		_, err := req.Response.Reply(ctx, fmt.Sprintf("I couldn't find %q.", place), nil)
		return err
	}
	loc := geo.Results[0]

	var forecast forecastResult
	query = url.Values{
		"latitude":  {fmt.Sprintf("%.4f", loc.Latitude)},
		"longitude": {fmt.Sprintf("%.4f", loc.Longitude)},
		"current":   {"temperature_2m,relative_humidity_2m,wind_speed_10m"},
	}
	if err := c.getJSON(ctx, forecastURL+"?"+query.Encode(), &forecast); err != nil {
		return err
	}

	text := fmt.Sprintf("Weather in %s, %s:\nTemperature: %.1f C\nHumidity: %.0f%%\nWind: %.1f km/h",
		loc.Name, loc.Country,
		forecast.Current.Temperature, forecast.Current.Humidity, forecast.Current.WindSpeed)
	_, err := req.Response.Reply(ctx, text, nil)
	return err
}

func (c *weatherCommand) getJSON(ctx context.Context, rawURL string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("weather api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather api: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, out)
}

type qrCommand struct{}

func (c *qrCommand) Meta() command.Meta {
	return command.Meta{
		Name:        "qr",
		Description: "Render text as a QR code",
		Category:    "tools",
		Cooldown:    5 * time.Second,
		Guide:       []string{"<text>"},
	}
}

func (c *qrCommand) OnStart(ctx context.Context, req *command.Request) error {
	text := strings.Join(req.Args, " ")
	if text == "" {
		return req.Usages(ctx)
	}
	if len(text) > 512 {
		_, err := req.Response.Reply(ctx, "That's too long for a QR code here.", nil)
		return err
	}

	var b strings.Builder
	qrterminal.GenerateHalfBlock(text, qrterminal.L, &b)

	_, err := req.Response.Reply(ctx, "<pre>"+b.String()+"</pre>", &command.SendOptions{
		ParseMode: "HTML",
	})
	return err
}
