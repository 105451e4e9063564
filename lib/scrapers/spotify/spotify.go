// Package spotify is a read-only client for the streaming metadata API.
// It covers the two endpoints the enrichment pipeline consumes: track
// search and per-track audio features.
package spotify

import (
	"context"
	"fmt"
	"time"

	"versegraph/lib/restyutil"
	"versegraph/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/spotify")

var ErrNotFound = fmt.Errorf("no match found")

type ClientOptions struct {
	ClientId     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	// BaseUrl and AuthUrl exist so tests can point the client at a local
	// server. They default to the public API endpoints.
	BaseUrl string `json:"base_url"`
	AuthUrl string `json:"auth_url"`
	// RequestDelayMs is a fixed sleep between consecutive requests. Rate
	// limiting is delay-based only; there is no adaptive backoff.
	RequestDelayMs int `json:"request_delay_ms"`
}

type Client struct {
	http *resty.Client
	auth *resty.Client

	clientId     string
	clientSecret string
	delay        time.Duration

	token       string
	tokenExpiry time.Time
	lastRequest time.Time
}

func NewClient(opts ClientOptions) *Client {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = "https://api.spotify.com"
	}
	authUrl := opts.AuthUrl
	if authUrl == "" {
		authUrl = "https://accounts.spotify.com"
	}

	http := resty.New()
	http.SetBaseURL(baseUrl)
	http.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(http, "scrapers/spotify/http")

	auth := resty.New()
	auth.SetBaseURL(authUrl)
	auth.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(auth, "scrapers/spotify/auth")

	return &Client{
		http:         http,
		auth:         auth,
		clientId:     opts.ClientId,
		clientSecret: opts.ClientSecret,
		delay:        time.Duration(opts.RequestDelayMs) * time.Millisecond,
	}
}

func (c *Client) SetInstrumentOutput(output restyutil.InstrumentOutput) {
	restyutil.InstrumentDebug(c.http, output)
}

type Track struct {
	Id         string
	Name       string
	Album      string
	Artists    []string
	Popularity int
}

// AudioFeatures mirrors the API's audio analysis summary. All confidence
// style values are in [0, 1]; Tempo is in BPM and Loudness in dB.
type AudioFeatures struct {
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	Loudness         float64 `json:"loudness"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	ctx, span := tracer.Start(ctx, "ensureToken")
	defer span.End()

	var token tokenResponse
	res, err := c.auth.R().
		SetContext(ctx).
		SetBasicAuth(c.clientId, c.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&token).
		Post("/api/token")
	if err != nil {
		return fmt.Errorf("request token: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("request token: %s", res.Status())
	}

	c.token = token.AccessToken
	// refresh a minute early so in-flight batches never race expiry
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return nil
}

// throttle enforces the fixed inter-request delay. Requests are strictly
// sequential so a plain timestamp is enough.
func (c *Client) throttle() {
	if c.delay <= 0 {
		return
	}
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.delay {
		time.Sleep(c.delay - elapsed)
	}
	c.lastRequest = time.Now()
}

type searchResponse struct {
	Tracks struct {
		Items []struct {
			Id    string `json:"id"`
			Name  string `json:"name"`
			Album struct {
				Name string `json:"name"`
			} `json:"album"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Popularity int `json:"popularity"`
		} `json:"items"`
	} `json:"tracks"`
}

// SearchTracks queries the catalog for candidate tracks matching a title
// and album. It returns the raw candidates; picking the best match is the
// caller's concern.
func (c *Client) SearchTracks(ctx context.Context, title, album string) ([]Track, error) {
	ctx, span := tracer.Start(ctx, "SearchTracks")
	defer span.End()

	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}
	c.throttle()

	var body searchResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		SetQueryParams(map[string]string{
			"q":     fmt.Sprintf("track:%s album:%s", title, album),
			"type":  "track",
			"limit": "10",
		}).
		SetResult(&body).
		Get("/v1/search")
	if err != nil {
		return nil, fmt.Errorf("search tracks: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search tracks: %s", res.Status())
	}

	tracks := make([]Track, 0, len(body.Tracks.Items))
	for _, item := range body.Tracks.Items {
		track := Track{
			Id:         item.Id,
			Name:       item.Name,
			Album:      item.Album.Name,
			Popularity: item.Popularity,
		}
		for _, artist := range item.Artists {
			track.Artists = append(track.Artists, artist.Name)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// GetAudioFeatures fetches the audio feature summary for one track.
// Returns ErrNotFound when the catalog has no analysis for the track.
func (c *Client) GetAudioFeatures(ctx context.Context, trackId string) (*AudioFeatures, error) {
	ctx, span := tracer.Start(ctx, "GetAudioFeatures")
	defer span.End()

	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}
	c.throttle()

	var features AudioFeatures
	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		SetResult(&features).
		Get(fmt.Sprintf("/v1/audio-features/%s", trackId))
	if err != nil {
		return nil, fmt.Errorf("get audio features: %w", err)
	}
	if res.StatusCode() == 404 {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get audio features: %s", res.Status())
	}
	return &features, nil
}
