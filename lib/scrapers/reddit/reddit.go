// Package reddit is a read-only client for the discussion forum API,
// consumed for per-artist community engagement metrics. It uses the
// public JSON endpoints and never writes.
package reddit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"versegraph/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/reddit")

var ErrNotFound = fmt.Errorf("subreddit not found")

type ClientOptions struct {
	// UserAgent is mandatory; the API throttles default agents hard.
	UserAgent string `json:"user_agent"`
	BaseUrl   string `json:"base_url"`
	// RequestDelayMs is a fixed sleep between consecutive requests.
	RequestDelayMs int `json:"request_delay_ms"`
}

type Client struct {
	http        *resty.Client
	delay       time.Duration
	lastRequest time.Time
}

func NewClient(opts ClientOptions) *Client {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = "https://www.reddit.com"
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "versegraph/1.0"
	}

	http := resty.New()
	http.SetBaseURL(baseUrl)
	http.SetHeader("user-agent", userAgent)
	http.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(http, "scrapers/reddit/http")

	return &Client{
		http:  http,
		delay: time.Duration(opts.RequestDelayMs) * time.Millisecond,
	}
}

type Subreddit struct {
	Name        string
	Title       string
	Subscribers int64
	ActiveUsers int64
}

type Post struct {
	Id          string
	Title       string
	Score       int64
	NumComments int64
	Subreddit   string
	CreatedUtc  float64
}

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

type aboutResponse struct {
	Data struct {
		DisplayName string `json:"display_name"`
		Title       string `json:"title"`
		Subscribers int64  `json:"subscribers"`
		ActiveUsers int64  `json:"accounts_active"`
	} `json:"data"`
}

// GetSubreddit fetches metadata for one subreddit.
func (c *Client) GetSubreddit(ctx context.Context, name string) (*Subreddit, error) {
	ctx, span := tracer.Start(ctx, "GetSubreddit")
	defer span.End()

	c.throttle()

	var body aboutResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("/r/%s/about.json", name))
	if err != nil {
		return nil, fmt.Errorf("get subreddit: %w", err)
	}
	if res.StatusCode() == 404 {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get subreddit: %s", res.Status())
	}

	return &Subreddit{
		Name:        body.Data.DisplayName,
		Title:       body.Data.Title,
		Subscribers: body.Data.Subscribers,
		ActiveUsers: body.Data.ActiveUsers,
	}, nil
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				Id          string  `json:"id"`
				Title       string  `json:"title"`
				Score       int64   `json:"score"`
				NumComments int64   `json:"num_comments"`
				Subreddit   string  `json:"subreddit"`
				CreatedUtc  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// SearchPosts runs a site-wide post search for a query, typically an
// artist name.
func (c *Client) SearchPosts(ctx context.Context, query string, limit int) ([]Post, error) {
	ctx, span := tracer.Start(ctx, "SearchPosts")
	defer span.End()

	if limit <= 0 {
		limit = 25
	}
	c.throttle()

	var body listingResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     query,
			"sort":  "relevance",
			"limit": strconv.Itoa(limit),
		}).
		SetResult(&body).
		Get("/search.json")
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search posts: %s", res.Status())
	}

	posts := make([]Post, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		posts = append(posts, Post{
			Id:          child.Data.Id,
			Title:       child.Data.Title,
			Score:       child.Data.Score,
			NumComments: child.Data.NumComments,
			Subreddit:   child.Data.Subreddit,
			CreatedUtc:  child.Data.CreatedUtc,
		})
	}
	return posts, nil
}
