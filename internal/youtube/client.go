// Package youtube is a small client for the YouTube Data API v3 limited to
// what the catalog and search need.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/youruser/mydozlesha/internal/retry"
	"github.com/youruser/mydozlesha/internal/util"
	"github.com/youruser/mydozlesha/internal/videos"
)

const (
	DefaultBaseURL   = "https://www.googleapis.com/youtube/v3"
	DefaultChannelID = "UCj4PjeVMnNTHIR5EeoNKPAw"
	DefaultPageDelay = 200 * time.Millisecond

	pageSize = 50
)

var (
	ErrNoAPIKey  = errors.New("youtube api key not configured")
	ErrNoChannel = errors.New("channel not found")
)

// APIError is the error object the Data API returns.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube api: %d %s", e.Code, e.Message)
}

type Client struct {
	HTTP      *http.Client
	Key       string
	ChannelID string
	BaseURL   string
	PageDelay time.Duration
	Retry     retry.Config
	Log       *slog.Logger
}

func New(key, channelID string, client *http.Client, log *slog.Logger) *Client {
	if channelID == "" {
		channelID = DefaultChannelID
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		HTTP:      client,
		Key:       key,
		ChannelID: channelID,
		BaseURL:   DefaultBaseURL,
		PageDelay: DefaultPageDelay,
		Retry:     retry.DefaultConfig(),
		Log:       log,
	}
}

// Enabled reports whether the client has a key to call the API with.
func (c *Client) Enabled() bool { return c.Key != "" }

type thumbnails struct {
	Medium *struct {
		URL string `json:"url"`
	} `json:"medium"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string     `json:"title"`
			PublishedAt time.Time  `json:"publishedAt"`
			Thumbnails  thumbnails `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type channelsResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title       string     `json:"title"`
			PublishedAt time.Time  `json:"publishedAt"`
			Thumbnails  thumbnails `json:"thumbnails"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

func thumbnail(t thumbnails, videoID string) string {
	if t.Medium != nil && t.Medium.URL != "" {
		return t.Medium.URL
	}
	return videos.DefaultThumbnail(videoID)
}

// Search finds channel videos matching q, most relevant first. Search
// results carry HTML-escaped titles; they are unescaped here.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]videos.Video, error) {
	if limit <= 0 || limit > pageSize {
		limit = videos.DefaultLimit
	}
	var resp searchResponse
	err := c.get(ctx, "search", url.Values{
		"part":       {"snippet"},
		"q":          {q},
		"channelId":  {c.ChannelID},
		"type":       {"video"},
		"maxResults": {fmt.Sprint(limit)},
		"order":      {"relevance"},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]videos.Video, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID == "" {
			continue
		}
		out = append(out, videos.Video{
			VideoID:     it.ID.VideoID,
			Title:       html.UnescapeString(it.Snippet.Title),
			Thumbnail:   thumbnail(it.Snippet.Thumbnails, it.ID.VideoID),
			PublishedAt: it.Snippet.PublishedAt,
		})
	}
	return out, nil
}

// UploadsPlaylistID returns the id of the channel's uploads playlist.
func (c *Client) UploadsPlaylistID(ctx context.Context) (string, error) {
	var resp channelsResponse
	err := c.get(ctx, "channels", url.Values{
		"part": {"contentDetails"},
		"id":   {c.ChannelID},
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("%w: %s", ErrNoChannel, c.ChannelID)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// ListUploads pages through the uploads playlist and keeps videos published
// at or after the given time. When a page fails it returns the videos
// collected so far together with the error.
func (c *Client) ListUploads(ctx context.Context, after time.Time) ([]videos.Video, error) {
	playlistID, err := c.UploadsPlaylistID(ctx)
	if err != nil {
		return nil, err
	}

	all := []videos.Video{}
	pageToken := ""
	for page := 1; ; page++ {
		params := url.Values{
			"part":       {"snippet"},
			"playlistId": {playlistID},
			"maxResults": {fmt.Sprint(pageSize)},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var resp playlistItemsResponse
		if err := c.get(ctx, "playlistItems", params, &resp); err != nil {
			return all, fmt.Errorf("page %d: %w", page, err)
		}
		for _, it := range resp.Items {
			id := it.Snippet.ResourceID.VideoID
			if id == "" || it.Snippet.PublishedAt.Before(after) {
				continue
			}
			all = append(all, videos.Video{
				VideoID:     id,
				Title:       it.Snippet.Title,
				Thumbnail:   thumbnail(it.Snippet.Thumbnails, id),
				PublishedAt: it.Snippet.PublishedAt,
			})
		}
		c.Log.InfoContext(ctx, "uploads page fetched",
			slog.Int("page", page),
			slog.Int("items", len(resp.Items)),
			slog.Int("total", len(all)),
		)

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return all, nil
		}
		if err := sleep(ctx, c.PageDelay); err != nil {
			return all, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if !c.Enabled() {
		return ErrNoAPIKey
	}
	params.Set("key", c.Key)
	u := c.BaseURL + "/" + endpoint + "?" + params.Encode()

	var body []byte
	err := retry.Do(ctx, c.Log, "youtube "+endpoint, func() error {
		b, err := util.GetBytes(ctx, c.HTTP, u)
		if err != nil {
			var se *util.StatusError
			if errors.As(err, &se) {
				if apiErr := decodeError(se.Body); apiErr != nil {
					if se.Transient() {
						return apiErr
					}
					return retry.Permanent(apiErr)
				}
				if !se.Transient() {
					return retry.Permanent(err)
				}
			}
			return err
		}
		body = b
		return nil
	}, c.Retry)
	if err != nil {
		return err
	}

	if apiErr := decodeError(body); apiErr != nil {
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func decodeError(body []byte) *APIError {
	var env struct {
		Error *APIError `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return nil
	}
	return env.Error
}
