package imgbb

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const defaultEndpoint = "https://api.imgbb.com/1/upload"

// Client uploads images to ImgBB.
type Client struct {
	APIKey   string
	Endpoint string
	HTTP     *http.Client
}

// New creates an ImgBB client.
func New(apiKey string) *Client {
	return &Client{
		APIKey:   apiKey,
		Endpoint: defaultEndpoint,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

type response struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends image as base64 and returns the hosted URL. ImgBB has no
// folders, so only the base name of name is kept.
func (c *Client) Upload(ctx context.Context, name string, image []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("image", base64.StdEncoding.EncodeToString(image))
	if base := strings.TrimSuffix(path.Base(name), path.Ext(name)); base != "" && base != "." {
		_ = w.WriteField("name", base)
	}
	w.Close()

	endpoint := c.Endpoint + "?key=" + url.QueryEscape(c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("imgbb: create request failed: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgbb: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("imgbb: decode response failed (%d): %w", resp.StatusCode, err)
	}
	if !out.Success || resp.StatusCode >= 300 {
		msg := out.Error.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return "", fmt.Errorf("imgbb: upload failed (%d): %s", resp.StatusCode, msg)
	}
	return out.Data.URL, nil
}
