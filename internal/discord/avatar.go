package discord

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kapu/gpt-discord-bot-go/internal/constants"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

// AvatarFetcher downloads webhook avatar images and encodes them as the data
// URI Discord expects in the create-webhook payload.
type AvatarFetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

func NewAvatarFetcher(httpClient *http.Client) *AvatarFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.HTTPConfig.AvatarTimeout}
	}
	return &AvatarFetcher{
		httpClient: httpClient,
		maxBytes:   constants.DiscordLimits.AvatarMaxBytes,
	}
}

func (f *AvatarFetcher) DataURI(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.NewAPIError("failed to create avatar request", 400, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	req.Header.Set("User-Agent", constants.HTTPConfig.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", errors.NewAPIError("avatar request failed", 502, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.NewAPIError(fmt.Sprintf("avatar download failed: %s", resp.Status), resp.StatusCode, map[string]any{
			"url": url,
		})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", errors.NewAPIError("failed to read avatar", 502, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	if int64(len(data)) > f.maxBytes {
		return "", errors.NewAPIError("avatar too large", 413, map[string]any{
			"url":   url,
			"limit": f.maxBytes,
		})
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", errors.NewAPIError("avatar is not an image", 415, map[string]any{
			"url":          url,
			"content_type": contentType,
		})
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
