package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/reliefcoin/reliefcoin-backend/internal/adapter"
)

// QRUploader renders a QR code PNG and publishes it to the image host,
// returning a public URL the beneficiary can open from an SMS.
type QRUploader struct {
	http      adapter.HTTPClient
	uploadURL string
	apiKey    string
	size      int
}

// NewQRUploader creates a QR uploader
func NewQRUploader(http adapter.HTTPClient, uploadURL, apiKey string, size int) *QRUploader {
	if size == 0 {
		size = 256
	}
	return &QRUploader{
		http:      http,
		uploadURL: uploadURL,
		apiKey:    apiKey,
		size:      size,
	}
}

// Upload encodes content as a QR PNG and posts it to the image host.
func (u *QRUploader) Upload(ctx context.Context, content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, u.size)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	headers := map[string]string{
		"Content-Type":  "image/png",
		"Authorization": "Bearer " + u.apiKey,
	}

	respBody, err := u.http.PostForm(ctx, u.uploadURL, headers, bytes.NewReader(png))
	if err != nil {
		return "", fmt.Errorf("failed to upload QR code: %w", err)
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if resp.URL == "" {
		return "", fmt.Errorf("image host returned no URL")
	}

	return resp.URL, nil
}
