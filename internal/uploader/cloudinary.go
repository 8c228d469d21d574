package uploader

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ErrUploadFailed wraps every failure of the attachment store. The send
// path treats it as fatal for the whole operation: no message is
// persisted with a missing image.
var ErrUploadFailed = errors.New("attachment upload failed")

// Uploader stores an attachment and returns a durable URL for it.
type Uploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

// CloudinaryUploader uploads images through Cloudinary's signed upload
// API. data is expected to be a base64 data URI, which the API accepts
// directly as the file parameter.
type CloudinaryUploader struct {
	uploadURL string
	apiKey    string
	apiSecret string
	client    *http.Client
	logger    *zap.Logger
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret string, logger *zap.Logger) *CloudinaryUploader {
	return &CloudinaryUploader{
		uploadURL: fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cloudName),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *CloudinaryUploader) Upload(ctx context.Context, data []byte) (string, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	_ = form.WriteField("file", string(data))
	_ = form.WriteField("api_key", u.apiKey)
	_ = form.WriteField("timestamp", timestamp)
	_ = form.WriteField("signature", u.sign(timestamp))
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		u.logger.Error("cloudinary request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUploadFailed, err)
	}

	if resp.StatusCode != http.StatusOK || parsed.SecureURL == "" {
		u.logger.Error("cloudinary upload rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("message", parsed.Error.Message),
		)
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, parsed.Error.Message)
	}

	u.logger.Debug("attachment uploaded", zap.String("url", parsed.SecureURL))
	return parsed.SecureURL, nil
}

// sign produces the SHA-1 request signature Cloudinary expects over the
// sorted parameter string plus the API secret.
func (u *CloudinaryUploader) sign(timestamp string) string {
	sum := sha1.Sum([]byte("timestamp=" + timestamp + u.apiSecret))
	return hex.EncodeToString(sum[:])
}
