// Package storage uploads user media to an external asset host.
package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"jobfinder/internal/models"
)

// AssetStorage stores and removes uploaded media. Implementations must be
// safe for concurrent use.
type AssetStorage interface {
	// Upload stores the content under folder/publicID and returns the
	// public delivery URL. resourceType is "image" or "raw".
	Upload(ctx context.Context, r io.Reader, folder, publicID, resourceType string) (string, error)
	Delete(ctx context.Context, folder, publicID, resourceType string) error
}

// CloudinaryStorage implements AssetStorage against the Cloudinary upload
// API using signed requests.
type CloudinaryStorage struct {
	CloudName  string
	APIKey     string
	APISecret  string
	FolderRoot string

	BaseURL    string
	HTTPClient *http.Client
	now        func() time.Time
}

// NewCloudinaryStorage builds a storage client for the given account.
func NewCloudinaryStorage(cloudName, apiKey, apiSecret, folderRoot string) *CloudinaryStorage {
	return &CloudinaryStorage{
		CloudName:  cloudName,
		APIKey:     apiKey,
		APISecret:  apiSecret,
		FolderRoot: folderRoot,
		BaseURL:    "https://api.cloudinary.com/v1_1",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Configured reports whether account credentials are present.
func (s *CloudinaryStorage) Configured() bool {
	return s != nil && s.CloudName != "" && s.APIKey != "" && s.APISecret != ""
}

// sign computes the request signature: the sorted params joined as a query
// string, concatenated with the API secret, SHA-1 hashed.
func (s *CloudinaryStorage) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	b.WriteString(s.APISecret)
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (s *CloudinaryStorage) folderPath(folder string) string {
	if s.FolderRoot == "" {
		return folder
	}
	return s.FolderRoot + "/" + folder
}

func (s *CloudinaryStorage) Upload(ctx context.Context, r io.Reader, folder, publicID, resourceType string) (string, error) {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	params := map[string]string{
		"folder":    s.folderPath(folder),
		"public_id": publicID,
		"overwrite": "true",
		"timestamp": timestamp,
	}
	signature := s.sign(params)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range params {
		if err := mw.WriteField(k, v); err != nil {
			return "", models.NewInternalError(err)
		}
	}
	if err := mw.WriteField("api_key", s.APIKey); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := mw.WriteField("signature", signature); err != nil {
		return "", models.NewInternalError(err)
	}
	part, err := mw.CreateFormFile("file", publicID)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := mw.Close(); err != nil {
		return "", models.NewInternalError(err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/upload", s.BaseURL, s.CloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", models.NewIntegrationError("Asset upload failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", models.NewIntegrationError("Asset upload failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", models.NewIntegrationError("Asset upload failed",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", models.NewIntegrationError("Asset upload failed", err)
	}
	if result.SecureURL == "" {
		return "", models.NewIntegrationError("Asset upload failed",
			fmt.Errorf("response missing secure_url"))
	}
	return result.SecureURL, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, folder, publicID, resourceType string) error {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	fullID := s.folderPath(folder) + "/" + publicID
	params := map[string]string{
		"public_id": fullID,
		"timestamp": timestamp,
	}
	signature := s.sign(params)

	form := make([]string, 0, len(params)+2)
	for k, v := range params {
		form = append(form, k+"="+v)
	}
	form = append(form, "api_key="+s.APIKey, "signature="+signature)

	endpoint := fmt.Sprintf("%s/%s/%s/destroy", s.BaseURL, s.CloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(strings.Join(form, "&")))
	if err != nil {
		return models.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return models.NewIntegrationError("Asset delete failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.NewIntegrationError("Asset delete failed",
			fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
