package gcs

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type serviceAccountInfo struct {
	clientEmail string
	privateKey  *rsa.PrivateKey
}

// SignedURL produces a time-limited PUT URL for direct client uploads.
// Requires service-account credentials; metadata tokens cannot sign.
func (c *Client) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	if contentType == "" {
		return "", errors.New("content type is required")
	}
	return c.sign(http.MethodPut, bucket, object, contentType, expires)
}

// SignedReadURL produces a time-limited GET URL for serving stored objects.
func (c *Client) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	return c.sign(http.MethodGet, bucket, object, "", expires)
}

func (c *Client) sign(method, bucket, object, contentType string, expires time.Duration) (string, error) {
	if c == nil || c.serviceAccount == nil || c.serviceAccount.privateKey == nil {
		return "", errors.New("gcs signing requires service account credentials")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if bucket == "" {
		return "", errors.New("gcs bucket is required")
	}
	if object == "" {
		return "", errors.New("gcs object is required")
	}
	if expires <= 0 {
		return "", errors.New("expiry must be positive")
	}

	expiration := time.Now().Add(expires).Unix()
	data := method + "\n\n" + contentType + "\n" + strconv.FormatInt(expiration, 10) + "\n/" + bucket + "/" + object
	hash := sha256.Sum256([]byte(data))
	signature, err := rsa.SignPKCS1v15(rand.Reader, c.serviceAccount.privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("signing url: %w", err)
	}

	values := url.Values{}
	values.Set("GoogleAccessId", c.serviceAccount.clientEmail)
	values.Set("Expires", strconv.FormatInt(expiration, 10))
	values.Set("Signature", base64.StdEncoding.EncodeToString(signature))

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s?%s", bucket, object, values.Encode()), nil
}

// DeleteObject removes an object. A missing object is treated as deleted.
func (c *Client) DeleteObject(ctx context.Context, bucket, object string) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if bucket == "" {
		return errors.New("gcs bucket is required")
	}
	if object == "" {
		return errors.New("gcs object is required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/storage/v1/b/%s/o/%s",
		url.PathEscape(bucket),
		url.PathEscape(object),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("gcs delete returned %s", resp.Status)
	}
}
