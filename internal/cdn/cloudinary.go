package cdn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// DefaultCloudinaryURL is the public Cloudinary API.
const DefaultCloudinaryURL = "https://api.cloudinary.com"

// Cloudinary uploads through an unsigned upload preset.
type Cloudinary struct {
	BaseURL    string
	CloudName  string
	Preset     string
	Folder     string
	HTTPClient *http.Client
}

// NewCloudinary returns a client for the public API with a 30s timeout.
func NewCloudinary(cloudName, preset, folder string) *Cloudinary {
	return &Cloudinary{
		BaseURL:    DefaultCloudinaryURL,
		CloudName:  cloudName,
		Preset:     preset,
		Folder:     folder,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	CreatedAt string `json:"created_at"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts the image as multipart/form-data. A response without
// secure_url is a failure whatever the status code says.
func (c *Cloudinary) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	body, contentType, err := c.form(req)
	if err != nil {
		return nil, uploadFailed(err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", c.BaseURL, c.CloudName)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, uploadFailed(err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, uploadFailed(fmt.Errorf("cloudinary: request: %w", err))
	}
	defer resp.Body.Close()

	var out cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, uploadFailed(fmt.Errorf("cloudinary: decoding response (status %d): %w", resp.StatusCode, err))
	}
	if out.SecureURL == "" {
		msg := "missing secure_url"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, uploadFailed(fmt.Errorf("cloudinary: status %d: %s", resp.StatusCode, msg))
	}

	created, err := time.Parse(time.RFC3339, out.CreatedAt)
	if err != nil {
		created = time.Now().UTC()
	}
	return &UploadResult{SecureURL: out.SecureURL, PublicID: out.PublicID, CreatedAt: created}, nil
}

func (c *Cloudinary) form(req UploadRequest) (*bytes.Buffer, string, error) {
	if len(req.Image) == 0 {
		return nil, "", errors.New("cloudinary: empty image")
	}
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="blob"`)
	h.Set("Content-Type", mediaType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"upload_preset", c.Preset},
		{"context", BuildContext(req)},
		{"tags", BuildTags(req)},
	}
	if c.Folder != "" {
		fields = append(fields, [2]string{"folder", c.Folder})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
