// Package cdn stores listing images on an image host and returns the URL and
// public id the listing is keyed by.
package cdn

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/madison-marketplace/internal/apperror"
	"github.com/sakif/madison-marketplace/internal/model"
)

// UploadRequest is one image plus the metadata attached to it.
type UploadRequest struct {
	Image          []byte
	MediaType      string
	Tags           model.TagSet
	Price          *float64
	PickupLocation *string
	SellerEmail    *string
}

// UploadResult is what the host reports back.
type UploadResult struct {
	SecureURL string
	PublicID  string
	CreatedAt time.Time
}

// Uploader is implemented by every image host backend.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// BuildContext renders the key=value metadata string attached to an asset.
// Values are written as given: a value containing '|' or '=' is not escaped.
func BuildContext(req UploadRequest) string {
	parts := []string{
		"alt=" + req.Tags.SpecificItem,
		"caption=" + req.Tags.Description,
	}
	if req.PickupLocation != nil {
		parts = append(parts, "pickup_location="+*req.PickupLocation)
	}
	if req.Price != nil {
		parts = append(parts, "price="+FormatPrice(*req.Price))
	}
	if req.SellerEmail != nil && *req.SellerEmail != "" {
		parts = append(parts, "userEmail="+*req.SellerEmail)
	}
	return strings.Join(parts, "|")
}

// BuildTags renders the comma separated tag list, skipping empty values.
func BuildTags(req UploadRequest) string {
	candidates := []string{req.Tags.MainCategory, req.Tags.Color, req.Tags.Material}
	if req.PickupLocation != nil {
		candidates = append(candidates, *req.PickupLocation)
	}
	if req.Price != nil {
		candidates = append(candidates, FormatPrice(*req.Price))
	}

	tags := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != "" {
			tags = append(tags, c)
		}
	}
	return strings.Join(tags, ",")
}

// FormatPrice prints a price the shortest way that round-trips: 25, 12.5.
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// ListingID strips the folder prefix from a public id:
// "marketplace/abc123" becomes "abc123".
func ListingID(publicID string) string {
	if i := strings.LastIndexByte(publicID, '/'); i >= 0 {
		return publicID[i+1:]
	}
	return publicID
}

func uploadFailed(cause error) error {
	return apperror.Upstream("upload", "Failed to upload image", cause)
}
