package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/madison-marketplace/internal/model"
	"github.com/sakif/madison-marketplace/internal/service"
)

// ListingHandler serves uploads and catalog reads.
type ListingHandler struct {
	svc    *service.ListingService
	logger *slog.Logger
}

func NewListingHandler(svc *service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, logger: logger}
}

type createListingRequest struct {
	Image          string        `json:"image"`
	MediaType      string        `json:"mediaType"`
	Tags           *model.TagSet `json:"tags"`
	Price          *float64      `json:"price"`
	PickupLocation *string       `json:"pickupLocation"`
	UserEmail      *string       `json:"userEmail"`
}

// CreateListingResponse is returned by a successful upload.
type CreateListingResponse struct {
	URL      string         `json:"url"`
	PublicID string         `json:"publicId"`
	Listing  *model.Listing `json:"listing"`
}

// HandleCreate runs the upload pipeline.
//
// HTTP: POST /listings
// REQUEST BODY: {"image": "<base64>", "tags": {...}?, "price": 25?, "pickupLocation": "..."?, "userEmail": "..."?}
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.svc.Create(r.Context(), service.ListingInput{
		Image:          req.Image,
		MediaType:      req.MediaType,
		Tags:           req.Tags,
		Price:          req.Price,
		PickupLocation: req.PickupLocation,
		SellerEmail:    req.UserEmail,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateListingResponse{
		URL:      res.URL,
		PublicID: res.PublicID,
		Listing:  res.Listing,
	})
}

type tagsRequest struct {
	Image     string `json:"image"`
	MediaType string `json:"mediaType"`
}

// HandleTags describes an image without storing anything, for the
// "Regenerate Tags" button.
//
// HTTP: POST /listings/tags
func (h *ListingHandler) HandleTags(w http.ResponseWriter, r *http.Request) {
	var req tagsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	image, mediaType, err := service.DecodeImage(req.Image, req.MediaType)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	tags, err := h.svc.GenerateTags(r.Context(), image, mediaType)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.TagSet{"tags": tags})
}

// HandleGet returns one listing.
//
// HTTP: GET /listings/{id}
func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

type soldRequest struct {
	ItemID string `json:"itemId"`
}

// HandleSold marks a listing sold. The path id wins; the body's itemId is
// accepted for older clients that post to a fixed URL.
//
// HTTP: POST /listings/{id}/sold
func (h *ListingHandler) HandleSold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req soldRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	if id == "" {
		id = req.ItemID
	}

	if err := h.svc.MarkSold(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// HandleSearch returns unsold listings whose categories match q.
//
// HTTP: GET /search?q=term
func (h *ListingHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// HandleBrowse filters unsold listings by tag.
//
// HTTP: GET /browse?tag=furniture&tag=books&exclude=true
func (h *ListingHandler) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var tags []string
	for _, t := range q["tag"] {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	exclude, _ := strconv.ParseBool(q.Get("exclude"))

	listings, err := h.svc.Browse(r.Context(), tags, exclude)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}
