package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/madison-marketplace/internal/apperror"
	"github.com/sakif/madison-marketplace/internal/cdn"
	"github.com/sakif/madison-marketplace/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory stand-ins for the repositories and upstream clients. Each one
// can be told to fail so the error paths are reachable without a network.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[u.Email]; ok {
		return apperror.Conflict("user", u.Email)
	}
	u.CreatedAt = time.Now()
	f.users[u.Email] = *u
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	return &u, nil
}

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]model.Listing

	createErr  error
	recentErr  error
	allErr     error
	markErr    error
	unsoldErr  error
	allCalls   int
	lastLimits []int
}

func newFakeListingRepo(listings ...model.Listing) *fakeListingRepo {
	f := &fakeListingRepo{listings: make(map[string]model.Listing)}
	for _, l := range listings {
		f.listings[l.ID] = l
	}
	return f
}

func (f *fakeListingRepo) sorted() []model.Listing {
	out := make([]model.Listing, 0, len(f.listings))
	for _, l := range f.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeListingRepo) Create(_ context.Context, l *model.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.listings[l.ID]; ok {
		return apperror.Conflict("listing", l.ID)
	}
	f.listings[l.ID] = *l
	return nil
}

func (f *fakeListingRepo) GetByID(_ context.Context, id string) (*model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, apperror.NotFound("listing", id)
	}
	return &l, nil
}

func (f *fakeListingRepo) ListUnsold(context.Context) ([]model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unsoldErr != nil {
		return nil, f.unsoldErr
	}
	out := []model.Listing{}
	for _, l := range f.sorted() {
		if !l.Sold {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeListingRepo) ListRecent(_ context.Context, limit int) ([]model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimits = append(f.lastLimits, limit)
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := f.sorted()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeListingRepo) ListAll(_ context.Context, limit int) ([]model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	f.lastLimits = append(f.lastLimits, limit)
	if f.allErr != nil {
		return nil, f.allErr
	}
	out := f.sorted()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeListingRepo) MarkSold(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	l, ok := f.listings[id]
	if !ok {
		return apperror.NotFound("listing", id)
	}
	l.Sold = true
	f.listings[id] = l
	return nil
}

type fakeTagger struct {
	tags  *model.TagSet
	err   error
	calls int
}

func (f *fakeTagger) Tag(context.Context, []byte, string) (*model.TagSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	t := *f.tags
	return &t, nil
}

type fakeUploader struct {
	result *cdn.UploadResult
	err    error
	got    *cdn.UploadRequest
}

func (f *fakeUploader) Upload(_ context.Context, req cdn.UploadRequest) (*cdn.UploadResult, error) {
	f.got = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

var errDBDown = errors.New("db down")
