package remote

import (
	"context"
	"net/url"

	"github.com/tbourn/go-movies-backend/internal/apperrors"
	"github.com/tbourn/go-movies-backend/internal/domain"
)

// ReviewsNotFoundPrefix starts the message of a 404 from the reviews backend.
const ReviewsNotFoundPrefix = "There are no Reviews Available for the passed in movieInfoId : "

// ReviewsClient reads reviews from GET {base}?movieInfoId={id}.
type ReviewsClient struct {
	*Client
}

// NewReviewsClient wraps a Client built from opts.
func NewReviewsClient(opts Options) (*ReviewsClient, error) {
	if opts.Name == "" {
		opts.Name = "reviews"
	}
	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	return &ReviewsClient{Client: c}, nil
}

// RetrieveReviews fetches the reviews of movieInfoID in backend order. The
// result is never nil.
func (c *ReviewsClient) RetrieveReviews(ctx context.Context, movieInfoID string) ([]domain.Review, error) {
	q := url.Values{}
	q.Set("movieInfoId", movieInfoID)
	target := c.baseURL + "?" + q.Encode()

	out := make([]domain.Review, 0)
	err := c.getJSON(ctx, target, func() error {
		return apperrors.NotFound(ReviewsNotFoundPrefix, movieInfoID)
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Review{}
	}
	return out, nil
}
