package remote

import (
	"context"
	"errors"
	"net/url"

	"github.com/tbourn/go-movies-backend/internal/apperrors"
	"github.com/tbourn/go-movies-backend/internal/domain"
)

// MovieInfoNotFoundPrefix starts the message of a 404 from the movie info backend.
const MovieInfoNotFoundPrefix = "There is no MovieInfo Available for the passed in Id : "

// MovieInfoClient reads movie infos from GET {base}/{id}.
type MovieInfoClient struct {
	*Client
}

// NewMovieInfoClient wraps a Client built from opts.
func NewMovieInfoClient(opts Options) (*MovieInfoClient, error) {
	if opts.Name == "" {
		opts.Name = "movieinfo"
	}
	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	return &MovieInfoClient{Client: c}, nil
}

// errMissingMovieInfoID marks a 2xx body that decoded to an entity without an
// id, such as null or {}.
var errMissingMovieInfoID = errors.New("movie info has no movieInfoId")

// RetrieveMovieInfo fetches one movie info. A 404 yields a NotFoundError
// carrying id and is never retried. A body without movieInfoId is a
// DecodeError.
func (c *MovieInfoClient) RetrieveMovieInfo(ctx context.Context, id string) (*domain.MovieInfo, error) {
	target := c.baseURL + "/" + url.PathEscape(id)
	var out domain.MovieInfo
	err := c.getJSON(ctx, target, func() error {
		return apperrors.NotFound(MovieInfoNotFoundPrefix, id)
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, &apperrors.DecodeError{Err: errMissingMovieInfoID}
	}
	return &out, nil
}
