// Review HTTP handlers.
//
//   - POST   /reviews             (create, Idempotency-Key aware)
//   - GET    /reviews             (list, ?movieInfoId=, ETag support)
//   - GET    /reviews/{id}
//   - PUT    /reviews/{id}
//   - DELETE /reviews/{id}
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movies-backend/internal/domain"
	"github.com/tbourn/go-movies-backend/internal/http/middleware"
	"github.com/tbourn/go-movies-backend/internal/repo"
	"github.com/tbourn/go-movies-backend/internal/services"
)

// CreateReview godoc
// @ID          createReview
// @Summary     Create a review
// @Description Validates and stores a review, then publishes it to the review stream.
// @Tags        Reviews
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string         false "Client key for safe retries"
// @Param       body             body    domain.Review  true  "Review"
// @Success     201  {object}  domain.Review
// @Header      201  {string}  Idempotency-Replayed "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /reviews [post]
func (h *Handlers) CreateReview(c *gin.Context) {
	var in domain.Review
	if !bindJSON(c, &in) {
		return
	}
	ctx := c.Request.Context()

	var (
		rv       *domain.Review
		replayed bool
		err      error
	)
	if key, has := middleware.GetIdempotencyKey(c); has {
		rv, replayed, err = h.reviewSvc.CreateIdempotent(ctx, key, in)
	} else {
		rv, err = h.reviewSvc.Create(ctx, in)
	}
	if err != nil {
		failErr(c, err)
		return
	}
	if replayed {
		markReplayed(c)
	}
	ok(c, http.StatusCreated, rv)
}

// ListReviews godoc
// @ID          listReviews
// @Summary     List reviews
// @Description Returns every review, or those of one movie info. Supports weak ETag via If-None-Match.
// @Tags        Reviews
// @Produce     json
// @Param       movieInfoId    query   string  false "Movie info id"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Success     200  {array}   domain.Review
// @Header      200  {string}  ETag "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /reviews [get]
func (h *Handlers) ListReviews(c *gin.Context) {
	var f services.ReviewFilter
	if id := queryString(c, "movieInfoId"); id != nil {
		f.MovieInfoID = *id
	}

	if notModified(c, "reviews", h.reviewStats(f.MovieInfoID)) {
		return
	}

	items, err := h.reviewSvc.FindAll(c.Request.Context(), f)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetReview godoc
// @ID          getReview
// @Summary     Get a review
// @Tags        Reviews
// @Produce     json
// @Param       id   path      string  true  "Review id"
// @Success     200  {object}  domain.Review
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Router      /reviews/{id} [get]
func (h *Handlers) GetReview(c *gin.Context) {
	rv, err := h.reviewSvc.FindOne(c.Request.Context(), pathID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rv)
}

// UpdateReview godoc
// @ID          updateReview
// @Summary     Update a review
// @Description Overwrites movieInfoId, comment and rating. The id in the body is ignored.
// @Tags        Reviews
// @Accept      json
// @Produce     json
// @Param       id    path      string         true  "Review id"
// @Param       body  body      domain.Review  true  "New values"
// @Success     200   {object}  domain.Review
// @Failure     400   {object}  handlers.ErrorResponse "Validation error"
// @Failure     404   {object}  handlers.ErrorResponse "Not found"
// @Router      /reviews/{id} [put]
func (h *Handlers) UpdateReview(c *gin.Context) {
	var in domain.Review
	if !bindJSON(c, &in) {
		return
	}
	rv, err := h.reviewSvc.Update(c.Request.Context(), pathID(c), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rv)
}

// DeleteReview godoc
// @ID          deleteReview
// @Summary     Delete a review
// @Tags        Reviews
// @Param       id   path  string  true  "Review id"
// @Success     204  {string} string "No Content"
// @Router      /reviews/{id} [delete]
func (h *Handlers) DeleteReview(c *gin.Context) {
	if err := h.reviewSvc.Delete(c.Request.Context(), pathID(c)); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

func (h *Handlers) reviewStats(movieInfoID string) statsFunc {
	svc, isStore := h.reviewSvc.(*services.ReviewService)
	if !isStore || svc.Store == nil {
		return nil
	}
	db := svc.Store.DB()
	return func(ctx context.Context) (int64, *time.Time, error) {
		return repo.ReviewsStats(ctx, db, movieInfoID)
	}
}
