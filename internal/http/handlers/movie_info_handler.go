// Movie info HTTP handlers.
//
//   - POST   /movieinfos          (create, Idempotency-Key aware)
//   - GET    /movieinfos          (list, ?year= or ?name=, ETag support)
//   - GET    /movieinfos/{id}     (read)
//   - PUT    /movieinfos/{id}     (replace mutable fields)
//   - DELETE /movieinfos/{id}     (delete, idempotent)
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

// CreateMovieInfo godoc
// @ID          createMovieInfo
// @Summary     Create a movie info
// @Description Validates and stores a movie info, then publishes it to the movie info stream. With an Idempotency-Key, a repeated request returns the entity created first and sets Idempotency-Replayed.
// @Tags        MovieInfos
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string            false "Client key for safe retries"  example(create-batman-1)
// @Param       body             body    domain.MovieInfo  true  "Movie info"
//
// @Success     201  {object}  domain.MovieInfo
// @Header      201  {string}  Idempotency-Replayed "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /movieinfos [post]
func (h *Handlers) CreateMovieInfo(c *gin.Context) {
	var in domain.MovieInfo
	if !bindJSON(c, &in) {
		return
	}
	ctx := c.Request.Context()

	var (
		mi       *domain.MovieInfo
		replayed bool
		err      error
	)
	if key, has := middleware.GetIdempotencyKey(c); has {
		mi, replayed, err = h.infoSvc.CreateIdempotent(ctx, key, in)
	} else {
		mi, err = h.infoSvc.Create(ctx, in)
	}
	if err != nil {
		failErr(c, err)
		return
	}
	if replayed {
		markReplayed(c)
	}
	ok(c, http.StatusCreated, mi)
}

// ListMovieInfos godoc
// @ID          listMovieInfos
// @Summary     List movie infos
// @Description Returns all movie infos, or those released before a year, or those with an exact name. When both filters are given, year wins. Supports weak ETag via If-None-Match.
// @Tags        MovieInfos
// @Produce     json
//
// @Param       year           query   int     false "Keep entries with year strictly below this"  example(2010)
// @Param       name           query   string  false "Exact name"                                  example(BatmanBegins)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}   domain.MovieInfo
// @Header      200  {string}  ETag "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse "Validation error"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /movieinfos [get]
func (h *Handlers) ListMovieInfos(c *gin.Context) {
	year, err := queryInt(c, "year")
	if err != nil {
		failErr(c, err)
		return
	}

	if notModified(c, "movieinfos", h.movieInfoStats()) {
		return
	}

	items, err := h.infoSvc.FindAll(c.Request.Context(), services.MovieInfoFilter{
		YearBefore: year,
		Name:       queryString(c, "name"),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetMovieInfo godoc
// @ID          getMovieInfo
// @Summary     Get a movie info
// @Tags        MovieInfos
// @Produce     json
// @Param       id   path      string  true  "Movie info id"
// @Success     200  {object}  domain.MovieInfo
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /movieinfos/{id} [get]
func (h *Handlers) GetMovieInfo(c *gin.Context) {
	mi, err := h.infoSvc.FindOne(c.Request.Context(), pathID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, mi)
}

// UpdateMovieInfo godoc
// @ID          updateMovieInfo
// @Summary     Update a movie info
// @Description Overwrites name, year, cast and release date. The id in the body is ignored.
// @Tags        MovieInfos
// @Accept      json
// @Produce     json
// @Param       id    path      string            true  "Movie info id"
// @Param       body  body      domain.MovieInfo  true  "New values"
// @Success     200   {object}  domain.MovieInfo
// @Failure     400   {object}  handlers.ErrorResponse "Validation error"
// @Failure     404   {object}  handlers.ErrorResponse "Not found"
// @Failure     500   {object}  handlers.ErrorResponse "Internal error"
// @Router      /movieinfos/{id} [put]
func (h *Handlers) UpdateMovieInfo(c *gin.Context) {
	var in domain.MovieInfo
	if !bindJSON(c, &in) {
		return
	}
	mi, err := h.infoSvc.Update(c.Request.Context(), pathID(c), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, mi)
}

// DeleteMovieInfo godoc
// @ID          deleteMovieInfo
// @Summary     Delete a movie info
// @Description Deleting an unknown id also succeeds.
// @Tags        MovieInfos
// @Param       id   path  string  true  "Movie info id"
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movieinfos/{id} [delete]
func (h *Handlers) DeleteMovieInfo(c *gin.Context) {
	if err := h.infoSvc.Delete(c.Request.Context(), pathID(c)); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// movieInfoStats is available only when the service is store-backed.
func (h *Handlers) movieInfoStats() statsFunc {
	svc, isStore := h.infoSvc.(*services.MovieInfoService)
	if !isStore || svc.Store == nil {
		return nil
	}
	db := svc.Store.DB()
	return func(ctx context.Context) (int64, *time.Time, error) {
		return repo.MovieInfosStats(ctx, db)
	}
}
