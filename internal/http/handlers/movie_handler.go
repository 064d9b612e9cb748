package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetMovie godoc
// @ID          getMovie
// @Summary     Get a movie with its reviews
// @Description Fetches the movie info from the movie info backend, then its reviews from the reviews backend, and returns both. Backend 5xx and transport failures are retried; a backend 4xx is passed through with its status.
// @Tags        Movies
// @Produce     json
// @Param       id   path      string  true  "Movie info id"
// @Success     200  {object}  domain.Movie
// @Failure     404  {object}  handlers.ErrorResponse "Movie info not found upstream"
// @Failure     500  {object}  handlers.ErrorResponse "Upstream or internal error"
// @Router      /movies/{id} [get]
func (h *Handlers) GetMovie(c *gin.Context) {
	mv, err := h.movieSvc.Composite(c.Request.Context(), pathID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, mv)
}
