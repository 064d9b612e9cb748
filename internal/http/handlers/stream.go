// Stream handlers.
//
// Each stream endpoint attaches one hub subscription for the lifetime of the
// request and writes every received value as one JSON line
// (application/x-ndjson), flushing after each. The first line is the most
// recent value created before the client connected, if any. The response
// ends when the client disconnects; no error envelope is written once the
// stream has started.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movies-backend/internal/domain"
	"github.com/tbourn/go-movies-backend/internal/http/middleware"
)

// ContentTypeNDJSON is the media type of stream responses.
const ContentTypeNDJSON = "application/x-ndjson"

// StreamMovieInfos godoc
// @ID          streamMovieInfos
// @Summary     Stream created movie infos
// @Description Newline-delimited JSON; starts with the latest created movie info, then one line per create, until the client disconnects.
// @Tags        MovieInfos
// @Produce     application/x-ndjson
// @Success     200  {object}  domain.MovieInfo "one object per line"
// @Failure     503  {object}  handlers.ErrorResponse "Stream unavailable"
// @Router      /movieinfos/stream [get]
func (h *Handlers) StreamMovieInfos(c *gin.Context) {
	streamNDJSON[domain.MovieInfo](c, h.infoStream)
}

// StreamReviews godoc
// @ID          streamReviews
// @Summary     Stream created reviews
// @Description Newline-delimited JSON; starts with the latest created review, then one line per create, until the client disconnects.
// @Tags        Reviews
// @Produce     application/x-ndjson
// @Success     200  {object}  domain.Review "one object per line"
// @Failure     503  {object}  handlers.ErrorResponse "Stream unavailable"
// @Router      /reviews/stream [get]
func (h *Handlers) StreamReviews(c *gin.Context) {
	streamNDJSON[domain.Review](c, h.reviewStream)
}

func streamNDJSON[T any](c *gin.Context, src Subscriber[T]) {
	if src == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "stream not available")
		return
	}

	ctx := c.Request.Context()
	sub := src.Subscribe(ctx)
	defer sub.Close()

	lg := middleware.LoggerFrom(c)
	// the server WriteTimeout must not cut a live stream
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		lg.Debug().Err(err).Msg("stream write deadline not cleared")
	}
	c.Header("Content-Type", ContentTypeNDJSON)
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	enc := json.NewEncoder(c.Writer)
	sent := 0
	for {
		select {
		case <-ctx.Done():
			lg.Debug().Int("sent", sent).Msg("stream client gone")
			return
		case v, open := <-sub.C():
			if !open {
				return
			}
			// Encode appends the newline that delimits records
			if err := enc.Encode(v); err != nil {
				lg.Debug().Err(err).Int("sent", sent).Msg("stream write failed")
				return
			}
			c.Writer.Flush()
			sent++
		}
	}
}
