// Package remote contains the outbound HTTP clients used to assemble a
// composite movie: one reads a single movie info by id, the other reads the
// reviews attached to a movie info.
//
// Both share Client, which issues one GET per attempt, classifies the answer
// into the apperrors taxonomy and retries server and transport failures with
// a fixed delay. Clients keep no state between calls.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-movies-backend/internal/apperrors"
	"github.com/tbourn/go-movies-backend/internal/retry"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// Options configures a Client.
type Options struct {
	// Name labels logs, spans and metrics (e.g. "movieinfo").
	Name string
	// BaseURL is the collection URL, e.g. http://host:8080/v1/movieinfos.
	BaseURL string
	// Timeout bounds a single attempt. Zero means 5s.
	Timeout time.Duration
	// Retry controls re-attempts. Nil means retry.DefaultConfig().
	Retry *retry.Config

	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client performs classified, retried GET requests against one backend.
type Client struct {
	name       string
	baseURL    string
	timeout    time.Duration
	retry      *retry.Config
	httpClient *http.Client
	log        zerolog.Logger
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote: baseURL required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, errors.New("remote: baseURL must be http(s)")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rc := opts.Retry
	if rc == nil {
		rc = retry.DefaultConfig()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "remote"
	}

	return &Client{
		name:       name,
		baseURL:    baseURL,
		timeout:    timeout,
		retry:      rc,
		httpClient: hc,
		log:        opts.Logger.With().Str("client", name).Logger(),
	}, nil
}

// BaseURL returns the normalized collection URL.
func (c *Client) BaseURL() string { return c.baseURL }

// getJSON GETs target and decodes a 2xx body into out. notFound builds the
// failure returned for a 404.
func (c *Client) getJSON(ctx context.Context, target string, notFound func() error, out any) error {
	ctx, span := otel.Tracer("remote/"+c.name).Start(ctx, "GET",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", target)),
	)
	defer span.End()

	err := retry.Do(ctx, c.retry, func(attempt int) error {
		err := c.attempt(ctx, target, notFound, out)
		outcome := outcomeOf(err)
		fetchAttempts.WithLabelValues(c.name, outcome).Inc()
		c.log.Debug().
			Int("attempt", attempt).
			Str("url", target).
			Str("outcome", outcome).
			Err(err).
			Msg("remote fetch")
		return err
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (c *Client) attempt(ctx context.Context, target string, notFound func() error, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(raw, out); err != nil {
			return &apperrors.DecodeError{Err: err}
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return notFound()
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &apperrors.ClientError{Message: errorMessage(raw), StatusCode: resp.StatusCode}
	case resp.StatusCode >= 500:
		return &apperrors.ServerError{Message: errorMessage(raw), StatusCode: resp.StatusCode}
	default:
		return &apperrors.ClientError{Message: errorMessage(raw), StatusCode: resp.StatusCode}
	}
}

// errorMessage extracts the human message from an error body: the "message"
// field of a JSON envelope when present, else the trimmed text.
func errorMessage(raw []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &env) == nil && strings.TrimSpace(env.Message) != "" {
		return env.Message
	}
	return strings.TrimSpace(string(raw))
}

func outcomeOf(err error) string {
	var (
		nf *apperrors.NotFoundError
		ce *apperrors.ClientError
		se *apperrors.ServerError
		de *apperrors.DecodeError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ce):
		return "client_error"
	case errors.As(err, &se):
		return "server_error"
	case errors.As(err, &de):
		return "decode_error"
	default:
		return "transport_error"
	}
}
