package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/accrue"
	accruejson "github.com/fwojciec/accrue/json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/fwojciec/accrue/anthropic"

// Client is the HTTP transport for the Anthropic Messages API. It sends a
// request body the caller has already serialized and hands the response to
// the streaming core.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	tracer     trace.Tracer
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client. Timeouts and connection-level
// retries are configured here, not in the stream.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used by the client and the streams it opens.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTracerProvider sets the provider of the tracer that records one span
// per API request. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		log:        zerolog.Nop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream posts body with "stream": true and returns an [accrue.Stream] over
// the response. body must be a JSON object; its "stream" field is overwritten.
func (c *Client) Stream(ctx context.Context, body json.RawMessage) (accrue.Stream, error) {
	log := c.requestLogger()
	resp, err := c.post(ctx, body, true, log)
	if err != nil {
		return nil, err
	}
	return NewStream(ctx, resp.Body, WithStreamLogger(log)), nil
}

// Message posts body with "stream": false and decodes the complete response.
func (c *Client) Message(ctx context.Context, body json.RawMessage) (accrue.Message, error) {
	resp, err := c.post(ctx, body, false, c.requestLogger())
	if err != nil {
		return accrue.Message{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return accrue.Message{}, fmt.Errorf("anthropic: %w", &accrue.TransportError{Err: err})
	}
	msg, err := accruejson.UnmarshalMessage(data)
	if err != nil {
		return accrue.Message{}, fmt.Errorf("anthropic: %w", err)
	}
	return msg, nil
}

// requestLogger returns the client logger tagged with a fresh request ID.
func (c *Client) requestLogger() zerolog.Logger {
	return c.log.With().Str("request_id", uuid.NewString()).Logger()
}

// post sends body to the messages endpoint. The caller owns the response
// body of a successful response. The span ends once response headers arrive.
func (c *Client) post(ctx context.Context, body json.RawMessage, streaming bool, log zerolog.Logger) (_ *http.Response, err error) {
	ctx, span := c.tracer.Start(ctx, "anthropic.messages",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Bool("anthropic.stream", streaming)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	payload, err := setStream(body, streaming)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)
	if streaming {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	log.Debug().Str("url", httpReq.URL.String()).Bool("stream", streaming).Int("bytes", len(payload)).Msg("request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", &accrue.TransportError{Err: err})
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		err = parseHTTPError(resp)
		log.Debug().Int("status", resp.StatusCode).Err(err).Msg("request failed")
		return nil, err
	}
	return resp, nil
}

// setStream returns body with its "stream" field set to streaming.
func setStream(body json.RawMessage, streaming bool) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("request body must be a JSON object: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("request body must be a JSON object")
	}
	fields["stream"] = json.RawMessage(fmt.Sprintf("%t", streaming))
	return json.Marshal(fields)
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Type == "" {
		return fmt.Errorf("anthropic: %w", &accrue.ServerError{
			Kind:    kindForStatus(resp.StatusCode),
			Message: string(body),
			Status:  resp.StatusCode,
		})
	}
	return fmt.Errorf("anthropic: %w", &accrue.ServerError{
		Kind:    accrue.ErrorKind(apiErr.Error.Type),
		Message: apiErr.Error.Message,
		Status:  resp.StatusCode,
	})
}

// kindForStatus maps an HTTP status to the error kind the API documents for
// it. Used when an error response has no parseable body.
func kindForStatus(status int) accrue.ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return accrue.ErrorInvalidRequest
	case http.StatusUnauthorized:
		return accrue.ErrorAuthentication
	case http.StatusForbidden:
		return accrue.ErrorPermission
	case http.StatusNotFound:
		return accrue.ErrorNotFound
	case http.StatusRequestEntityTooLarge:
		return accrue.ErrorRequestTooLarge
	case http.StatusTooManyRequests:
		return accrue.ErrorRateLimit
	case 529:
		return accrue.ErrorOverloaded
	default:
		return accrue.ErrorAPI
	}
}
