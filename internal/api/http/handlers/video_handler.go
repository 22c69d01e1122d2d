package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/video-service/internal/api/dto"
	"github.com/spec-kit/video-service/internal/auth"
	"github.com/spec-kit/video-service/internal/events"
	"github.com/spec-kit/video-service/internal/media"
	"github.com/spec-kit/video-service/internal/observability"
	apperrors "github.com/spec-kit/video-service/pkg/util/errorutil"
)

// VideoHandler streams video files with single byte-range support.
type VideoHandler struct {
	resolver   *media.Resolver
	catalog    *media.Catalog
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewVideoHandler constructs handler. dispatcher may be nil.
func NewVideoHandler(resolver *media.Resolver, catalog *media.Catalog, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *VideoHandler {
	return &VideoHandler{resolver: resolver, catalog: catalog, dispatcher: dispatcher, logger: logger, metrics: metrics}
}

// Stream handles GET and HEAD /video/:filename.
//
// The body is handed to fasthttp as a sized stream. fasthttp closes it after
// the last byte, on a write error (client gone) or when the response is
// reset, which releases the file in every case. A read error after the
// headers went out aborts the connection instead of padding the body.
func (h *VideoHandler) Stream(c *fiber.Ctx) error {
	res, err := h.resolver.Resolve(c.Params("filename"))
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			h.logger.Debug("video not resolved", zap.String("filename", c.Params("filename")), zap.Error(err))
			return apperrors.NewNotFound("video", nil)
		}
		return apperrors.NewInternalError(err)
	}

	decision, err := media.Negotiate(c.Get(fiber.HeaderRange), res.Size)
	if err != nil {
		if errors.Is(err, media.ErrRangeNotSatisfiable) {
			c.Set(fiber.HeaderContentRange, media.UnsatisfiedRange(res.Size))
			return apperrors.NewRangeNotSatisfiable(res.Size)
		}
		return apperrors.NewRangeParseError(err)
	}

	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentType, res.ContentType)
	c.Set(fiber.HeaderLastModified, res.ModTime.UTC().Format(http.TimeFormat))
	if decision.Partial {
		c.Set(fiber.HeaderContentRange, media.ContentRange(decision, res.Size))
		c.Status(fiber.StatusPartialContent)
	} else {
		c.Status(fiber.StatusOK)
	}

	// HEAD never opens the file; an empty body keeps this length on the wire.
	if c.Method() == fiber.MethodHead {
		c.Response().Header.SetContentLength(int(decision.Length(res.Size)))
		return nil
	}

	var actor events.Actor
	if claims, ok := auth.ClaimsFromContext(c); ok {
		actor = events.Actor{UserID: claims.UserID, Role: claims.Role}
	}

	window, err := media.OpenWindow(res, decision, func(r media.StreamResult) { h.finished(actor, r) })
	if err != nil {
		c.Response().Header.Del(fiber.HeaderContentRange)
		return apperrors.NewInternalError(err)
	}

	return c.SendStream(window, int(window.Len()))
}

// finished runs once per window, after the request context has been
// recycled, so events are published on a fresh context.
func (h *VideoHandler) finished(actor events.Actor, r media.StreamResult) {
	complete := r.Complete()
	h.metrics.RecordStream(r.Decision.Partial, complete, r.Sent)

	fields := []zap.Field{
		zap.String("video", r.Resource.Name),
		zap.Bool("partial", r.Decision.Partial),
		zap.Int64("sent", r.Sent),
		zap.Int64("expected", r.Expected),
	}
	payload := events.StreamPayload{
		Video:    r.Resource.Name,
		Partial:  r.Decision.Partial,
		Start:    r.Decision.Start,
		Sent:     r.Sent,
		Expected: r.Expected,
	}
	eventType := events.EventStreamFinished
	if complete {
		h.logger.Debug("stream finished", fields...)
	} else {
		h.logger.Info("stream aborted", append(fields, zap.Error(r.Err))...)
		eventType = events.EventStreamAborted
		payload.Error = r.Err.Error()
	}

	if h.dispatcher == nil {
		return
	}
	if err := h.dispatcher.Publish(context.Background(), events.NewEvent(eventType, actor, payload)); err != nil {
		h.logger.Warn("publish event", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

// List handles GET /videos.
func (h *VideoHandler) List(c *fiber.Ctx) error {
	names, err := h.catalog.Available()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.VideoListResponse{Videos: names}})
}
