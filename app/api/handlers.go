package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/podshift/podshift/app/cfg"
	"github.com/podshift/podshift/app/feed"
)

func NewHandler(fetcher FetcherInterface, parser ParserInterface,
	scheduler SchedulerInterface, generator GeneratorInterface) *Handler {
	return &Handler{
		fetcher:   fetcher,
		parser:    parser,
		scheduler: scheduler,
		generator: generator,
	}
}

// GetFeed runs one pipeline pass: validate, fetch, parse, schedule,
// serialize. Validation failures are the caller's fault (400), an
// unreachable origin is the origin's fault (502), and pipeline failures on
// an otherwise valid origin response are ours (500). A failed request never
// carries a feed body, so podcast clients cannot cache a broken feed.
func (h *Handler) GetFeed(c *gin.Context) {
	originURL, ok := h.parseOriginURL(c)
	if !ok {
		return
	}

	delay, ok := h.parseDelay(c)
	if !ok {
		return
	}

	data, err := h.fetcher.Run(c.Request.Context(), originURL)
	if err != nil {
		slog.Warn("Failed to load feed", "url", originURL, "error", err)
		c.String(errorStatus(err), "failed to load feed: %s", err.Error())
		return
	}

	metadata, items, err := h.parser.Run(data)
	if err != nil {
		slog.Error("Failed to parse feed", "url", originURL, "error", err)
		c.String(errorStatus(err), "failed to parse feed: %s", err.Error())
		return
	}

	if base := cfg.Get().BaseUrl; base != "" {
		metadata.SelfURL = base + "/rss?" + c.Request.URL.RawQuery
	}

	now := time.Now().UTC()
	released := h.scheduler.Run(items, delay, now)

	if c.Query("annotate") == "true" || c.Query("annotate") == "1" {
		released = h.scheduler.Annotate(released)
	}

	body, err := h.generator.Run(metadata, released)
	if err != nil {
		slog.Error("Failed to serialize feed", "url", originURL, "error", err)
		c.String(errorStatus(err), "failed to serialize feed: %s", err.Error())
		return
	}

	slog.Debug("Feed transformed",
		"url", originURL,
		"dialect", string(metadata.Dialect),
		"delay", delay.String(),
		"total", len(items),
		"released", len(released))

	c.Header("X-Feed-Items", strconv.Itoa(len(released)))
	c.Data(http.StatusOK, metadata.Dialect.ContentType(), []byte(body))
}

func (h *Handler) parseOriginURL(c *gin.Context) (string, bool) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.String(http.StatusBadRequest, "missing 'url' query parameter")
		return "", false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid 'url' parameter: %s", err.Error())
		return "", false
	}

	if !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		c.String(http.StatusBadRequest, "'url' must be an absolute http or https URL")
		return "", false
	}

	return rawURL, true
}

func (h *Handler) parseDelay(c *gin.Context) (time.Duration, bool) {
	rawDelay := c.Query("delay")
	if rawDelay == "" {
		c.String(http.StatusBadRequest, "missing 'delay' query parameter")
		return 0, false
	}

	hours, err := strconv.ParseFloat(rawDelay, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "'delay' must be a number of hours: %s", err.Error())
		return 0, false
	}

	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		c.String(http.StatusBadRequest, "'delay' must be a finite non-negative number of hours")
		return 0, false
	}

	// A delay beyond the representable Duration range behaves the same as
	// any delay larger than the feed's age, so clamp instead of rejecting.
	if hours > float64(math.MaxInt64)/float64(time.Hour) {
		return time.Duration(math.MaxInt64), true
	}

	return time.Duration(hours * float64(time.Hour)), true
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

// errorStatus maps pipeline error types to HTTP statuses: an unreachable
// origin is a gateway failure, everything else in the pipeline is ours.
func errorStatus(err error) int {
	var fetchErr *feed.FetchError
	if errors.As(err, &fetchErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
