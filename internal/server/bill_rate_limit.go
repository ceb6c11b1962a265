package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/weighbill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/weighbill/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	rateLimitReasonProviderRate  = "provider-rate"
	rateLimitReasonBuildInFlight = "build-in-flight"
)

// BillRateLimit throttles bill builds per provider and rejects a second
// concurrent build of the same window.
func (s *Server) BillRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.billLimiter.Enabled() {
			c.Next()
			return
		}

		providerID := strings.TrimSpace(c.Param("id"))
		endpoint := normalizeRateLimitEndpoint(c)
		ctx := c.Request.Context()

		res, err := s.billLimiter.AllowProvider(ctx, providerID)
		if err != nil {
			logger.FromContext(ctx).Warn("bill rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			retryAfter := int(res.RetryAfter.Seconds()) + 1
			denyBillRateLimit(c, endpoint, providerID, rateLimitReasonProviderRate, retryAfter, s.obsMetrics)
			return
		}

		from, to := c.Query("from"), c.Query("to")
		token, ok, err := s.billLimiter.TryLockBuild(ctx, providerID, from, to)
		if err != nil {
			logger.FromContext(ctx).Warn("bill build lock failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !ok {
			denyBillRateLimit(c, endpoint, providerID, rateLimitReasonBuildInFlight, 1, s.obsMetrics)
			return
		}
		defer func() {
			if err := s.billLimiter.ReleaseBuild(ctx, providerID, from, to, token); err != nil {
				logger.FromContext(ctx).Warn("bill build unlock failed", zap.Error(err))
			}
		}()

		recordRateLimitAllowed(ctx, endpoint, providerID, s.obsMetrics)
		c.Next()
	}
}

func denyBillRateLimit(c *gin.Context, endpoint, providerID, reason string, retryAfter int, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("bill rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, providerID, reason, metrics)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimitAllowed(ctx context.Context, endpoint, providerID string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, providerID, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, providerID, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, providerID, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
