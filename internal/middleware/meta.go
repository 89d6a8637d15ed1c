package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vet-benchmarks-api/pkg/response"
)

const responseMetaKey = "response_meta"

// MetaKey names an entry in the envelope meta block.
type MetaKey string

const (
	MetaCacheHit       MetaKey = "cache_hit"
	MetaComputedAt     MetaKey = "computed_at"
	MetaPeriodStart    MetaKey = "period_start"
	MetaPeriodEnd      MetaKey = "period_end"
	MetaProcessingTime MetaKey = "processing_time_ms"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, response.Meta{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta[string(MetaProcessingTime)]; !exists {
			meta[string(MetaProcessingTime)] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit records whether the metric set came from the result cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, MetaCacheHit, hit)
}

// SetResultMeta records where a computed metric set came from and which
// reporting window it covers.
func SetResultMeta(c *gin.Context, cacheHit bool, computedAt time.Time, periodStart, periodEnd string) {
	SetCacheHit(c, cacheHit)
	if !computedAt.IsZero() {
		SetMeta(c, MetaComputedAt, computedAt.UTC().Format(time.RFC3339))
	}
	SetMeta(c, MetaPeriodStart, periodStart)
	SetMeta(c, MetaPeriodEnd, periodEnd)
}

func SetMeta(c *gin.Context, key MetaKey, value interface{}) {
	ensureMeta(c)[string(key)] = value
}

// ExtractMeta returns the metadata stored on the context, or nil when
// WithResponseMeta did not run.
func ExtractMeta(c *gin.Context) response.Meta {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(response.Meta); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) response.Meta {
	if c == nil {
		return response.Meta{}
	}
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := response.Meta{}
	c.Set(responseMetaKey, meta)
	return meta
}
