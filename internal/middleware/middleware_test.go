package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vet-benchmarks-api/internal/service"
)

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/uploads/:id/metrics", func(c *gin.Context) {
		SetResultMeta(c, true, time.Date(2024, 3, 31, 8, 30, 0, 0, time.FixedZone("PT", -7*3600)), "2024-01-02", "2024-03-31")
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/uploads/u1/metrics", nil))

	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, "2024-01-02", meta["period_start"])
	assert.Equal(t, "2024-03-31", meta["period_end"])
	assert.Equal(t, "2024-03-31T15:30:00Z", meta["computed_at"])
	assert.Contains(t, meta, string(MetaProcessingTime))
}

func TestSetMetaWithoutMiddlewareCreatesStore(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	SetResultMeta(c, false, time.Time{}, "2024-01-02", "2024-03-31")

	meta := ExtractMeta(c)
	require.NotNil(t, meta)
	assert.Equal(t, false, meta[string(MetaCacheHit)])
	assert.NotContains(t, meta, string(MetaComputedAt))
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))
	assert.Nil(t, ExtractMeta(nil))
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/uploads/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{"/uploads/a", "/uploads/b", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]bool{}
	for _, fam := range families {
		if fam.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] = true
				}
			}
		}
	}
	assert.Equal(t, map[string]bool{"/uploads/:id": true, unmatchedRoute: true}, paths)
}
