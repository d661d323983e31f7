package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(http.StatusCreated)
	c.RecordHTTPStatus(http.StatusCreated)
	c.RecordRegistration("admin")
	c.RecordLogin("user", true)
	c.RecordLogin("user", false)
	c.RecordPurchase(PurchaseCreated)
	c.RecordUpload(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.registrations.WithLabelValues("admin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues("user", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues("user", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.purchases.WithLabelValues(PurchaseCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.uploads.WithLabelValues("failure")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPurchase(PurchasePaid)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `coursemarket_purchases_total{outcome="paid"} 1`)
}
