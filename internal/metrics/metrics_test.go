package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordComparison(t *testing.T) {
	before := testutil.ToFloat64(ComparisonsTotal.WithLabelValues("asked"))
	RecordComparison("asked")
	RecordComparison("asked")
	assert.Equal(t, before+2, testutil.ToFloat64(ComparisonsTotal.WithLabelValues("asked")))
}

func TestRecordStoreError(t *testing.T) {
	before := testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("set"))
	RecordStoreError("set")
	assert.Equal(t, before+1, testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("set")))
}

func TestHistogramsAcceptObservations(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordCatalogFetch("spotify", 15*time.Millisecond, nil)
		RecordCatalogFetch("library", time.Second, errors.New("walk failed"))
		RecordAPIRequest("POST", "/api/rank/sessions/:playlist_id/choose", 200, 3*time.Millisecond)
	})
	assert.Positive(t, testutil.CollectAndCount(CatalogFetchDuration))
	assert.Positive(t, testutil.CollectAndCount(APIRequestDuration))
}
