package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAuth(t *testing.T) {
	before := testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "bad_password"))

	RecordAuth("login", "bad_password")
	RecordAuth("login", "bad_password")

	after := testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "bad_password"))
	assert.Equal(t, before+2, after)
}

func TestRecordFavorite(t *testing.T) {
	before := testutil.ToFloat64(FavoriteOperations.WithLabelValues("add", "not_found"))

	RecordFavorite("add", "not_found")

	after := testutil.ToFloat64(FavoriteOperations.WithLabelValues("add", "not_found"))
	assert.Equal(t, before+1, after)
}

func TestObserveQuery(t *testing.T) {
	ObserveQuery("sqlite", "list_favorites", time.Now().Add(-10*time.Millisecond))

	count := testutil.CollectAndCount(StoreQueryDuration, "movieflix_store_query_duration_seconds")
	assert.GreaterOrEqual(t, count, 1)
}
