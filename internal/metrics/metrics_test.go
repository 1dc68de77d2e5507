package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/medshop/internal/domain/models"
)

func TestStoreObserver(t *testing.T) {
	m := New()

	m.TableWritten(models.StoreSales, 3)
	m.TableWritten(models.StoreSales, 4)
	m.Conflict(models.StoreInventory)
	m.Compensated(models.StoreInventory, true)
	m.Compensated(models.StoreInventory, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tableWrites.WithLabelValues("sales")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.tableRows.WithLabelValues("sales")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts.WithLabelValues("inventory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rollbacks.WithLabelValues("inventory", "failed")))
}

func TestRequestsAndLowStock(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/inventory", 200, 15*time.Millisecond)
	m.SetLowStock(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/inventory", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.lowStockItems))
}
