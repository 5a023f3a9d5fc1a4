package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{0, "none"},
		{-1, "none"},
		{200, "2xx"},
		{204, "2xx"},
		{404, "4xx"},
		{500, "5xx"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusClass(tt.status))
	}
}

func TestEndpointSelectionsCounter(t *testing.T) {
	before := testutil.ToFloat64(EndpointSelections.WithLabelValues("direct"))

	EndpointSelections.WithLabelValues("direct").Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(EndpointSelections.WithLabelValues("direct")))
}
