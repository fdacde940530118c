package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegister(t *testing.T) {
	r := prometheus.NewRegistry()
	Register(r)
	// 第二次注册不会 panic。
	Register(prometheus.NewRegistry())
	assert.Equal(t, prometheus.Registerer(r), GetRegisterer())

	before := testutil.ToFloat64(HookDeclines.WithLabelValues(ReasonNoHandler))
	HookDeclines.WithLabelValues(ReasonNoHandler).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(HookDeclines.WithLabelValues(ReasonNoHandler)))

	n, err := testutil.GatherAndCount(r, "serial_hook_declines_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
