// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// serialNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	serialNamespace = "serial"

	hookSubsystem = "hook"

	// 以下为当前使用的通用标签名。
	directionLabelName = "direction"
	reasonLabelName    = "reason"
	formatLabelName    = "format"

	DirectionWrite = "write"
	DirectionRead  = "read"

	// 拒绝处理（decline）的原因。
	ReasonNoHandler      = "no_handler"
	ReasonHandlerFailure = "handler_failure"
	ReasonInvalidTag     = "invalid_tag"
)

var (
	// sizeBuckets 为负载大小的桶划分，单位为字节。
	// 实际桶分布为：[16 64 256 1024 ... 4.294967296e+09]
	sizeBuckets = prometheus.ExponentialBuckets(16, 4, 15)

	// latencyBuckets 为单次序列化调用的耗时桶，单位为毫秒。
	latencyBuckets = prometheus.ExponentialBuckets(0.01, 4, 12)

	HookRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serialNamespace,
			Subsystem: hookSubsystem,
			Name:      "records_total",
			Help:      "number of hook records written or read",
		}, []string{directionLabelName})

	HookDeclines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serialNamespace,
			Subsystem: hookSubsystem,
			Name:      "declines_total",
			Help:      "number of values the serialize hook declined",
		}, []string{reasonLabelName})

	HookUnknownTags = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: serialNamespace,
			Subsystem: hookSubsystem,
			Name:      "unknown_tags_total",
			Help:      "number of records read whose class tag has no handler",
		})

	HookPayloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: serialNamespace,
			Subsystem: hookSubsystem,
			Name:      "payload_bytes",
			Help:      "payload size of hook records",
			Buckets:   sizeBuckets,
		}, []string{directionLabelName})

	CallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: serialNamespace,
			Name:      "call_latency_ms",
			Help:      "latency of a whole serialize or deserialize call",
			Buckets:   latencyBuckets,
		}, []string{directionLabelName, formatLabelName})

	metricRegisterer prometheus.Registerer
	registerOnce     sync.Once
)

// GetRegisterer 返回调用 Register 时使用的全局 Registerer。
// 若尚未注册，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标，重复调用只生效一次。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(HookRecords)
		r.MustRegister(HookDeclines)
		r.MustRegister(HookUnknownTags)
		r.MustRegister(HookPayloadBytes)
		r.MustRegister(CallLatency)
		metricRegisterer = r
	})
}
