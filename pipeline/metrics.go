// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestExecutions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnemo_request_pipeline_executions_total",
		Help: "Number of request pipeline executions.",
	})

	requestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mnemo_request_pipeline_failures_total",
		Help: "Number of request pipeline failures by processor.",
	}, []string{"processor"})

	responseExecutions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnemo_response_pipeline_executions_total",
		Help: "Number of response pipeline executions.",
	})

	responseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mnemo_response_pipeline_failures_total",
		Help: "Number of response pipeline failures by processor.",
	}, []string{"processor"})

	truncatedContents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnemo_context_truncated_contents_total",
		Help: "Number of content items dropped by token-limit truncation.",
	})
)
