package metrics

import (
	"time"

	obserrors "github.com/tomobs/tom-portal/internal/observability/errors"
	"github.com/tomobs/tom-portal/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultShared  = "shared"
)

// RefreshMetric describes one token refresh attempt.
// Shared is true for callers that joined a flight started by someone else.
type RefreshMetric struct {
	Result   string
	Shared   bool
	Duration time.Duration
	Err      error
}

// EmitRefresh emits token refresh counters and latency.
func EmitRefresh(sink statsd.Sink, in RefreshMetric) {
	if sink == nil {
		return
	}

	result := in.Result
	if in.Shared && result == ResultSuccess {
		result = ResultShared
	}
	tags := map[string]string{"result": result}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.refresh", 1, tags)

	// Only the flight leader measured a network round-trip.
	if in.Duration > 0 && !in.Shared {
		sink.Timing("auth.refresh.duration", in.Duration, CloneTags(tags))
	}
}

// CallMetric describes one request to the TOM API.
type CallMetric struct {
	Method   string
	Resource string
	Status   int
	Retried  bool
	Duration time.Duration
	Err      error
}

// EmitUpstreamCall emits request counters and latency for TOM API calls.
func EmitUpstreamCall(sink statsd.Sink, in CallMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"method":   in.Method,
		"resource": in.Resource,
		"result":   ResultSuccess,
	}
	if in.Status > 0 {
		tags["status_class"] = statusClass(in.Status)
	}
	if in.Retried {
		tags["retried"] = "true"
	}
	if in.Err != nil {
		tags["result"] = ResultError
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("tomapi.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("tomapi.request.duration", in.Duration, CloneTags(tags))
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
