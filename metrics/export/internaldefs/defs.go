package internaldefs

import (
	"github.com/MrEthical07/sessiongate"
)

type CounterDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: sessiongate.MetricLoginSuccess, Name: "sessiongate_login_success_total", Help: "Logins whose password verified."},
	{ID: sessiongate.MetricLoginFailure, Name: "sessiongate_login_failure_total", Help: "Logins rejected for an unknown user or wrong password."},
	{ID: sessiongate.MetricLogout, Name: "sessiongate_logout_total", Help: "Requests to the logout path."},
	{ID: sessiongate.MetricSessionActive, Name: "sessiongate_session_active_total", Help: "Requests admitted on an existing session."},
	{ID: sessiongate.MetricSessionExpired, Name: "sessiongate_session_expired_total", Help: "Sessions rejected for exceeding the idle timeout."},
	{ID: sessiongate.MetricSessionAccountUnknown, Name: "sessiongate_session_account_unknown_total", Help: "Sessions naming an account the directory does not know."},
	{ID: sessiongate.MetricCredentialSuccess, Name: "sessiongate_credential_success_total", Help: "Accepted per-request uid/key credentials."},
	{ID: sessiongate.MetricCredentialFailure, Name: "sessiongate_credential_failure_total", Help: "Rejected per-request uid/key credentials."},
	{ID: sessiongate.MetricBadRequest, Name: "sessiongate_bad_request_total", Help: "Requests that matched no classification."},
	{ID: sessiongate.MetricDirectoryError, Name: "sessiongate_directory_error_total", Help: "Account directory faults that aborted a request."},
}

var HistogramDefs = []HistogramDef{
	{ID: sessiongate.MetricEvaluateLatency, Name: "sessiongate_evaluate_latency_seconds", Help: "Request evaluation latency."},
}

// AuditDropped names the dispatcher backpressure counter.
const (
	AuditDroppedName = "sessiongate_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure."
)

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// keeps one extra overflow bucket for +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the engine's eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
