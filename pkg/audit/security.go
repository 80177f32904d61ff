// Package audit logs security-relevant lookup events in structured form for SIEM consumption.
package audit

import (
	"context"
	"encoding/json"
	"time"

	libinjection "github.com/corazawaf/libinjection-go"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/middleware"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection flags a serial number.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventParameterValidation is logged when a lookup is rejected as invalid input.
	EventParameterValidation SecurityEventType = "parameter_validation_failure"
)

// SecurityEvent is one auditable event.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails describes a flagged parameter value.
type InjectionDetails struct {
	ParamName   string `json:"param_name"`
	ParamValue  string `json:"param_value"`
	Fingerprint string `json:"fingerprint"`
}

// SecurityAuditor logs security events under the "security_audit" logger name.
// It never rejects a request: lookups are parameterised, so a flagged value is
// still answered normally and only recorded.
type SecurityAuditor struct {
	logger *zap.Logger
}

func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// CheckInjection runs libinjection over value and reports the fingerprint of a match.
func CheckInjection(value string) (bool, string) {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	return isSQLi, string(fingerprint)
}

// InspectSerial records an injection attempt if serial looks like one.
// It reports whether an event was logged.
func (a *SecurityAuditor) InspectSerial(ctx context.Context, paramName, serial, clientIP string) bool {
	isSQLi, fingerprint := CheckInjection(serial)
	if !isSQLi {
		return false
	}
	a.LogInjectionAttempt(ctx, InjectionDetails{
		ParamName:   paramName,
		ParamValue:  logging.TruncateValue(serial),
		Fingerprint: fingerprint,
	}, clientIP)
	return true
}

// LogInjectionAttempt records a detected SQL injection attempt at ERROR level.
func (a *SecurityAuditor) LogInjectionAttempt(ctx context.Context, details InjectionDetails, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSQLInjectionAttempt,
		RequestID: middleware.RequestIDFromContext(ctx),
		ClientIP:  clientIP,
		Details:   details,
		Severity:  "critical",
	}

	// Marshaling known types cannot fail.
	eventJSON, _ := json.Marshal(event)

	a.logger.Error("SQL injection attempt detected",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", event.RequestID),
		zap.String("param_name", details.ParamName),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("client_ip", clientIP),
		zap.String("severity", event.Severity),
	)
}

// LogParameterValidation records a rejected lookup at WARN level. These are
// usually user errors, not attacks.
func (a *SecurityAuditor) LogParameterValidation(ctx context.Context, errorMessage, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventParameterValidation,
		RequestID: middleware.RequestIDFromContext(ctx),
		ClientIP:  clientIP,
		Details: map[string]string{
			"error": errorMessage,
		},
		Severity: "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Parameter validation failed",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", event.RequestID),
		zap.String("error", errorMessage),
		zap.String("client_ip", clientIP),
		zap.String("severity", event.Severity),
	)
}
