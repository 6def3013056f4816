package projectauth

import (
	"context"
	"io"

	"github.com/MrEthical07/projectauth/internal/audit"
	"github.com/sirupsen/logrus"
)

// Audit event types.
const (
	AuditEventRegisterSuccess        = "register_success"
	AuditEventRegisterFailure        = "register_failure"
	AuditEventLoginSuccess           = "login_success"
	AuditEventLoginFailure           = "login_failure"
	AuditEventRefreshSuccess         = "refresh_success"
	AuditEventRefreshFailure         = "refresh_failure"
	AuditEventRefreshRevoked         = "refresh_revoked"
	AuditEventLogout                 = "logout"
	AuditEventPasswordRecoveryIssued = "password_recovery_issued"
	AuditEventPasswordRecoveryFailed = "password_recovery_failed"
	AuditEventPasswordResetSuccess   = "password_reset_success"
	AuditEventPasswordResetFailure   = "password_reset_failure"
	AuditEventFederatedLogin         = "federated_login"
	AuditEventFederatedFailure       = "federated_login_failure"
)

type (
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	LogrusSink     = audit.LogrusSink
	NoOpSink       = audit.NoOpSink
)

// NewChannelSink returns a sink that buffers events in a channel of the given size.
func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

// NewLogrusSink returns a sink logging each event through logger.
func NewLogrusSink(logger logrus.FieldLogger) *LogrusSink { return audit.NewLogrusSink(logger) }

type auditRecord struct {
	eventType string
	success   bool
	username  string
	sessionID string
	provider  string
	err       error
	metadata  map[string]string
}

func (e *Engine) emitAudit(ctx context.Context, rec auditRecord) {
	if e == nil || e.audit == nil {
		return
	}

	metadata := rec.metadata
	if ip := clientIPFromContext(ctx); ip != "" {
		if metadata == nil {
			metadata = make(map[string]string, 2)
		}
		metadata["ip"] = ip
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["user_agent"] = ua
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		Type:      rec.eventType,
		Username:  rec.username,
		SessionID: rec.sessionID,
		Provider:  rec.provider,
		Success:   rec.success,
		Reason:    ErrorCode(rec.err),
		Metadata:  metadata,
	}
	e.audit.Emit(ctx, event)
}
