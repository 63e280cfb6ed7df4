package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"meters/internal/domain"
)

// Anonymous is recorded when no actor can be resolved.
const Anonymous = "anonymous"

// Auditable is an argument that names the acting user itself, such as a
// login or registration payload.
type Auditable interface {
	AuditActor() string
}

// Credentials is the auditable payload of login and registration.
type Credentials struct {
	Username string
}

// AuditActor implements Auditable.
func (c Credentials) AuditActor() string { return c.Username }

// AuditSpec describes an audited operation.
type AuditSpec struct {
	// Operation names the call. Used in the action when Action is empty.
	Operation string
	Action    string
	// Subject, when set, takes precedence over the request identity.
	Subject Auditable
}

func (s AuditSpec) action() string {
	if s.Action != "" {
		return s.Action
	}
	return "Called operation " + s.Operation
}

// Auditor records successful operations to the audit trail.
type Auditor struct {
	repo domain.AuditRepository
	log  *zap.Logger
	now  func() time.Time
}

// NewAuditor creates an Auditor writing to repo.
func NewAuditor(repo domain.AuditRepository, log *zap.Logger) *Auditor {
	return &Auditor{repo: repo, log: log.Named("audit"), now: time.Now}
}

// Audited runs op and, if it succeeds, records an audit entry described by
// spec. The result and error of op are returned unchanged.
func Audited[T any](ctx context.Context, a *Auditor, spec AuditSpec, op func(context.Context) (T, error)) (T, error) {
	out, err := op(ctx)
	if err != nil {
		return out, err
	}
	a.record(ctx, spec)
	return out, nil
}

// AuditedErr is Audited for operations without a result.
func AuditedErr(ctx context.Context, a *Auditor, spec AuditSpec, op func(context.Context) error) error {
	_, err := Audited(ctx, a, spec, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func (a *Auditor) resolveActor(ctx context.Context, spec AuditSpec) string {
	if spec.Subject != nil {
		if actor := spec.Subject.AuditActor(); actor != "" {
			return actor
		}
	}
	if res, ok := AuthenticationFrom(ctx); ok && res.Authenticated {
		return res.Username
	}
	return Anonymous
}

// record persists the entry. A failed write is logged; the operation it
// describes has already completed.
func (a *Auditor) record(ctx context.Context, spec AuditSpec) {
	entry := domain.AuditEntry{
		Username:  a.resolveActor(ctx, spec),
		Timestamp: a.now().UTC(),
		Action:    spec.action(),
	}
	if _, err := a.repo.Save(context.WithoutCancel(ctx), entry); err != nil {
		a.log.Error("write audit entry",
			zap.String("actor", entry.Username),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

// AuditService exposes the audit trail to administrators.
type AuditService struct {
	repo domain.AuditRepository
}

// NewAuditService creates an AuditService backed by repo.
func NewAuditService(repo domain.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns all audit entries, newest first.
func (s *AuditService) List(ctx context.Context) ([]domain.AuditEntry, error) {
	entries, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, storeFault("list audit entries", err)
	}
	return entries, nil
}
