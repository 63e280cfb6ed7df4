package app

import (
	"context"

	"meters/internal/domain"
)

// TypeService exposes TypeRegistry mutations as audited operations.
type TypeService struct {
	registry *TypeRegistry
	audit    *Auditor
}

// NewTypeService creates a TypeService over registry.
func NewTypeService(registry *TypeRegistry, audit *Auditor) *TypeService {
	return &TypeService{registry: registry, audit: audit}
}

// List returns the registered reading types.
func (s *TypeService) List() []string {
	return s.registry.List()
}

// Add registers a reading type.
func (s *TypeService) Add(ctx context.Context, name string) error {
	spec := AuditSpec{Operation: "AddType", Action: "reading type added: " + normalizeTypeName(name)}
	return AuditedErr(ctx, s.audit, spec, func(ctx context.Context) error {
		return s.registry.Add(ctx, name)
	})
}

// Remove unregisters a reading type, returning ErrTypeNotFound when it is
// not registered.
func (s *TypeService) Remove(ctx context.Context, name string) error {
	spec := AuditSpec{Operation: "RemoveType"}
	return AuditedErr(ctx, s.audit, spec, func(ctx context.Context) error {
		removed, err := s.registry.Remove(ctx, name)
		if err != nil {
			return err
		}
		if !removed {
			return domain.ErrTypeNotFound
		}
		return nil
	})
}
