package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/repository"
)

// RoleSet is the set of capabilities held by a user.
type RoleSet map[models.Role]struct{}

// Has reports whether role is in the set.
func (s RoleSet) Has(role models.Role) bool {
	_, ok := s[role]
	return ok
}

// Strings returns the roles sorted alphabetically.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for role := range s {
		out = append(out, string(role))
	}
	sort.Strings(out)
	return out
}

// RoleAuthority answers capability questions from the user_roles table.
// Every call reads the store; nothing is cached between requests.
type RoleAuthority interface {
	CapabilitiesOf(ctx context.Context, userID string) (RoleSet, error)
	Authorize(ctx context.Context, userID string, required models.Role) error
	Grant(ctx context.Context, userID string, role models.Role) (bool, error)
}

type roleAuthority struct {
	repo   repository.UserRoleRepository
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewRoleAuthority constructs the role authority.
func NewRoleAuthority(repo repository.UserRoleRepository, logger zerolog.Logger) RoleAuthority {
	return &roleAuthority{
		repo:   repo,
		logger: logger.With().Str("component", "role_authority").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/course-market-api/internal/service/roles"),
	}
}

// CapabilitiesOf returns the stored roles plus the implicit student role.
// A read failure yields an empty set and an error wrapping ErrForbidden.
func (a *roleAuthority) CapabilitiesOf(ctx context.Context, userID string) (RoleSet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return RoleSet{}, ErrForbidden
	}

	ctx, span := a.tracer.Start(ctx, "roles.capabilities", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	rows, err := a.repo.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		a.logger.Error().Err(err).Str("user_id", userID).Msg("role lookup failed, denying")
		return RoleSet{}, fmt.Errorf("%w: role lookup failed: %v", ErrForbidden, err)
	}

	set := RoleSet{models.RoleStudent: {}}
	for _, row := range rows {
		if row.Role.Valid() {
			set[row.Role] = struct{}{}
		}
	}
	return set, nil
}

func (a *roleAuthority) Authorize(ctx context.Context, userID string, required models.Role) error {
	set, err := a.CapabilitiesOf(ctx, userID)
	if err != nil {
		return err
	}
	if !set.Has(required) {
		return fmt.Errorf("%w: %s role required", ErrForbidden, required)
	}
	return nil
}

// Grant adds role to the user. It reports whether a new row was written.
func (a *roleAuthority) Grant(ctx context.Context, userID string, role models.Role) (bool, error) {
	if !role.Valid() {
		return false, fieldError("role", "must be one of: student instructor admin")
	}
	if strings.TrimSpace(userID) == "" {
		return false, fieldError("user_id", "is required")
	}

	created, err := a.repo.InsertIfAbsent(ctx, userID, role)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if created {
		a.logger.Info().Str("user_id", userID).Str("role", string(role)).Msg("role granted")
	}
	return created, nil
}
