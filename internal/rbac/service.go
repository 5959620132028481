package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/hhportal/hhportal/internal/permissions"
	"github.com/hhportal/hhportal/internal/roles"
)

// effectiveCodesTTL bounds staleness of cached permission codes; writes
// invalidate eagerly, the TTL only covers missed invalidations.
const effectiveCodesTTL = 5 * time.Minute

// Service orchestrates role-permission and user-role bindings.
type Service struct {
	repo      Repository
	permsRepo permissions.Repository
	cache     *redis.Client
	group     singleflight.Group
	logger    *slog.Logger

	// StrictRoleAssign makes ReplaceRoles fail on unknown role names instead
	// of silently skipping them.
	StrictRoleAssign bool
}

// NewService constructs a Service. The cache client may be nil; lookups then
// always hit the store.
func NewService(repo Repository, permsRepo permissions.Repository, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, permsRepo: permsRepo, cache: cache, logger: logger}
}

// PermissionsForRole returns the permission forest assigned to a role. Only
// root-level assigned permissions become forest roots; subtrees mirror the
// global permission tree regardless of child assignment.
func (s *Service) PermissionsForRole(ctx context.Context, roleID uuid.UUID) ([]*permissions.PermissionNode, error) {
	if err := s.requireRole(ctx, roleID); err != nil {
		return nil, err
	}
	assigned, err := s.repo.AssignedPermissionIDs(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return s.buildRootedForest(ctx, assigned, true)
}

// AvailablePermissions returns root-level permissions not assigned to the role.
func (s *Service) AvailablePermissions(ctx context.Context, roleID uuid.UUID) ([]*permissions.PermissionNode, error) {
	if err := s.requireRole(ctx, roleID); err != nil {
		return nil, err
	}
	assigned, err := s.repo.AssignedPermissionIDs(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return s.buildRootedForest(ctx, assigned, false)
}

// buildRootedForest selects root permissions by assignment membership and
// attaches their full subtrees.
func (s *Service) buildRootedForest(ctx context.Context, assigned []uuid.UUID, keepAssigned bool) ([]*permissions.PermissionNode, error) {
	all, err := s.permsRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	member := make(map[uuid.UUID]struct{}, len(assigned))
	for _, id := range assigned {
		member[id] = struct{}{}
	}
	var selected []permissions.Permission
	for _, p := range all {
		if p.ParentID != nil {
			continue
		}
		if _, ok := member[p.ID]; ok == keepAssigned {
			selected = append(selected, p)
		}
	}
	return permissions.BuildForestRooted(selected, all), nil
}

// Assign replaces the whole permission set of a role. The delete+insert runs
// in one transaction, so repeating the call with the same ids always lands on
// exactly that binding set.
func (s *Service) Assign(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	if err := s.requireRole(ctx, roleID); err != nil {
		return err
	}

	unique := dedupe(permissionIDs)
	if len(unique) > 0 {
		count, err := s.repo.CountPermissions(ctx, unique)
		if err != nil {
			return err
		}
		if count != len(unique) {
			return ErrInvalidPermissionIDs
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.ReplaceRolePermissions(ctx, roleID, unique)
	})
	if err != nil {
		return err
	}
	s.invalidateRole(ctx, roleID)
	return nil
}

// Unassign removes a single permission binding from a role.
func (s *Service) Unassign(ctx context.Context, roleID, permissionID uuid.UUID) error {
	if err := s.requireRole(ctx, roleID); err != nil {
		return err
	}
	exists, err := s.permsRepo.Exists(ctx, permissionID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrPermissionNotFound
	}
	deleted, err := s.repo.DeleteRolePermission(ctx, roleID, permissionID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrBindingNotFound
	}
	s.invalidateRole(ctx, roleID)
	return nil
}

// EffectiveCodes returns the deduplicated permission codes for a user across
// all held roles. Results are cached per user; concurrent misses for the same
// user collapse into one store query.
func (s *Service) EffectiveCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if s.cache == nil {
		return s.loadCodes(ctx, userID)
	}

	key := effectiveCodesKey(userID)
	if data, err := s.cache.Get(ctx, key).Bytes(); err == nil {
		var codes []string
		if json.Unmarshal(data, &codes) == nil {
			return codes, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		codes, err := s.loadCodes(ctx, userID)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(codes); err == nil {
			if err := s.cache.Set(ctx, key, data, effectiveCodesTTL).Err(); err != nil && s.logger != nil {
				s.logger.Warn("cache effective codes", slog.Any("error", err))
			}
		}
		return codes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (s *Service) loadCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	codes, err := s.repo.EffectiveCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}

// RolesOf returns the roles held by a user.
func (s *Service) RolesOf(ctx context.Context, userID uuid.UUID) ([]roles.Role, error) {
	return s.repo.RolesOf(ctx, userID)
}

// RoleNamesOf returns the role names held by a user, for claim assembly.
func (s *Service) RoleNamesOf(ctx context.Context, userID uuid.UUID) ([]string, error) {
	held, err := s.repo.RolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(held))
	for _, role := range held {
		names = append(names, role.Name)
	}
	return names, nil
}

// ReplaceRoles removes all role bindings of a user and binds one role per
// resolvable name. Unknown names are skipped in lenient mode (the default) or
// rejected wholesale in strict mode.
func (s *Service) ReplaceRoles(ctx context.Context, userID uuid.UUID, roleNames []string) error {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}

	names := dedupeStrings(roleNames)
	var resolved []roles.Role
	if len(names) > 0 {
		resolved, err = s.repo.RolesByNames(ctx, names)
		if err != nil {
			return err
		}
	}
	if s.StrictRoleAssign && len(resolved) != len(names) {
		known := make(map[string]struct{}, len(resolved))
		for _, role := range resolved {
			known[role.Name] = struct{}{}
		}
		var unknown []string
		for _, name := range names {
			if _, ok := known[name]; !ok {
				unknown = append(unknown, name)
			}
		}
		return fmt.Errorf("%w: %s", ErrUnknownRoleNames, strings.Join(unknown, ", "))
	}

	roleIDs := make([]uuid.UUID, 0, len(resolved))
	for _, role := range resolved {
		roleIDs = append(roleIDs, role.ID)
	}
	sort.Slice(roleIDs, func(i, j int) bool { return roleIDs[i].String() < roleIDs[j].String() })

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.ReplaceUserRoles(ctx, userID, roleIDs)
	})
	if err != nil {
		return err
	}
	s.InvalidateUser(ctx, userID)
	return nil
}

// InvalidateUser drops the cached effective codes for one user.
func (s *Service) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, effectiveCodesKey(userID)).Err(); err != nil && s.logger != nil {
		s.logger.Warn("invalidate effective codes", slog.Any("error", err))
	}
}

// invalidateRole drops cached codes for every user holding the role.
func (s *Service) invalidateRole(ctx context.Context, roleID uuid.UUID) {
	if s.cache == nil {
		return
	}
	userIDs, err := s.repo.UserIDsWithRole(ctx, roleID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("list users for cache invalidation", slog.Any("error", err))
		}
		return
	}
	for _, id := range userIDs {
		s.InvalidateUser(ctx, id)
	}
}

func (s *Service) requireRole(ctx context.Context, roleID uuid.UUID) error {
	exists, err := s.repo.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoleNotFound
	}
	return nil
}

func effectiveCodesKey(userID uuid.UUID) string {
	return "rbac:codes:" + userID.String()
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
