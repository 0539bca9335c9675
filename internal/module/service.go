package module

import (
	"log/slog"
	"sort"
)

// Repository defines the data access methods for modules and grants.
type Repository interface {
	GetUser(userID string) (*UserInfo, error)
	ActiveGroupIDs(userID string) ([]string, error)
	AccessForModuleKey(groupIDs []string, moduleKey string) ([]Access, error)
	AccessWithModules(groupIDs []string) ([]Access, map[string]Module, error)
	ActiveModules() ([]Module, error)

	CreateModule(m *Module) error
	GetModules(includeInactive bool) ([]Module, error)
	GetModuleByID(id string) (*Module, error)
	UpdateModule(m *Module) error
	DeleteModule(id string) error

	CreateAccess(a *Access) error
	GetAccessByID(id string) (*Access, error)
	UpdateAccess(a *Access) error
	DeleteAccess(id string) error
	AccessByGroup(groupID string) ([]Access, error)
	AccessByModule(moduleID string) ([]Access, error)
}

// Service resolves module permissions and manages module administration.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CheckPermission reports whether the user holds the given coarse capability
// on the module. Admins always pass. READ is satisfied by canView, WRITE by
// canEdit or canCreate.
func (s *Service) CheckPermission(userID, moduleKey string, perm Permission) (bool, error) {
	user, err := s.repo.GetUser(userID)
	if err != nil || user == nil {
		return false, nil
	}

	if user.Role == RoleAdmin {
		return true, nil
	}

	groupIDs, err := s.repo.ActiveGroupIDs(userID)
	if err != nil {
		return false, err
	}
	if len(groupIDs) == 0 {
		return false, nil
	}

	grants, err := s.repo.AccessForModuleKey(groupIDs, moduleKey)
	if err != nil {
		return false, err
	}

	for _, grant := range grants {
		switch perm {
		case PermissionRead:
			if grant.CanView {
				return true, nil
			}
		case PermissionWrite:
			if grant.CanEdit || grant.CanCreate {
				return true, nil
			}
		}
	}

	return false, nil
}

// CheckAccess is the per-action variant used by route middleware.
func (s *Service) CheckAccess(userID, moduleKey string, action Action) (bool, error) {
	user, err := s.repo.GetUser(userID)
	if err != nil || user == nil {
		return false, nil
	}

	if user.Role == RoleAdmin {
		return true, nil
	}

	groupIDs, err := s.repo.ActiveGroupIDs(userID)
	if err != nil {
		return false, err
	}
	if len(groupIDs) == 0 {
		return false, nil
	}

	grants, err := s.repo.AccessForModuleKey(groupIDs, moduleKey)
	if err != nil {
		return false, err
	}

	for _, grant := range grants {
		if grantAllows(grant, action) {
			return true, nil
		}
	}

	return false, nil
}

func grantAllows(a Access, action Action) bool {
	switch action {
	case ActionView:
		return a.CanView
	case ActionCreate:
		return a.CanCreate
	case ActionEdit:
		return a.CanEdit
	case ActionDelete:
		return a.CanDelete
	}
	return false
}

// ModulesForUser lists the active modules the user can see, with permissions
// merged across all of the user's groups by logical OR. Admins see every
// active module with full permissions.
func (s *Service) ModulesForUser(userID string) ([]UserModule, error) {
	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.Role == RoleAdmin {
		modules, err := s.repo.ActiveModules()
		if err != nil {
			return nil, err
		}
		result := make([]UserModule, 0, len(modules))
		for _, m := range modules {
			result = append(result, UserModule{
				Module:      m,
				Permissions: Permissions{CanView: true, CanCreate: true, CanEdit: true, CanDelete: true},
			})
		}
		sortUserModules(result)
		return result, nil
	}

	groupIDs, err := s.repo.ActiveGroupIDs(userID)
	if err != nil {
		return nil, err
	}
	if len(groupIDs) == 0 {
		return []UserModule{}, nil
	}

	grants, modules, err := s.repo.AccessWithModules(groupIDs)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]Permissions)
	for _, grant := range grants {
		m, ok := modules[grant.ModuleID]
		if !ok || !m.IsActive {
			continue
		}
		p := merged[grant.ModuleID]
		p.CanView = p.CanView || grant.CanView
		p.CanCreate = p.CanCreate || grant.CanCreate
		p.CanEdit = p.CanEdit || grant.CanEdit
		p.CanDelete = p.CanDelete || grant.CanDelete
		merged[grant.ModuleID] = p
	}

	result := make([]UserModule, 0, len(merged))
	for moduleID, perms := range merged {
		if !perms.CanView {
			continue
		}
		result = append(result, UserModule{Module: modules[moduleID], Permissions: perms})
	}
	sortUserModules(result)

	return result, nil
}

func sortUserModules(modules []UserModule) {
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].SortOrder != modules[j].SortOrder {
			return modules[i].SortOrder < modules[j].SortOrder
		}
		return modules[i].Name < modules[j].Name
	})
}

func (s *Service) CreateModule(dto *CreateModuleDTO) (*Module, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	m := &Module{
		Name:        dto.Name,
		Key:         dto.Key,
		Description: dto.Description,
		Icon:        dto.Icon,
		Route:       dto.Route,
		IsActive:    true,
		SortOrder:   dto.SortOrder,
	}

	if err := s.repo.CreateModule(m); err != nil {
		s.logger.Error("failed to create module", "error", err, "key", dto.Key)
		return nil, err
	}

	return m, nil
}

func (s *Service) GetModules(includeInactive bool) ([]Module, error) {
	return s.repo.GetModules(includeInactive)
}

func (s *Service) GetModuleByID(id string) (*Module, error) {
	m, err := s.repo.GetModuleByID(id)
	if err != nil {
		return nil, ErrModuleNotFound
	}
	return m, nil
}

func (s *Service) UpdateModule(id string, dto *UpdateModuleDTO) (*Module, error) {
	m, err := s.repo.GetModuleByID(id)
	if err != nil {
		return nil, ErrModuleNotFound
	}

	dto.Apply(m)

	if err := s.repo.UpdateModule(m); err != nil {
		s.logger.Error("failed to update module", "error", err, "module_id", id)
		return nil, err
	}

	return m, nil
}

func (s *Service) DeleteModule(id string) error {
	if _, err := s.repo.GetModuleByID(id); err != nil {
		return ErrModuleNotFound
	}
	return s.repo.DeleteModule(id)
}

// GrantAccess creates a grant from a user group to a module.
func (s *Service) GrantAccess(dto *GrantAccessDTO) (*Access, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a := &Access{
		ModuleID:    dto.ModuleID,
		UserGroupID: dto.UserGroupID,
		CanView:     dto.CanView,
		CanCreate:   dto.CanCreate,
		CanEdit:     dto.CanEdit,
		CanDelete:   dto.CanDelete,
	}

	if err := s.repo.CreateAccess(a); err != nil {
		s.logger.Error("failed to grant module access", "error", err,
			"module_id", dto.ModuleID, "user_group_id", dto.UserGroupID)
		return nil, err
	}

	return a, nil
}

func (s *Service) UpdateAccess(id string, dto *UpdatePermissionsDTO) (*Access, error) {
	a, err := s.repo.GetAccessByID(id)
	if err != nil {
		return nil, ErrAccessNotFound
	}

	dto.Apply(a)

	if err := s.repo.UpdateAccess(a); err != nil {
		s.logger.Error("failed to update module access", "error", err, "access_id", id)
		return nil, err
	}

	return a, nil
}

func (s *Service) RevokeAccess(id string) error {
	if _, err := s.repo.GetAccessByID(id); err != nil {
		return ErrAccessNotFound
	}
	return s.repo.DeleteAccess(id)
}

func (s *Service) AccessByGroup(groupID string) ([]Access, error) {
	return s.repo.AccessByGroup(groupID)
}

func (s *Service) GroupsForModule(moduleID string) ([]Access, error) {
	return s.repo.AccessByModule(moduleID)
}
