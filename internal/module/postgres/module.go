package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cflux/backoffice/internal/module"
)

// ModuleRepository implements module.Repository using GORM.
type ModuleRepository struct {
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) module.Repository {
	return &ModuleRepository{db: db}
}

func (r *ModuleRepository) GetUser(userID string) (*module.UserInfo, error) {
	var row struct {
		ID       string
		Role     string
		IsActive bool
	}
	err := r.db.Table("users").
		Select("id, role, is_active").
		Where("id = ?", userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &module.UserInfo{ID: row.ID, Role: row.Role, IsActive: row.IsActive}, nil
}

func (r *ModuleRepository) ActiveGroupIDs(userID string) ([]string, error) {
	var ids []string
	err := r.db.Table("user_group_memberships").
		Select("user_group_memberships.user_group_id").
		Joins("JOIN user_groups ON user_groups.id = user_group_memberships.user_group_id").
		Where("user_group_memberships.user_id = ? AND user_groups.is_active = ?", userID, true).
		Scan(&ids).Error
	return ids, err
}

func (r *ModuleRepository) AccessForModuleKey(groupIDs []string, moduleKey string) ([]module.Access, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var access []module.Access
	err := r.db.Joins("JOIN modules ON modules.id = module_access.module_id").
		Where("module_access.user_group_id IN ?", groupIDs).
		Where("modules.key = ? AND modules.is_active = ?", moduleKey, true).
		Find(&access).Error
	return access, err
}

func (r *ModuleRepository) AccessWithModules(groupIDs []string) ([]module.Access, map[string]module.Module, error) {
	if len(groupIDs) == 0 {
		return nil, nil, nil
	}

	var access []module.Access
	err := r.db.Joins("JOIN modules ON modules.id = module_access.module_id").
		Where("module_access.user_group_id IN ?", groupIDs).
		Where("modules.is_active = ?", true).
		Find(&access).Error
	if err != nil {
		return nil, nil, err
	}

	moduleIDs := make([]string, 0, len(access))
	for _, a := range access {
		moduleIDs = append(moduleIDs, a.ModuleID)
	}

	modulesByID := make(map[string]module.Module, len(moduleIDs))
	if len(moduleIDs) > 0 {
		var modules []module.Module
		if err := r.db.Where("id IN ?", moduleIDs).Find(&modules).Error; err != nil {
			return nil, nil, err
		}
		for _, m := range modules {
			modulesByID[m.ID] = m
		}
	}
	return access, modulesByID, nil
}

func (r *ModuleRepository) ActiveModules() ([]module.Module, error) {
	var modules []module.Module
	err := r.db.Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&modules).Error
	return modules, err
}

func (r *ModuleRepository) CreateModule(m *module.Module) error {
	return r.db.Create(m).Error
}

func (r *ModuleRepository) GetModules(includeInactive bool) ([]module.Module, error) {
	q := r.db.Order("sort_order ASC, name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var modules []module.Module
	err := q.Find(&modules).Error
	return modules, err
}

func (r *ModuleRepository) GetModuleByID(id string) (*module.Module, error) {
	var m module.Module
	err := r.db.Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, module.ErrModuleNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *ModuleRepository) UpdateModule(m *module.Module) error {
	return r.db.Save(m).Error
}

func (r *ModuleRepository) DeleteModule(id string) error {
	return r.db.Where("id = ?", id).Delete(&module.Module{}).Error
}

func (r *ModuleRepository) CreateAccess(a *module.Access) error {
	return r.db.Create(a).Error
}

func (r *ModuleRepository) GetAccessByID(id string) (*module.Access, error) {
	var a module.Access
	err := r.db.Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, module.ErrAccessNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ModuleRepository) UpdateAccess(a *module.Access) error {
	return r.db.Save(a).Error
}

func (r *ModuleRepository) DeleteAccess(id string) error {
	return r.db.Where("id = ?", id).Delete(&module.Access{}).Error
}

func (r *ModuleRepository) AccessByGroup(groupID string) ([]module.Access, error) {
	var access []module.Access
	err := r.db.Where("user_group_id = ?", groupID).Find(&access).Error
	return access, err
}

func (r *ModuleRepository) AccessByModule(moduleID string) ([]module.Access, error) {
	var access []module.Access
	err := r.db.Where("module_id = ?", moduleID).Find(&access).Error
	return access, err
}
