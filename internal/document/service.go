package document

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cflux/backoffice/internal"
	"github.com/cflux/backoffice/internal/module"
)

// Repository defines the data access methods for document nodes.
type Repository interface {
	AccessRepository

	CreateNode(n *Node) error
	GetNodeByID(id string) (*Node, error)
	GetAllNodes() ([]Node, error)
	GetChildren(parentID string) ([]Node, error)
	UpdateNode(n *Node) error
	SoftDeleteNode(id, userID string) error
	CountSiblings(parentID *string) (int64, error)

	LatestVersionNumber(nodeID string) (int, error)
	CreateVersion(v *Version) error
	ListVersions(nodeID string) ([]Version, error)

	CreatePermission(p *GroupPermission) error
}

// Service handles document tree business logic.
type Service struct {
	repo   Repository
	access *AccessResolver
	perms  PermissionChecker
	logger *slog.Logger
}

func NewService(repo Repository, access *AccessResolver, perms PermissionChecker, logger *slog.Logger) *Service {
	return &Service{repo: repo, access: access, perms: perms, logger: logger}
}

// Access returns the node access resolver shared with search and attachments.
func (s *Service) Access() *AccessResolver {
	return s.access
}

// CreateNode creates a folder or document, its initial version when it is a
// document, and any initial group permissions supplied by the caller.
func (s *Service) CreateNode(userID string, dto *CreateNodeDTO) (*Node, error) {
	if err := s.requireWrite(userID); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if dto.ParentID != nil {
		parent, err := s.repo.GetNodeByID(*dto.ParentID)
		if err != nil || parent == nil {
			return nil, ErrNodeNotFound
		}
		ok, err := s.access.HasNodeWriteAccess(userID, *dto.ParentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoWriteAccess
		}
	}

	sortOrder := 0
	if dto.SortOrder != nil {
		sortOrder = *dto.SortOrder
	} else {
		siblings, err := s.repo.CountSiblings(dto.ParentID)
		if err != nil {
			return nil, err
		}
		sortOrder = int(siblings)
	}

	content := ""
	if dto.Content != nil {
		content = *dto.Content
	}

	node := &Node{
		ID:          uuid.NewString(),
		ParentID:    dto.ParentID,
		Title:       dto.Title,
		Content:     &content,
		Type:        dto.Type,
		SortOrder:   sortOrder,
		CreatedByID: userID,
		UpdatedByID: &userID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.repo.CreateNode(node); err != nil {
		s.logger.Error("failed to create document node", "error", err, "title", dto.Title)
		return nil, err
	}

	if dto.Type == NodeTypeDocument {
		version := &Version{
			ID:          uuid.NewString(),
			NodeID:      node.ID,
			Version:     1,
			Title:       node.Title,
			Content:     content,
			CreatedByID: userID,
			CreatedAt:   time.Now(),
		}
		if err := s.repo.CreateVersion(version); err != nil {
			return nil, err
		}
	}

	for _, perm := range dto.Permissions {
		p := &GroupPermission{
			ID:              uuid.NewString(),
			NodeID:          node.ID,
			UserGroupID:     perm.UserGroupID,
			PermissionLevel: perm.PermissionLevel,
			CreatedAt:       time.Now(),
		}
		if err := s.repo.CreatePermission(p); err != nil {
			return nil, err
		}
	}

	if len(dto.Permissions) == 0 {
		// Open-access default: without permission rows everyone can read and
		// write this node.
		s.logger.Info("document node created without permissions, node is world accessible", "node_id", node.ID)
	}

	return node, nil
}

// GetTree returns every node the caller can read, flat, ordered by parent
// and sort order; the client assembles the hierarchy.
func (s *Service) GetTree(userID string) ([]Node, error) {
	if err := s.requireRead(userID); err != nil {
		return nil, err
	}

	nodes, err := s.repo.GetAllNodes()
	if err != nil {
		return nil, err
	}

	groupIDs, err := s.repo.ActiveGroupIDs(userID)
	if err != nil {
		return nil, err
	}

	visible := []Node{}
	for _, node := range nodes {
		ok, err := s.access.HasAccessWithGroups(groupIDs, node.ID, false)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, node)
		}
	}

	return visible, nil
}

func (s *Service) GetNode(userID, nodeID string) (*Node, error) {
	if err := s.requireRead(userID); err != nil {
		return nil, err
	}

	node, err := s.repo.GetNodeByID(nodeID)
	if err != nil || node == nil {
		return nil, ErrNodeNotFound
	}

	ok, err := s.access.HasNodeAccess(userID, nodeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoReadAccess
	}

	return node, nil
}

// UpdateNode applies partial updates. A content change on a document
// appends a new immutable version snapshot before the node is updated.
func (s *Service) UpdateNode(userID, nodeID string, dto *UpdateNodeDTO) (*Node, error) {
	if err := s.requireWrite(userID); err != nil {
		return nil, err
	}

	node, err := s.repo.GetNodeByID(nodeID)
	if err != nil || node == nil {
		return nil, ErrNodeNotFound
	}

	ok, err := s.access.HasNodeWriteAccess(userID, nodeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, internal.ErrNodeAccessDenied
	}

	if dto.Title != nil {
		node.Title = *dto.Title
	}
	if dto.SortOrder != nil {
		node.SortOrder = *dto.SortOrder
	}
	if dto.Content != nil && node.Type == NodeTypeDocument {
		node.Content = dto.Content

		latest, err := s.repo.LatestVersionNumber(nodeID)
		if err != nil {
			return nil, err
		}
		version := &Version{
			ID:          uuid.NewString(),
			NodeID:      nodeID,
			Version:     latest + 1,
			Title:       node.Title,
			Content:     *dto.Content,
			CreatedByID: userID,
			CreatedAt:   time.Now(),
		}
		if err := s.repo.CreateVersion(version); err != nil {
			return nil, err
		}
	}

	node.UpdatedByID = &userID
	node.UpdatedAt = time.Now()

	if err := s.repo.UpdateNode(node); err != nil {
		s.logger.Error("failed to update document node", "error", err, "node_id", nodeID)
		return nil, err
	}

	return node, nil
}

// DeleteNode soft-deletes the node and all of its descendants. Nothing is
// physically removed; versions and permissions stay for audit.
func (s *Service) DeleteNode(userID, nodeID string) error {
	if err := s.requireWrite(userID); err != nil {
		return err
	}

	node, err := s.repo.GetNodeByID(nodeID)
	if err != nil || node == nil {
		return ErrNodeNotFound
	}

	ok, err := s.access.HasNodeWriteAccess(userID, nodeID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrNodeAccessDenied
	}

	return s.deleteRecursive(nodeID, userID)
}

func (s *Service) deleteRecursive(nodeID, userID string) error {
	children, err := s.repo.GetChildren(nodeID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.deleteRecursive(child.ID, userID); err != nil {
			return err
		}
	}
	return s.repo.SoftDeleteNode(nodeID, userID)
}

func (s *Service) ListVersions(userID, nodeID string) ([]Version, error) {
	if err := s.requireRead(userID); err != nil {
		return nil, err
	}

	node, err := s.repo.GetNodeByID(nodeID)
	if err != nil || node == nil {
		return nil, ErrNodeNotFound
	}

	ok, err := s.access.HasNodeAccess(userID, nodeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoReadAccess
	}

	return s.repo.ListVersions(nodeID)
}

func (s *Service) requireRead(userID string) error {
	hasRead, err := s.perms.CheckPermission(userID, ModuleKey, module.PermissionRead)
	if err != nil {
		return err
	}
	if !hasRead {
		return ErrNoReadAccess
	}
	return nil
}

func (s *Service) requireWrite(userID string) error {
	hasWrite, err := s.perms.CheckPermission(userID, ModuleKey, module.PermissionWrite)
	if err != nil {
		return err
	}
	if !hasWrite {
		return ErrNoWriteAccess
	}
	return nil
}
