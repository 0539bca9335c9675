package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cflux/backoffice/internal/document"
)

// DocumentRepository implements document.Repository and
// document.SearchRepository using GORM.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) ActiveGroupIDs(userID string) ([]string, error) {
	var ids []string
	err := r.db.Table("user_group_memberships").
		Select("user_group_memberships.user_group_id").
		Joins("JOIN user_groups ON user_groups.id = user_group_memberships.user_group_id").
		Where("user_group_memberships.user_id = ? AND user_groups.is_active = ?", userID, true).
		Scan(&ids).Error
	return ids, err
}

func (r *DocumentRepository) NodePermissions(nodeID string) ([]document.GroupPermission, error) {
	var perms []document.GroupPermission
	err := r.db.Where("document_node_id = ?", nodeID).Find(&perms).Error
	return perms, err
}

func (r *DocumentRepository) NodeTitleAndParent(nodeID string) (string, *string, error) {
	var row struct {
		Title    string
		ParentID *string
	}
	err := r.db.Model(&document.Node{}).
		Select("title, parent_id").
		Where("id = ? AND deleted_at IS NULL", nodeID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, document.ErrNodeNotFound
		}
		return "", nil, err
	}
	return row.Title, row.ParentID, nil
}

func (r *DocumentRepository) CreateNode(n *document.Node) error {
	return r.db.Create(n).Error
}

func (r *DocumentRepository) GetNodeByID(id string) (*document.Node, error) {
	var node document.Node
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&node).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, document.ErrNodeNotFound
		}
		return nil, err
	}
	return &node, nil
}

func (r *DocumentRepository) GetAllNodes() ([]document.Node, error) {
	var nodes []document.Node
	err := r.db.Where("deleted_at IS NULL").
		Order("sort_order ASC, title ASC").
		Find(&nodes).Error
	return nodes, err
}

func (r *DocumentRepository) GetChildren(parentID string) ([]document.Node, error) {
	var nodes []document.Node
	err := r.db.Where("parent_id = ? AND deleted_at IS NULL", parentID).
		Order("sort_order ASC, title ASC").
		Find(&nodes).Error
	return nodes, err
}

func (r *DocumentRepository) UpdateNode(n *document.Node) error {
	return r.db.Save(n).Error
}

func (r *DocumentRepository) SoftDeleteNode(id, userID string) error {
	now := time.Now()
	return r.db.Model(&document.Node{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"deleted_at":    now,
			"updated_by_id": userID,
			"updated_at":    now,
		}).Error
}

func (r *DocumentRepository) CountSiblings(parentID *string) (int64, error) {
	var count int64
	q := r.db.Model(&document.Node{}).Where("deleted_at IS NULL")
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *DocumentRepository) LatestVersionNumber(nodeID string) (int, error) {
	var latest *int
	err := r.db.Model(&document.Version{}).
		Select("MAX(version)").
		Where("document_node_id = ?", nodeID).
		Scan(&latest).Error
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 0, nil
	}
	return *latest, nil
}

func (r *DocumentRepository) CreateVersion(v *document.Version) error {
	return r.db.Create(v).Error
}

func (r *DocumentRepository) ListVersions(nodeID string) ([]document.Version, error) {
	var versions []document.Version
	err := r.db.Where("document_node_id = ?", nodeID).
		Order("version DESC").
		Find(&versions).Error
	return versions, err
}

func (r *DocumentRepository) CreatePermission(p *document.GroupPermission) error {
	return r.db.Create(p).Error
}

// contains builds a case-insensitive LIKE pattern. LOWER/LIKE instead of
// ILIKE so the same queries run on the sqlite test database.
func contains(term string) string {
	return "%" + term + "%"
}

func (r *DocumentRepository) SearchNodes(term string, limit int) ([]document.NodeHit, error) {
	pattern := contains(term)
	var rows []struct {
		document.Node
		FirstName string
		LastName  string
	}
	err := r.db.Table("document_nodes").
		Select("document_nodes.*, users.first_name, users.last_name").
		Joins("LEFT JOIN users ON users.id = document_nodes.created_by_id").
		Where("document_nodes.deleted_at IS NULL").
		Where("LOWER(document_nodes.title) LIKE LOWER(?) OR LOWER(document_nodes.content) LIKE LOWER(?)", pattern, pattern).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	hits := make([]document.NodeHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, document.NodeHit{
			Node:      row.Node,
			CreatedBy: document.CreatorName{FirstName: row.FirstName, LastName: row.LastName},
		})
	}
	return hits, nil
}

func (r *DocumentRepository) SearchAttachments(term string, limit int) ([]document.AttachmentHit, error) {
	pattern := contains(term)
	var rows []struct {
		ID               string
		NodeID           string
		NodeTitle        string
		OriginalFilename string
		Description      string
		Version          int
		FileSize         int64
		MimeType         string
		CreatedAt        time.Time
		UpdatedAt        time.Time
		FirstName        string
		LastName         string
	}
	err := r.db.Table("document_node_attachments").
		Select(`document_node_attachments.id,
			document_node_attachments.document_node_id AS node_id,
			document_nodes.title AS node_title,
			document_node_attachments.original_filename,
			document_node_attachments.description,
			document_node_attachments.version,
			document_node_attachments.file_size,
			document_node_attachments.mime_type,
			document_node_attachments.created_at,
			document_node_attachments.updated_at,
			users.first_name, users.last_name`).
		Joins("JOIN document_nodes ON document_nodes.id = document_node_attachments.document_node_id").
		Joins("LEFT JOIN users ON users.id = document_node_attachments.uploaded_by_id").
		Where("document_node_attachments.deleted_at IS NULL AND document_nodes.deleted_at IS NULL").
		Where("LOWER(document_node_attachments.original_filename) LIKE LOWER(?) OR LOWER(document_node_attachments.description) LIKE LOWER(?)", pattern, pattern).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	hits := make([]document.AttachmentHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, document.AttachmentHit{
			ID:               row.ID,
			NodeID:           row.NodeID,
			NodeTitle:        row.NodeTitle,
			OriginalFilename: row.OriginalFilename,
			Description:      row.Description,
			Version:          row.Version,
			FileSize:         row.FileSize,
			MimeType:         row.MimeType,
			CreatedAt:        row.CreatedAt,
			UpdatedAt:        row.UpdatedAt,
			CreatedBy:        document.CreatorName{FirstName: row.FirstName, LastName: row.LastName},
		})
	}
	return hits, nil
}

func (r *DocumentRepository) SearchVersions(term string, limit int) ([]document.VersionHit, error) {
	pattern := contains(term)
	var rows []struct {
		ID          string
		NodeID      string
		NodeTitle   string
		NodeDeleted bool
		Version     int
		Content     string
		CreatedAt   time.Time
		FirstName   string
		LastName    string
	}
	err := r.db.Table("document_versions").
		Select(`document_versions.id,
			document_versions.document_node_id AS node_id,
			document_nodes.title AS node_title,
			document_nodes.deleted_at IS NOT NULL AS node_deleted,
			document_versions.version,
			document_versions.content,
			document_versions.created_at,
			users.first_name, users.last_name`).
		Joins("JOIN document_nodes ON document_nodes.id = document_versions.document_node_id").
		Joins("LEFT JOIN users ON users.id = document_versions.created_by_id").
		Where("LOWER(document_versions.content) LIKE LOWER(?)", pattern).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	hits := make([]document.VersionHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, document.VersionHit{
			ID:          row.ID,
			NodeID:      row.NodeID,
			NodeTitle:   row.NodeTitle,
			NodeDeleted: row.NodeDeleted,
			Version:     row.Version,
			Content:     row.Content,
			CreatedAt:   row.CreatedAt,
			CreatedBy:   document.CreatorName{FirstName: row.FirstName, LastName: row.LastName},
		})
	}
	return hits, nil
}

func (r *DocumentRepository) SuggestTitles(term string, limit int) ([]document.Suggestion, error) {
	var suggestions []document.Suggestion
	err := r.db.Table("document_nodes").
		Select("id, title").
		Where("deleted_at IS NULL").
		Where("LOWER(title) LIKE LOWER(?)", contains(term)).
		Order("title ASC").
		Limit(limit).
		Scan(&suggestions).Error
	return suggestions, err
}
