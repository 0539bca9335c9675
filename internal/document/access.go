package document

import "log/slog"

// AccessRepository is the slice of storage the resolver needs.
type AccessRepository interface {
	ActiveGroupIDs(userID string) ([]string, error)
	NodePermissions(nodeID string) ([]GroupPermission, error)
	NodeTitleAndParent(nodeID string) (title string, parentID *string, err error)
}

// AccessResolver computes per-node read/write access from group permissions.
//
// A node with zero permission rows is open to everyone, including users in
// no groups. That default is deliberate observed behavior; callers that want
// a closed node must attach at least one permission row at creation.
type AccessResolver struct {
	repo   AccessRepository
	logger *slog.Logger
}

func NewAccessResolver(repo AccessRepository, logger *slog.Logger) *AccessResolver {
	return &AccessResolver{repo: repo, logger: logger}
}

// HasNodeAccess reports whether the user can read the node.
func (a *AccessResolver) HasNodeAccess(userID, nodeID string) (bool, error) {
	groupIDs, err := a.repo.ActiveGroupIDs(userID)
	if err != nil {
		return false, err
	}
	return a.HasAccessWithGroups(groupIDs, nodeID, false)
}

// HasNodeWriteAccess reports whether the user can modify the node.
func (a *AccessResolver) HasNodeWriteAccess(userID, nodeID string) (bool, error) {
	groupIDs, err := a.repo.ActiveGroupIDs(userID)
	if err != nil {
		return false, err
	}
	return a.HasAccessWithGroups(groupIDs, nodeID, true)
}

// HasAccessWithGroups is the group-set variant; search uses it so the
// caller's groups are fetched once per request, not once per hit.
func (a *AccessResolver) HasAccessWithGroups(groupIDs []string, nodeID string, write bool) (bool, error) {
	perms, err := a.repo.NodePermissions(nodeID)
	if err != nil {
		return false, err
	}

	// No permission rows means the node is world accessible.
	if len(perms) == 0 {
		a.logger.Debug("node has no permission rows, granting open access", "node_id", nodeID)
		return true, nil
	}

	memberOf := make(map[string]bool, len(groupIDs))
	for _, id := range groupIDs {
		memberOf[id] = true
	}

	for _, perm := range perms {
		if !memberOf[perm.UserGroupID] {
			continue
		}
		if !write {
			return true, nil
		}
		if perm.PermissionLevel == PermissionWrite || perm.PermissionLevel == PermissionAdmin {
			return true, nil
		}
	}

	return false, nil
}

// NodePath walks parent pointers upward and returns the top-down breadcrumb
// of titles. The walk stops at a root, a missing node, or a deleted node.
func (a *AccessResolver) NodePath(nodeID string) ([]string, error) {
	path := []string{}
	currentID := &nodeID

	for currentID != nil {
		title, parentID, err := a.repo.NodeTitleAndParent(*currentID)
		if err != nil {
			break
		}
		path = append([]string{title}, path...)
		currentID = parentID
	}

	return path, nil
}
