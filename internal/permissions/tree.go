package permissions

import "github.com/google/uuid"

// maxTreeDepth bounds forest materialization. The schema restricts deletes,
// not reparenting, so a cycle persisted by a raw SQL edit must not hang a
// request; branches beyond the bound come back truncated.
const maxTreeDepth = 64

// BuildForest materializes the full permission forest from a flat, ordered
// permission list. Input order is preserved at every level, so callers that
// pass rows sorted by (created_at, id) get the same forest on every read.
func BuildForest(all []Permission) []*PermissionNode {
	roots := make([]Permission, 0, len(all))
	for _, p := range all {
		if p.ParentID == nil {
			roots = append(roots, p)
		}
	}
	return BuildForestRooted(roots, all)
}

// BuildForestRooted materializes a forest from the given roots, attaching
// child subtrees out of the complete permission list. Used by role-permission
// queries where only assigned root permissions become forest roots while
// their subtrees mirror the global tree.
func BuildForestRooted(roots, all []Permission) []*PermissionNode {
	children := make(map[uuid.UUID][]Permission, len(all))
	for _, p := range all {
		if p.ParentID != nil {
			children[*p.ParentID] = append(children[*p.ParentID], p)
		}
	}
	forest := make([]*PermissionNode, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, buildNode(root, children, 1))
	}
	return forest
}

func buildNode(p Permission, children map[uuid.UUID][]Permission, depth int) *PermissionNode {
	node := &PermissionNode{
		ID:           p.ID,
		Name:         p.Name,
		Code:         p.Code,
		ResourceType: p.ResourceType.String(),
		ResourcePath: p.ResourcePath,
		ParentID:     p.ParentID,
		Children:     []*PermissionNode{},
	}
	if depth >= maxTreeDepth {
		return node
	}
	for _, child := range children[p.ID] {
		node.Children = append(node.Children, buildNode(child, children, depth+1))
	}
	return node
}
