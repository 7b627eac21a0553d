package tasks

import "tasktree/internal/models"

// BuildTree reassembles a flat, id-ordered task list into the nested tree
// served to clients. It is pure and never fails.
//
// A task whose parent_id references a task missing from the input (filtered
// out upstream, e.g. by a status predicate) is dropped: orphaned children
// must not surface as roots in a filtered view.
func BuildTree(flat []models.Task) []*models.TaskNode {
	nodes := make(map[int64]*models.TaskNode, len(flat))
	for _, t := range flat {
		nodes[t.ID] = &models.TaskNode{Task: t, Children: []*models.TaskNode{}}
	}

	roots := []*models.TaskNode{}
	for _, t := range flat {
		node := nodes[t.ID]
		if t.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*t.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}
	return roots
}
