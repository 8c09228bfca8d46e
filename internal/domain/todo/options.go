package todo

// ListOptions provides filtering options for listing items.
type ListOptions struct {
	// Completed restricts the result to one completion state when non-nil.
	Completed *bool
}

// CreateRequest describes an item creation request.
type CreateRequest struct {
	Text     string
	Priority Priority
}

// UpdateRequest describes a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	ID        string
	Text      *string
	Completed *bool
	Priority  *Priority
}
