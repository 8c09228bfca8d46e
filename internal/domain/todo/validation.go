package todo

import (
	"strings"
	"unicode/utf8"
)

// MaxTextLength is the longest accepted item text, in characters.
const MaxTextLength = 500

// ValidateCreateInput normalises and validates a create request.
func ValidateCreateInput(req *CreateRequest) error {
	var verr ValidationError
	req.Text = strings.TrimSpace(req.Text)
	validateText(&verr, req.Text)
	if req.Priority == "" {
		req.Priority = PriorityMedium
	} else if !req.Priority.Valid() {
		verr.add("priority", "must be one of high, medium, low")
	}
	return verr.orNil()
}

// ValidateUpdateInput normalises and validates a partial update.
func ValidateUpdateInput(req *UpdateRequest) error {
	var verr ValidationError
	if strings.TrimSpace(req.ID) == "" {
		verr.add("id", "must not be empty")
	}
	if req.Text != nil {
		text := strings.TrimSpace(*req.Text)
		req.Text = &text
		validateText(&verr, text)
	}
	if req.Priority != nil && !req.Priority.Valid() {
		verr.add("priority", "must be one of high, medium, low")
	}
	return verr.orNil()
}

func validateText(verr *ValidationError, text string) {
	switch {
	case text == "":
		verr.add("text", "must not be empty")
	case utf8.RuneCountInString(text) > MaxTextLength:
		verr.add("text", "must be at most 500 characters")
	}
}
