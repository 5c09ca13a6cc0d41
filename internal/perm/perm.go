// Package perm holds the ownership rule that decides which document action
// a user is offered.
package perm

import (
	"strings"

	"folio-cli/internal/model"
)

// IsDocumentOwner reports whether userID owns doc. A document with no
// recorded owner is treated as owned, so its menu offers Delete.
func IsDocumentOwner(doc model.Document, userID string) bool {
	owner := strings.TrimSpace(doc.UserID)
	if owner == "" {
		return true
	}
	return owner == strings.TrimSpace(userID)
}
