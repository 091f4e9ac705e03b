package models

import "github.com/google/uuid"

// ensureID assigns an application generated id when the caller left it blank.
// Postgres also defaults ids, sqlite does not.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
