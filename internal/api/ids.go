package api

import "github.com/phmhse/csmstrack/internal/models"

// setID pins the primary key of a decoded record to the path id.
func setID(rec any, id string) {
	switch r := rec.(type) {
	case *models.Project:
		r.ID = id
	case *models.Task:
		r.ID = id
	case *models.Schedule:
		r.ID = id
	case *models.Comment:
		r.ID = id
	case *models.CsmsPB:
		r.ID = id
	case *models.RelatedDoc:
		r.ID = id
	}
}
