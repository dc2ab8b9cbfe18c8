package store

import (
	"context"

	"github.com/phmhse/csmstrack/internal/models"
	"gorm.io/gorm"
)

// Snapshot is the record set one reminder run or report assembly works on.
type Snapshot struct {
	Projects  []models.Project
	Tasks     []models.Task
	Schedules []models.Schedule
	PB        []models.CsmsPB
}

// Scope limits a snapshot to one project. The zero Scope loads everything.
type Scope struct {
	ProjectID string
}

// LoadSnapshot reads every table the engine needs. Each slice is ordered by
// id. A failed read returns ErrUpstreamUnavailable and no partial snapshot.
func LoadSnapshot(ctx context.Context, db *gorm.DB, sc Scope) (*Snapshot, error) {
	var projects, owned Filter
	if sc.ProjectID != "" {
		projects.Where = map[string]any{"id": sc.ProjectID}
		owned.Where = map[string]any{"project_id": sc.ProjectID}
	}

	var (
		snap Snapshot
		err  error
	)
	if snap.Projects, err = List[models.Project](ctx, db, projects); err != nil {
		return nil, err
	}
	if snap.Tasks, err = List[models.Task](ctx, db, owned); err != nil {
		return nil, err
	}
	if snap.Schedules, err = List[models.Schedule](ctx, db, owned); err != nil {
		return nil, err
	}
	if snap.PB, err = List[models.CsmsPB](ctx, db, owned); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ProjectByID indexes the snapshot's projects.
func (s *Snapshot) ProjectByID() map[string]*models.Project {
	m := make(map[string]*models.Project, len(s.Projects))
	for i := range s.Projects {
		m[s.Projects[i].ID] = &s.Projects[i]
	}
	return m
}

// TasksByProject groups the snapshot's tasks by project id.
func (s *Snapshot) TasksByProject() map[string][]models.Task {
	m := make(map[string][]models.Task)
	for _, t := range s.Tasks {
		m[t.ProjectID] = append(m[t.ProjectID], t)
	}
	return m
}
