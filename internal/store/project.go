package store

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
	"github.com/phmhse/csmstrack/internal/score"
	"gorm.io/gorm"
)

// TemplateTask is one entry of the standard CSMS checklist.
type TemplateTask struct {
	Code     string
	Title    string
	Category string
}

// StandardTasks is the checklist seeded into every new project.
var StandardTasks = []TemplateTask{
	{"1.1", "MWT Report", "Management"},
	{"1.2", "HSE Committee Meeting", "Management"},
	{"1.3", "Poster IOGP CLSR", "Management"},

	{"2.1", "Foto Rambu K3 (Rambu Titik Jepit, Chemical, No Smoking, Electricity)", "Safety Signs"},
	{"2.2", "Foto Pemasangan Poster Live Saving Rules", "Safety Signs"},
	{"2.3", "Foto Meeting dilokasi (HSE Weekly, PJSM, Tailgate)", "Safety Signs"},
	{"2.4", "Foto saat menyampaikan safety moment dilokasi", "Safety Signs"},

	{"3.1", "Foto training dilokasi (H2S, SIKA, JSA, etc)", "Training"},
	{"3.2", "Foto HSE Campaign (Reward, Safety Moment, Marshal)", "Training"},

	{"4.1", "Foto TRA Dilokasi", "Inspection"},
	{"4.2", "Foto saat Pemeriksaan Fit to task dilokasi", "Inspection"},
	{"4.3", "Foto Observation Card / PEKA", "Inspection"},
	{"4.4", "Lakukan Hazard Hunt Dilokasi", "Inspection"},
	{"4.5", "Pelaporan Near miss", "Inspection"},
	{"4.6", "Foto Saat Housekeeping", "Inspection"},
	{"4.7", "Foto Manajemen Chemical", "Inspection"},
	{"4.8", "Foto PTW & JSA Dilokasi", "Inspection"},
	{"4.9", "Foto PJSM (Foto dan Absen)", "Inspection"},
	{"4.9a", "Inspeksi Lapangan HSE", "Inspection"},
	{"4.10", "Foto Inspeksi P3K", "Inspection"},
	{"4.11", "Foto Inspeksi APAR", "Inspection"},
	{"4.12", "Foto Inspeksi APD", "Inspection"},
	{"4.13", "Inspeksi Lingkungan kerja", "Inspection"},
	{"4.14", "SIML Dan HSE Passport", "Inspection"},

	{"5.1", "Upload List Peralatan (COID)", "Equipment"},
	{"5.2", "Upload Sertifikat Lifting gear", "Equipment"},
	{"5.3", "Upload Sertifikat Peralatan", "Equipment"},
	{"5.4", "Foto Inspeksi Lifting Gear", "Equipment"},
	{"5.5", "Foto Checklist Inspeksi Peralatan Harian", "Equipment"},
	{"5.6", "HSE Drill Dilokasi", "Equipment"},
	{"5.7", "MOC Report", "Equipment"},

	{"6.1", "Pelaporan Incident", "Incident"},
	{"6.2", "Safety Stand Down dilokasi", "Incident"},
}

// CreateProject inserts p and its standard checklist in one transaction.
func CreateProject(ctx context.Context, db *gorm.DB, p *models.Project) (*models.Project, error) {
	if p.Status == "" {
		p.Status = models.ProjectUpcoming
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tasks", "Docs").Create(p).Error; err != nil {
			return err
		}
		tasks := make([]models.Task, len(StandardTasks))
		for i, st := range StandardTasks {
			tasks[i] = models.Task{
				ProjectID: p.ID,
				Code:      st.Code,
				Title:     st.Title,
				Category:  st.Category,
				Status:    models.TaskUpcoming,
			}
		}
		return tx.CreateInBatches(tasks, 100).Error
	})
	if err != nil {
		return nil, apperr.Upstream("store: create project", err)
	}
	return p, nil
}

// DeleteProject removes a project with its tasks and related documents.
// Schedules and CSMS-PB records reference projects weakly and are kept.
func DeleteProject(ctx context.Context, db *gorm.DB, id string) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return apperr.Upstream("store: delete project tasks", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.RelatedDoc{}).Error; err != nil {
			return apperr.Upstream("store: delete project docs", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Project{})
		if res.Error != nil {
			return apperr.Upstream("store: delete project", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("project", id)
		}
		return nil
	})
	return err
}

// ProjectTasks lists a project's tasks in checklist order.
func ProjectTasks(ctx context.Context, db *gorm.DB, projectID string) ([]models.Task, error) {
	tasks, err := List[models.Task](ctx, db, Filter{Where: map[string]any{"project_id": projectID}})
	if err != nil {
		return nil, err
	}
	SortByCode(tasks)
	return tasks, nil
}

// SortByCode orders tasks by checklist code so that 4.9 < 4.9a < 4.10.
// Ties fall back to id.
func SortByCode(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if c := CompareCodes(tasks[i].Code, tasks[j].Code); c != 0 {
			return c < 0
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// CompareCodes compares dotted checklist codes segment by segment, numeric
// prefixes first and any letter suffix second.
func CompareCodes(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, asuf := splitSegment(as[i])
		bn, bsuf := splitSegment(bs[i])
		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
		if c := strings.Compare(asuf, bsuf); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

func splitSegment(s string) (int, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		n = -1
	}
	return n, s[i:]
}

// SetTaskScore records a reviewer's score. Invalid values are rejected
// before the store is touched.
func SetTaskScore(ctx context.Context, db *gorm.DB, taskID string, n int) (*models.Task, error) {
	if err := score.ValidateTaskScore(n); err != nil {
		return nil, err
	}
	var out *models.Task
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := Get[models.Task](ctx, tx, taskID)
		if err != nil {
			return err
		}
		t.Score = n
		if err := tx.Save(t).Error; err != nil {
			return apperr.Upstream("store: set task score", err)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkScheduleDone sets the terminal Done status on a schedule.
func MarkScheduleDone(ctx context.Context, db *gorm.DB, id string) (*models.Schedule, error) {
	var out *models.Schedule
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := Get[models.Schedule](ctx, tx, id)
		if err != nil {
			return err
		}
		s.Status = models.ScheduleDone
		if err := tx.Save(s).Error; err != nil {
			return apperr.Upstream("store: mark schedule done", err)
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
