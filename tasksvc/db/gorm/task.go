package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/ichigozero/taskmgr/tasksvc"
	usergorm "github.com/ichigozero/taskmgr/usersvc/db/gorm"
	stdgorm "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type taskRecord struct {
	ID          string              `gorm:"type:varchar(36);primaryKey"`
	Title       string              `gorm:"type:varchar(200);not null"`
	Description string              `gorm:"type:text;not null"`
	Status      string              `gorm:"type:varchar(16);not null;default:TODO;index"`
	UserID      string              `gorm:"type:varchar(36);not null;index"`
	User        usergorm.UserRecord `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"index"`
	UpdatedAt   time.Time
}

func (taskRecord) TableName() string {
	return "tasks"
}

func (r taskRecord) task() tasksvc.Task {
	t := tasksvc.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      tasksvc.StatusFromStorage(r.Status),
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.User.ID != "" {
		t.User = &authsvc.Identity{
			ID:    r.User.ID,
			Email: r.User.Email,
			Role:  authsvc.RoleFromStorage(r.User.Role),
		}
	}
	return t
}

// Migrate creates the tasks table. The users table must exist.
func Migrate(db *stdgorm.DB) error {
	return db.AutoMigrate(&taskRecord{})
}

var sortColumns = map[tasksvc.SortField]string{
	tasksvc.SortByCreatedAt: "created_at",
	tasksvc.SortByTitle:     "title",
}

type taskRepository struct {
	db *stdgorm.DB
}

func NewTaskRepository(db *stdgorm.DB) tasksvc.TaskRepository {
	return &taskRepository{db}
}

// withOwner loads the public columns of the owning user.
func withOwner(db *stdgorm.DB) *stdgorm.DB {
	return db.Preload("User", func(db *stdgorm.DB) *stdgorm.DB {
		return db.Select("id", "email", "role")
	})
}

func (t taskRepository) Create(ctx context.Context, userID string, nt tasksvc.NewTask) (tasksvc.Task, error) {
	rec := taskRecord{
		ID:          uuid.NewString(),
		Title:       nt.Title,
		Description: nt.Description,
		Status:      nt.Status.StorageValue(),
		UserID:      userID,
	}

	if err := t.db.WithContext(ctx).Omit(clause.Associations).Create(&rec).Error; err != nil {
		return tasksvc.Task{}, err
	}
	return t.FindByID(ctx, rec.ID)
}

func (t taskRepository) FindAll(ctx context.Context, f tasksvc.Filter) ([]tasksvc.Task, int64, error) {
	filter := func(db *stdgorm.DB) *stdgorm.DB {
		if f.UserID != "" {
			db = db.Where("user_id = ?", f.UserID)
		}
		if f.Status != nil {
			db = db.Where("status = ?", f.Status.StorageValue())
		}
		return db
	}

	var total int64
	if err := t.db.WithContext(ctx).Model(&taskRecord{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns[tasksvc.SortByCreatedAt]
	}

	var recs []taskRecord
	err := t.db.WithContext(ctx).
		Scopes(filter, withOwner).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: f.SortOrder != tasksvc.SortAsc}).
		Order("id").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}

	tasks := make([]tasksvc.Task, 0, len(recs))
	for _, r := range recs {
		tasks = append(tasks, r.task())
	}
	return tasks, total, nil
}

func (t taskRepository) Find(ctx context.Context, taskID, userID string) (tasksvc.Task, error) {
	return t.first(t.db.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, userID))
}

func (t taskRepository) FindByID(ctx context.Context, taskID string) (tasksvc.Task, error) {
	return t.first(t.db.WithContext(ctx).Where("id = ?", taskID))
}

func (t taskRepository) first(query *stdgorm.DB) (tasksvc.Task, error) {
	var rec taskRecord
	err := query.Scopes(withOwner).First(&rec).Error
	if errors.Is(err, stdgorm.ErrRecordNotFound) {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	if err != nil {
		return tasksvc.Task{}, err
	}
	return rec.task(), nil
}

func (t taskRepository) Update(ctx context.Context, taskID, userID string, p tasksvc.TaskPatch) (tasksvc.Task, error) {
	changes := map[string]interface{}{}
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Status != nil {
		changes["status"] = p.Status.StorageValue()
	}
	if len(changes) == 0 {
		return t.Find(ctx, taskID, userID)
	}

	result := t.db.WithContext(ctx).
		Model(&taskRecord{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Updates(changes)
	if result.Error != nil {
		return tasksvc.Task{}, result.Error
	}
	if result.RowsAffected == 0 {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}

	return t.Find(ctx, taskID, userID)
}

func (t taskRepository) Delete(ctx context.Context, taskID, userID string) error {
	result := t.db.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, userID).Delete(&taskRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tasksvc.ErrTaskNotFound
	}
	return nil
}
