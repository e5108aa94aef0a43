package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/ichigozero/taskmgr/database"
	"github.com/ichigozero/taskmgr/usersvc"
	libgorm "gorm.io/gorm"
)

// UserRecord is the users table row. Other repositories reference it for
// foreign keys.
type UserRecord struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	Role      string `gorm:"type:varchar(16);not null;default:USER"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserRecord) TableName() string {
	return "users"
}

func (r UserRecord) user() usersvc.User {
	return usersvc.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.Password,
		Role:         authsvc.RoleFromStorage(r.Role),
		CreatedAt:    r.CreatedAt,
	}
}

// Migrate creates the users table.
func Migrate(db *libgorm.DB) error {
	return db.AutoMigrate(&UserRecord{})
}

type userRepository struct {
	db *libgorm.DB
}

func NewUserRepository(db *libgorm.DB) usersvc.UserRepository {
	return &userRepository{db}
}

func (u *userRepository) Create(ctx context.Context, user usersvc.User) (usersvc.User, error) {
	rec := UserRecord{
		ID:       uuid.NewString(),
		Email:    user.Email,
		Password: user.PasswordHash,
		Role:     user.Role.StorageValue(),
	}

	if err := u.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return usersvc.User{}, usersvc.ErrEmailTaken
		}
		return usersvc.User{}, err
	}
	return rec.user(), nil
}

func (u *userRepository) FindByID(ctx context.Context, id string) (usersvc.User, error) {
	return u.first(ctx, "id = ?", id)
}

func (u *userRepository) FindByEmail(ctx context.Context, email string) (usersvc.User, error) {
	return u.first(ctx, "email = ?", email)
}

func (u *userRepository) first(ctx context.Context, query string, arg interface{}) (usersvc.User, error) {
	var rec UserRecord
	err := u.db.WithContext(ctx).Where(query, arg).First(&rec).Error
	if errors.Is(err, libgorm.ErrRecordNotFound) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}
	if err != nil {
		return usersvc.User{}, err
	}
	return rec.user(), nil
}

func (u *userRepository) Update(ctx context.Context, id string, c usersvc.UserChanges) (usersvc.User, error) {
	changes := map[string]interface{}{}
	if c.Email != nil {
		changes["email"] = *c.Email
	}
	if c.PasswordHash != nil {
		changes["password"] = *c.PasswordHash
	}
	if len(changes) == 0 {
		return u.FindByID(ctx, id)
	}

	result := u.db.WithContext(ctx).Model(&UserRecord{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		if database.IsUniqueViolation(result.Error) {
			return usersvc.User{}, usersvc.ErrEmailTaken
		}
		return usersvc.User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	return u.FindByID(ctx, id)
}

func (u *userRepository) FindAll(ctx context.Context) ([]usersvc.User, error) {
	var recs []UserRecord
	if err := u.db.WithContext(ctx).Order("created_at desc").Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}

	users := make([]usersvc.User, 0, len(recs))
	for _, r := range recs {
		users = append(users, r.user())
	}
	return users, nil
}
