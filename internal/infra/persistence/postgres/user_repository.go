// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements repository.UserDirectory using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns the GORM-backed user directory.
func NewUserRepository(db *gorm.DB) repository.UserDirectory {
	return &userRepository{db: db}
}

// FindByEmail returns all users stored under email, oldest first.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) ([]*entity.User, error) {
	var rows []*model.UserModel
	err := repo.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find users by email")
	}

	users := make([]*entity.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toUserDomain(row))
	}

	return users, nil
}

// FindByID retrieves a single user by its ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var row model.UserModel
	err := repo.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find user by id")
	}

	return toUserDomain(&row), nil
}

// Create inserts a new user row. The ID is generated here so the insert needs no RETURNING clause.
func (repo *userRepository) Create(ctx context.Context, email, credential string) (*entity.User, error) {
	row := &model.UserModel{
		ID:       uuid.New(),
		Email:    email,
		Password: credential,
	}

	if err := repo.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return nil, domainerrors.ErrEmailInUse.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) || isCheckConstraintViolation(err) {
			return nil, domainerrors.ErrUserCreationFailed.WrapMessage("user row rejected by constraint")
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	return toUserDomain(row), nil
}

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:        data.ID,
		Email:     data.Email,
		Password:  data.Password,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
