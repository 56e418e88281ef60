package db

import (
	goerrors "errors"

	apiError "github.com/SkillSyncApp/SkillSyncServer/errors"
	"github.com/SkillSyncApp/SkillSyncServer/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UserRepository is the user-lookup collaborator contract. Users are owned
// by the identity subsystem; the chat core only resolves display profiles.
type UserRepository interface {
	ExistsByID(id uuid.UUID) (bool, error)
	FindUserByID(id uuid.UUID) (*models.User, error)
}

type userRepo struct {
	DB *gorm.DB
}

// NewUserRepo creates a new instance of UserRepository
func NewUserRepo(db *GormDB) UserRepository {
	return &userRepo{db.DB}
}

func (r *userRepo) ExistsByID(id uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "check user exists")
	}
	return count > 0, nil
}

func (r *userRepo) FindUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.First(&user, "id = ?", id).Error; err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.ErrNotFound
		}
		return nil, errors.Wrap(err, "find user by id")
	}
	return &user, nil
}
