package repository

import (
	"context"
	"errors"
	"fmt"

	admindomain "okshouse-backend/internal/admin/domain"
	"okshouse-backend/pkg/database"

	"gorm.io/gorm"
)

// AdminRepository defines the interface for admin data access
type AdminRepository interface {
	// SeedIfEmpty inserts admins in one transaction when the table has no rows.
	// It returns the number of rows inserted.
	SeedIfEmpty(ctx context.Context, admins []admindomain.Admin) (int, error)

	// FindByID returns nil, nil when the admin does not exist
	FindByID(ctx context.Context, adminID uint) (*admindomain.Admin, error)

	List(ctx context.Context) ([]admindomain.Admin, error)
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates a new instance of adminRepository
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{
		db: db,
	}
}

func (r *adminRepository) SeedIfEmpty(ctx context.Context, admins []admindomain.Admin) (int, error) {
	inserted := 0
	err := database.WithTransaction(ctx, r.db, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&admindomain.Admin{}).Limit(1).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to count admins: %w", err)
		}
		if existing > 0 {
			return nil
		}

		for i := range admins {
			if err := tx.Create(&admins[i]).Error; err != nil {
				return fmt.Errorf("failed to insert admin %d: %w", admins[i].AdminID, err)
			}
		}
		inserted = len(admins)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *adminRepository) FindByID(ctx context.Context, adminID uint) (*admindomain.Admin, error) {
	var admin admindomain.Admin
	err := r.db.WithContext(ctx).Where("admin_id = ?", adminID).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) List(ctx context.Context) ([]admindomain.Admin, error) {
	var admins []admindomain.Admin
	if err := r.db.WithContext(ctx).Order("admin_id").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

// DefaultAdmins is the batch inserted into an empty admins table on first start
func DefaultAdmins() []admindomain.Admin {
	return []admindomain.Admin{
		{AdminID: 1, Name: "관리자1", Phone: "010-0000-0001"},
		{AdminID: 2, Name: "관리자2", Phone: "010-0000-0002"},
		{AdminID: 3, Name: "관리자3", Phone: "010-0000-0003"},
		{AdminID: 4, Name: "관리자4", Phone: "010-0000-0004"},
		{AdminID: 5, Name: "관리자5", Phone: "010-0000-0005"},
	}
}
