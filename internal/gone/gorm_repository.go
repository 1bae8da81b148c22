package gone

import (
	"context"
	"errors"
	"fmt"

	"go_gone/internal/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mysqlErrDupEntry = 1062

// GormRepository is the MySQL-backed Repository
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository over db
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Exists reports whether the exact pattern string is stored, whatever its regex flag
func (r *GormRepository) Exists(ctx context.Context, pattern string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.GonePattern{}).
		Where("url_pattern = ?", pattern).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert creates the row and fills in ID and CreatedAt
func (r *GormRepository) Insert(ctx context.Context, p *model.GonePattern) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	return nil
}

// Get returns a single pattern by id
func (r *GormRepository) Get(ctx context.Context, id int) (*model.GonePattern, error) {
	var p model.GonePattern
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Delete removes one row and returns the number of rows removed
func (r *GormRepository) Delete(ctx context.Context, id int) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.GonePattern{}, id)
	return res.RowsAffected, res.Error
}

// DeleteIn removes every row whose id is in ids with a single statement
func (r *GormRepository) DeleteIn(ctx context.Context, ids []int) (int64, error) {
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.GonePattern{})
	return res.RowsAffected, res.Error
}

// ListAll returns every pattern, newest first
func (r *GormRepository) ListAll(ctx context.Context) ([]model.GonePattern, error) {
	var rows []model.GonePattern
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetSetting reads a setting value; ok is false when the row does not exist
func (r *GormRepository) GetSetting(ctx context.Context, name string) (string, bool, error) {
	var s model.GoneSetting
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return s.Value, true, nil
}

// PutSetting upserts a setting value
func (r *GormRepository) PutSetting(ctx context.Context, name, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.GoneSetting{Name: name, Value: value}).Error
}

// isDuplicateKey detects unique index violations, translated or raw
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDupEntry
}
