package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/internal/database"
	"github.com/zhipai/zhipai/pkg/model"
)

const holidayColumns = "id, date, name, region, created_at, updated_at"

// HolidayRepository 节假日数据访问层
// 节假日是全公司日历，不挂组织；region 为空表示全国性假日
type HolidayRepository struct {
	db *database.DB
}

// NewHolidayRepository 创建节假日数据访问层
func NewHolidayRepository(db *database.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// Create 创建节假日
func (r *HolidayRepository) Create(ctx context.Context, h *model.HolidayRecord) error {
	query := `
		INSERT INTO holidays (` + holidayColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.Date, h.Name, h.Region, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建节假日失败: %w", err)
	}
	return nil
}

// ListInRange 查询日期区间内的节假日
// region 非空时返回该地区假日和全国性假日，为空时返回全部
func (r *HolidayRepository) ListInRange(ctx context.Context, startDate, endDate, region string) ([]model.HolidayRecord, error) {
	query := `
		SELECT ` + holidayColumns + `
		FROM holidays
		WHERE deleted_at IS NULL AND date >= $1 AND date <= $2`
	args := []interface{}{startDate, endDate}

	if region != "" {
		query += ` AND (region = $3 OR region = '')`
		args = append(args, region)
	}
	query += ` ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询节假日失败: %w", err)
	}
	defer rows.Close()

	var holidays []model.HolidayRecord
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, *h)
	}
	return holidays, rows.Err()
}

// Delete 删除节假日（软删除）
func (r *HolidayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE holidays SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("删除节假日失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("节假日不存在")
	}
	return nil
}

// 辅助函数

func scanHoliday(s Scanner) (*model.HolidayRecord, error) {
	h := &model.HolidayRecord{}
	err := s.Scan(
		&h.ID, &h.Date, &h.Name, &h.Region, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}
