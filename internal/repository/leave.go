// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

// LeaveRepository 请假记录仓储
type LeaveRepository struct {
	db DB
}

// NewLeaveRepository 创建请假记录仓储
func NewLeaveRepository(db DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = `id, org_id, employee_id, leave_type, start_date, end_date,
		status, reason, created_at, updated_at`

// Create 创建请假记录
func (r *LeaveRepository) Create(ctx context.Context, leave *model.LeaveRecord) error {
	if leave.ID == uuid.Nil {
		leave.ID = uuid.New()
	}
	now := time.Now()
	leave.CreatedAt = now
	leave.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO leave_records (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, leaveColumns)

	_, err := r.db.ExecContext(ctx, query,
		leave.ID, leave.OrgID, leave.EmployeeID, leave.LeaveType,
		leave.StartDate, leave.EndDate, leave.Status, leave.Reason,
		leave.CreatedAt, leave.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建请假记录失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取请假记录，不存在返回 (nil, nil)
func (r *LeaveRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LeaveRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM leave_records
		WHERE id = $1 AND deleted_at IS NULL
	`, leaveColumns)

	leave, err := scanLeave(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return leave, err
}

// UpdateStatus 更新请假审批状态
func (r *LeaveRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE leave_records SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新请假状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("请假记录不存在")
	}

	return nil
}

// ListApprovedInRange 获取组织内与日期窗口有交集的已批准请假
// 冲突校验与生成请求只关心已批准的记录
func (r *LeaveRepository) ListApprovedInRange(ctx context.Context, orgID uuid.UUID, startDate, endDate string) ([]model.LeaveRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM leave_records
		WHERE org_id = $1 AND status = $2
			AND start_date <= $4 AND end_date >= $3
			AND deleted_at IS NULL
		ORDER BY start_date
	`, leaveColumns)

	rows, err := r.db.QueryContext(ctx, query, orgID, model.LeaveApproved, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询请假记录失败: %w", err)
	}
	defer rows.Close()

	var leaves []model.LeaveRecord
	for rows.Next() {
		leave, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, *leave)
	}

	return leaves, nil
}

// ListByEmployee 获取员工的请假记录
func (r *LeaveRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, startDate, endDate string) ([]model.LeaveRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM leave_records
		WHERE employee_id = $1
			AND start_date <= $3 AND end_date >= $2
			AND deleted_at IS NULL
		ORDER BY start_date
	`, leaveColumns)

	rows, err := r.db.QueryContext(ctx, query, employeeID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询请假记录失败: %w", err)
	}
	defer rows.Close()

	var leaves []model.LeaveRecord
	for rows.Next() {
		leave, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, *leave)
	}

	return leaves, nil
}

// Delete 软删除请假记录
func (r *LeaveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE leave_records SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除请假记录失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("请假记录不存在")
	}

	return nil
}

// scanLeave 从单行或多行结果扫描请假记录
func scanLeave(s Scanner) (*model.LeaveRecord, error) {
	leave := &model.LeaveRecord{}

	err := s.Scan(
		&leave.ID, &leave.OrgID, &leave.EmployeeID, &leave.LeaveType,
		&leave.StartDate, &leave.EndDate, &leave.Status, &leave.Reason,
		&leave.CreatedAt, &leave.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描请假记录失败: %w", err)
	}

	return leave, nil
}
