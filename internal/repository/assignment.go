// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

// 生成运行状态
const (
	RunDraft     = "draft"     // 草稿，可整体替换
	RunPublished = "published" // 已发布，分配进入受保护状态
	RunArchived  = "archived"  // 已归档
)

// ScheduleRun 一次生成运行的落库头记录
type ScheduleRun struct {
	ID            uuid.UUID `json:"id"`
	OrgID         uuid.UUID `json:"org_id"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Status        string    `json:"status"` // draft/published/archived
	TotalSlots    int       `json:"total_slots"`
	AssignedSlots int       `json:"assigned_slots"`
	Uncovered     int       `json:"uncovered"`
	Score         float64   `json:"score"`
	DurationMs    int64     `json:"duration_ms"`
	GeneratedAt   time.Time `json:"generated_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ScheduleRunRepository 生成运行仓储
type ScheduleRunRepository struct {
	db DB
}

// NewScheduleRunRepository 创建生成运行仓储
func NewScheduleRunRepository(db DB) *ScheduleRunRepository {
	return &ScheduleRunRepository{db: db}
}

const runColumns = `id, org_id, start_date, end_date, status, total_slots,
		assigned_slots, uncovered, score, duration_ms, generated_at, created_at, updated_at`

// Create 创建生成运行记录
func (r *ScheduleRunRepository) Create(ctx context.Context, run *ScheduleRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now
	if run.Status == "" {
		run.Status = RunDraft
	}

	query := fmt.Sprintf(`
		INSERT INTO schedule_runs (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, runColumns)

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.OrgID, run.StartDate, run.EndDate, run.Status, run.TotalSlots,
		run.AssignedSlots, run.Uncovered, run.Score, run.DurationMs,
		run.GeneratedAt, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建生成运行记录失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取生成运行，不存在返回 (nil, nil)
func (r *ScheduleRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*ScheduleRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_runs WHERE id = $1`, runColumns)

	run, err := scanScheduleRun(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// UpdateStatus 更新生成运行状态
func (r *ScheduleRunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE schedule_runs SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新运行状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("生成运行不存在")
	}

	return nil
}

// Latest 获取组织最近一次生成运行，不存在返回 (nil, nil)
func (r *ScheduleRunRepository) Latest(ctx context.Context, orgID uuid.UUID) (*ScheduleRun, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM schedule_runs
		WHERE org_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, runColumns)

	run, err := scanScheduleRun(r.db.QueryRowContext(ctx, query, orgID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// List 列出生成运行
func (r *ScheduleRunRepository) List(ctx context.Context, filter ListFilter) ([]*ScheduleRun, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.OrgID != nil {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argIndex))
		args = append(args, *filter.OrgID)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("start_date >= $%d", argIndex))
		args = append(args, filter.StartDate)
		argIndex++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("end_date <= $%d", argIndex))
		args = append(args, filter.EndDate)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM schedule_runs %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计生成运行失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM schedule_runs %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, runColumns, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询生成运行失败: %w", err)
	}
	defer rows.Close()

	var runs []*ScheduleRun
	for rows.Next() {
		run, err := scanScheduleRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}

	return runs, total, nil
}

// scanScheduleRun 从单行或多行结果扫描生成运行
func scanScheduleRun(s Scanner) (*ScheduleRun, error) {
	run := &ScheduleRun{}

	err := s.Scan(
		&run.ID, &run.OrgID, &run.StartDate, &run.EndDate, &run.Status, &run.TotalSlots,
		&run.AssignedSlots, &run.Uncovered, &run.Score, &run.DurationMs,
		&run.GeneratedAt, &run.CreatedAt, &run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描生成运行失败: %w", err)
	}

	return run, nil
}

// AssignmentRepository 排班分配仓储
type AssignmentRepository struct {
	db DB
}

// NewAssignmentRepository 创建排班分配仓储
func NewAssignmentRepository(db DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, org_id, run_id, employee_id, template_id, date, shift_type,
		start_time, end_time, status, is_replacement, original_employee_id, notes,
		created_at, updated_at`

// 每条分配的插入列数，批量插入时用于计算占位符
const assignmentFieldCount = 15

// Create 创建单条排班分配
func (r *AssignmentRepository) Create(ctx context.Context, runID uuid.UUID, a *model.Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO assignments (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, assignmentColumns)

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.OrgID, runID, a.EmployeeID, a.TemplateID, a.Date, a.ShiftType,
		a.StartTime, a.EndTime, a.Status, a.IsReplacement, a.OriginalEmployeeID, a.Notes,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建排班分配失败: %w", err)
	}

	return nil
}

// CreateBatch 批量插入生成结果的排班分配
func (r *AssignmentRepository) CreateBatch(ctx context.Context, runID uuid.UUID, assignments []*model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	var values []string
	var args []interface{}
	argIndex := 1

	now := time.Now()
	for _, a := range assignments {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.CreatedAt = now
		a.UpdatedAt = now

		placeholders := make([]string, assignmentFieldCount)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", argIndex+i)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")

		args = append(args,
			a.ID, a.OrgID, runID, a.EmployeeID, a.TemplateID, a.Date, a.ShiftType,
			a.StartTime, a.EndTime, a.Status, a.IsReplacement, a.OriginalEmployeeID, a.Notes,
			a.CreatedAt, a.UpdatedAt,
		)
		argIndex += assignmentFieldCount
	}

	query := fmt.Sprintf(`
		INSERT INTO assignments (%s)
		VALUES %s
	`, assignmentColumns, strings.Join(values, ", "))

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("批量创建排班分配失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取排班分配，不存在返回 (nil, nil)
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM assignments
		WHERE id = $1 AND deleted_at IS NULL
	`, assignmentColumns)

	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// Update 编辑后更新单条排班分配
// 编辑引擎在副本上产出结果，这里把副本写回原行
func (r *AssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	a.UpdatedAt = time.Now()

	query := `
		UPDATE assignments SET
			employee_id = $2, template_id = $3, date = $4, shift_type = $5,
			start_time = $6, end_time = $7, status = $8, is_replacement = $9,
			original_employee_id = $10, notes = $11, updated_at = $12
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.TemplateID, a.Date, a.ShiftType,
		a.StartTime, a.EndTime, a.Status, a.IsReplacement,
		a.OriginalEmployeeID, a.Notes, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新排班分配失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排班分配不存在")
	}

	return nil
}

// ListByRun 获取一次生成运行的全部分配
func (r *AssignmentRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]*model.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM assignments
		WHERE run_id = $1 AND deleted_at IS NULL
		ORDER BY date, start_time
	`, assignmentColumns)

	return r.queryAssignments(ctx, query, runID)
}

// ListByOrgDateRange 获取组织在日期范围内的全部分配
func (r *AssignmentRepository) ListByOrgDateRange(ctx context.Context, orgID uuid.UUID, startDate, endDate string) ([]*model.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM assignments
		WHERE org_id = $1 AND date >= $2 AND date <= $3 AND deleted_at IS NULL
		ORDER BY date, start_time
	`, assignmentColumns)

	return r.queryAssignments(ctx, query, orgID, startDate, endDate)
}

// ListByEmployee 获取员工在日期范围内的分配
func (r *AssignmentRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, startDate, endDate string) ([]*model.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM assignments
		WHERE employee_id = $1 AND date >= $2 AND date <= $3 AND deleted_at IS NULL
		ORDER BY date, start_time
	`, assignmentColumns)

	return r.queryAssignments(ctx, query, employeeID, startDate, endDate)
}

// PublishByRun 把一次生成运行的全部分配置为已发布
func (r *AssignmentRepository) PublishByRun(ctx context.Context, runID uuid.UUID) (int64, error) {
	query := `
		UPDATE assignments SET status = $2, updated_at = $3
		WHERE run_id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, runID, model.StatusPublished, time.Now())
	if err != nil {
		return 0, fmt.Errorf("发布排班分配失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}

// Delete 软删除排班分配
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE assignments SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除排班分配失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排班分配不存在")
	}

	return nil
}

// DeleteByRun 软删除一次生成运行的全部分配
func (r *AssignmentRepository) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	query := `UPDATE assignments SET deleted_at = $2 WHERE run_id = $1 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, runID, time.Now())
	if err != nil {
		return fmt.Errorf("删除排班分配失败: %w", err)
	}

	return nil
}

// queryAssignments 执行分配列表查询
func (r *AssignmentRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]*model.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询排班分配失败: %w", err)
	}
	defer rows.Close()

	var assignments []*model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	return assignments, nil
}

// scanAssignment 从单行或多行结果扫描排班分配
func scanAssignment(s Scanner) (*model.Assignment, error) {
	a := &model.Assignment{}
	var runID uuid.UUID
	var original uuid.NullUUID

	err := s.Scan(
		&a.ID, &a.OrgID, &runID, &a.EmployeeID, &a.TemplateID, &a.Date, &a.ShiftType,
		&a.StartTime, &a.EndTime, &a.Status, &a.IsReplacement, &original, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描排班分配失败: %w", err)
	}

	if original.Valid {
		id := original.UUID
		a.OriginalEmployeeID = &id
	}

	return a, nil
}
