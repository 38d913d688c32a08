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

// TemplateRepository 班次模板仓储
type TemplateRepository struct {
	db DB
}

// NewTemplateRepository 创建班次模板仓储
func NewTemplateRepository(db DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, org_id, name, description, shift_type, start_time, end_time,
		color, is_active, created_at, updated_at`

// Create 创建班次模板
func (r *TemplateRepository) Create(ctx context.Context, tpl *model.ShiftTemplate) error {
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	now := time.Now()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO shift_templates (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, templateColumns)

	_, err := r.db.ExecContext(ctx, query,
		tpl.ID, tpl.OrgID, tpl.Name, tpl.Description, tpl.Type,
		tpl.StartTime, tpl.EndTime, tpl.Color, tpl.IsActive,
		tpl.CreatedAt, tpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建班次模板失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取班次模板，不存在返回 (nil, nil)
func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ShiftTemplate, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM shift_templates
		WHERE id = $1 AND deleted_at IS NULL
	`, templateColumns)

	tpl, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return tpl, err
}

// Update 更新班次模板
func (r *TemplateRepository) Update(ctx context.Context, tpl *model.ShiftTemplate) error {
	tpl.UpdatedAt = time.Now()

	query := `
		UPDATE shift_templates SET
			name = $2, description = $3, shift_type = $4, start_time = $5,
			end_time = $6, color = $7, is_active = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		tpl.ID, tpl.Name, tpl.Description, tpl.Type, tpl.StartTime,
		tpl.EndTime, tpl.Color, tpl.IsActive, tpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新班次模板失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次模板不存在")
	}

	return nil
}

// Delete 软删除班次模板
func (r *TemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shift_templates SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除班次模板失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次模板不存在")
	}

	return nil
}

// List 查询班次模板列表
func (r *TemplateRepository) List(ctx context.Context, filter ListFilter) ([]*model.ShiftTemplate, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.OrgID != nil {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argIndex))
		args = append(args, *filter.OrgID)
		argIndex++
	}

	if filter.Status != "" {
		isActive := filter.Status == "active"
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, isActive)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM shift_templates WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	// 查询列表，按起始时刻排列方便展示
	query := fmt.Sprintf(`
		SELECT %s FROM shift_templates
		WHERE %s
		ORDER BY start_time ASC
		LIMIT $%d OFFSET $%d
	`, templateColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var templates []*model.ShiftTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		templates = append(templates, tpl)
	}

	return templates, total, nil
}

// ListActive 获取组织下所有启用的班次模板
func (r *TemplateRepository) ListActive(ctx context.Context, orgID uuid.UUID) ([]*model.ShiftTemplate, error) {
	filter := DefaultListFilter().WithOrgID(orgID).WithStatus("active").WithLimit(100)
	templates, _, err := r.List(ctx, filter)
	return templates, err
}

// scanTemplate 从单行或多行结果扫描班次模板
func scanTemplate(s Scanner) (*model.ShiftTemplate, error) {
	tpl := &model.ShiftTemplate{}

	err := s.Scan(
		&tpl.ID, &tpl.OrgID, &tpl.Name, &tpl.Description, &tpl.Type,
		&tpl.StartTime, &tpl.EndTime, &tpl.Color, &tpl.IsActive,
		&tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描班次模板失败: %w", err)
	}

	return tpl, nil
}
