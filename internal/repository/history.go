package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/internal/database"
	"github.com/zhipai/zhipai/pkg/model"
)

const historyColumns = "employee_id, org_id, morning, evening, night, custom, total," +
	" window_start, window_end"

// HistoryRepository 历史班次统计数据访问层
// 统计表是从已发布排班聚合出来的派生数据，生成引擎用它计算公平权重
type HistoryRepository struct {
	db *database.DB
}

// NewHistoryRepository 创建历史统计数据访问层
func NewHistoryRepository(db *database.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Upsert 写入或覆盖单个员工的历史统计
func (r *HistoryRepository) Upsert(ctx context.Context, stat *model.HistoricalStat) error {
	query := `
		INSERT INTO historical_stats (` + historyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (org_id, employee_id) DO UPDATE SET
			morning = EXCLUDED.morning,
			evening = EXCLUDED.evening,
			night = EXCLUDED.night,
			custom = EXCLUDED.custom,
			total = EXCLUDED.total,
			window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end`

	_, err := r.db.ExecContext(ctx, query,
		stat.EmployeeID, stat.OrgID,
		stat.Counts.Morning, stat.Counts.Evening, stat.Counts.Night,
		stat.Counts.Custom, stat.Counts.Total,
		stat.WindowStart, stat.WindowEnd,
	)
	if err != nil {
		return fmt.Errorf("写入历史统计失败: %w", err)
	}
	return nil
}

// ListByOrg 获取组织全部员工的历史统计
func (r *HistoryRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]model.HistoricalStat, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM historical_stats
		WHERE org_id = $1
		ORDER BY total DESC, employee_id ASC`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("查询历史统计失败: %w", err)
	}
	defer rows.Close()

	var stats []model.HistoricalStat
	for rows.Next() {
		st, err := scanHistoricalStat(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, *st)
	}
	return stats, rows.Err()
}

// RebuildWindow 重建组织在统计窗口内的历史统计
// 事务内先清空旧统计，再从窗口内已发布的排班分配聚合写入，返回写入行数
func (r *HistoryRepository) RebuildWindow(ctx context.Context, orgID uuid.UUID, windowStart, windowEnd string) (int64, error) {
	var inserted int64
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM historical_stats WHERE org_id = $1`, orgID); err != nil {
			return fmt.Errorf("清空历史统计失败: %w", err)
		}

		query := `
			INSERT INTO historical_stats (` + historyColumns + `)
			SELECT employee_id, org_id,
				COUNT(*) FILTER (WHERE shift_type = $4),
				COUNT(*) FILTER (WHERE shift_type = $5),
				COUNT(*) FILTER (WHERE shift_type = $6),
				COUNT(*) FILTER (WHERE shift_type = $7),
				COUNT(*),
				$2, $3
			FROM assignments
			WHERE org_id = $1 AND deleted_at IS NULL AND status = $8
				AND date >= $2 AND date <= $3
			GROUP BY employee_id, org_id`

		result, err := tx.ExecContext(ctx, query,
			orgID, windowStart, windowEnd,
			model.ShiftMorning, model.ShiftEvening, model.ShiftNight, model.ShiftCustom,
			model.StatusPublished,
		)
		if err != nil {
			return fmt.Errorf("聚合历史统计失败: %w", err)
		}
		inserted, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// 辅助函数

func scanHistoricalStat(s Scanner) (*model.HistoricalStat, error) {
	st := &model.HistoricalStat{}
	err := s.Scan(
		&st.EmployeeID, &st.OrgID,
		&st.Counts.Morning, &st.Counts.Evening, &st.Counts.Night,
		&st.Counts.Custom, &st.Counts.Total,
		&st.WindowStart, &st.WindowEnd,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}
