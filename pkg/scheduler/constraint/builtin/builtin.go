package builtin

import (
	"github.com/zhipai/zhipai/pkg/scheduler/constraint"
)

// RegisterEligibilityConstraints 注册资格检查约束到管理器
// 权重决定评估顺序：重复排班 > 连续夜班 > 周交替 > 最短休息 > 目标上限
func RegisterEligibilityConstraints(manager *constraint.Manager) {
	manager.Register(NewDoubleBookingConstraint())
	manager.Register(NewConsecutiveNightsConstraint())
	manager.Register(NewWeekAlternationConstraint())
	manager.Register(NewMinRestConstraint())
	manager.Register(NewTargetCeilingConstraint())
}
