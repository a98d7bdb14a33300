package domain

import (
	"fmt"
	"strings"
)

// MaxBatch 单次批量操作的 id 上限
const MaxBatch = 500

type Op string

const (
	OpApprove    Op = "approve"
	OpSuspend    Op = "suspend"
	OpSoftDelete Op = "soft_delete"
	OpRestore    Op = "restore"
	OpHardDelete Op = "hard_delete"
)

// ParseOp 兼容旧接口里的 remove / delete 写法
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve":
		return OpApprove, nil
	case "suspend":
		return OpSuspend, nil
	case "soft_delete", "soft-delete", "remove":
		return OpSoftDelete, nil
	case "restore":
		return OpRestore, nil
	case "hard_delete", "hard-delete", "purge", "delete":
		return OpHardDelete, nil
	}
	return "", Invalid(fmt.Sprintf("unknown op %q", s))
}

// AdminOnly 只有软删允许所有者自己操作
func (o Op) AdminOnly() bool { return o != OpSoftDelete }

// ListingState 迁移决策所需的最小行快照
type ListingState struct {
	ID         uint
	OwnerEmail string
	Name       string
	Approved   bool
	Suspended  bool
	Deleted    bool
}

// Plan 一次批量迁移的执行计划
type Plan struct {
	Op       Op
	Found    int            // 在该操作作用域内找到的行
	Target   []uint         // 批量语句实际要改的 id
	Affected int            // 对外报告的 affectedCount
	Changed  []ListingState // 状态真正发生变化的行
}

// PlanTransition 纯函数：根据当前行状态决定批量语句的目标与计数
func PlanTransition(op Op, states []ListingState) (Plan, error) {
	p := Plan{Op: op}
	switch op {
	case OpApprove, OpSuspend:
		for _, s := range states {
			if s.Deleted {
				continue
			}
			p.Found++
			if (op == OpApprove && !s.Approved) || (op == OpSuspend && !s.Suspended) {
				p.Target = append(p.Target, s.ID)
				p.Changed = append(p.Changed, s)
			}
		}
		p.Affected = p.Found
	case OpSoftDelete:
		p.Found = len(states)
		for _, s := range states {
			if !s.Deleted {
				p.Target = append(p.Target, s.ID)
				p.Changed = append(p.Changed, s)
			}
		}
		p.Affected = p.Found
	case OpRestore:
		p.Found = len(states)
		for _, s := range states {
			if s.Deleted {
				p.Target = append(p.Target, s.ID)
				p.Changed = append(p.Changed, s)
			}
		}
		p.Affected = len(p.Target)
	case OpHardDelete:
		p.Found = len(states)
		for _, s := range states {
			if !s.Deleted {
				return Plan{Op: op}, Conflict(fmt.Sprintf("listing %d is not in trash", s.ID))
			}
			p.Target = append(p.Target, s.ID)
			p.Changed = append(p.Changed, s)
		}
		p.Affected = len(p.Target)
	default:
		return Plan{Op: op}, Invalid(fmt.Sprintf("unknown op %q", op))
	}
	if p.Found == 0 {
		return Plan{Op: op}, NotFound("no matching listings")
	}
	return p, nil
}

// AuthorizeTransition 管理员全部放行；非管理员只能软删自己的条目
func AuthorizeTransition(c Caller, op Op, states []ListingState) error {
	if !c.Authenticated() {
		return Unauthenticated("login required")
	}
	if c.IsAdmin() {
		return nil
	}
	if op.AdminOnly() {
		return Unauthorized("admin role required")
	}
	for _, s := range states {
		if !CanMutate(c, s.OwnerEmail) {
			return Unauthorized(fmt.Sprintf("listing %d belongs to another user", s.ID))
		}
	}
	return nil
}

// NormalizeIDs 校验并去重（保持顺序）
func NormalizeIDs(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, Invalid("ids must be a non-empty array")
	}
	if len(ids) > MaxBatch {
		return nil, Invalid(fmt.Sprintf("at most %d ids per batch", MaxBatch))
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, Invalid("ids must be positive integers")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

type Coverage string

const (
	CoverageNone Coverage = "none"
	CoverageSome Coverage = "some"
	CoverageAll  Coverage = "all"
)

func Cover(requested, affected int) Coverage {
	switch {
	case affected <= 0:
		return CoverageNone
	case affected >= requested:
		return CoverageAll
	}
	return CoverageSome
}

// TransitionResult listingTransition 的结构化返回
type TransitionResult struct {
	Op            Op       `json:"op"`
	Success       bool     `json:"success"`
	Requested     int      `json:"requested"`
	AffectedCount int      `json:"affectedCount"`
	Coverage      Coverage `json:"coverage"`
	Error         Kind     `json:"error,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Err 失败时还原出带分类的 error，便于传输层映射
func (r TransitionResult) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.Error, Msg: r.Message}
}
