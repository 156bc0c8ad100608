package services

// Tier 逾期升级档位
type Tier string

const (
	TierNone         Tier = "none"
	TierOverdue5Min  Tier = "overdue_5min"
	TierOverdue10Min Tier = "overdue_10min"
	TierOverdue15Min Tier = "overdue_15min"
	TierOverdue30Min Tier = "overdue_30min"
	TierOverdue1Hour Tier = "overdue_1hour"
)

// 从高到低排列的全部档位
var tierOrder = []Tier{
	TierOverdue1Hour,
	TierOverdue30Min,
	TierOverdue15Min,
	TierOverdue10Min,
	TierOverdue5Min,
}

// OverdueTier 根据逾期分钟数计算升级档位，取满足的最高阈值
func OverdueTier(minutesOverdue int) Tier {
	switch {
	case minutesOverdue >= 60:
		return TierOverdue1Hour
	case minutesOverdue >= 30:
		return TierOverdue30Min
	case minutesOverdue >= 15:
		return TierOverdue15Min
	case minutesOverdue >= 10:
		return TierOverdue10Min
	case minutesOverdue >= 5:
		return TierOverdue5Min
	default:
		return TierNone
	}
}

// TiersAtOrAbove 返回不低于给定档位的所有档位，用于冷却窗口判断
func TiersAtOrAbove(tier Tier) []Tier {
	var result []Tier
	for _, t := range tierOrder {
		result = append(result, t)
		if t == tier {
			break
		}
	}
	return result
}

// Label 返回档位的人类可读描述，用于邮件文案
func (t Tier) Label() string {
	switch t {
	case TierOverdue5Min:
		return "5 minutes"
	case TierOverdue10Min:
		return "10 minutes"
	case TierOverdue15Min:
		return "15 minutes"
	case TierOverdue30Min:
		return "30 minutes"
	case TierOverdue1Hour:
		return "1 hour"
	default:
		return ""
	}
}
