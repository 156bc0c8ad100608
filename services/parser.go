package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// 邮件指令动作
const (
	CommandComplete   = "complete"
	CommandInProgress = "in_progress"
	CommandReschedule = "reschedule"
	CommandNoAction   = "no_action"
)

// EmailCommand 由一封回复邮件解析出的结构化指令，不落库
type EmailCommand struct {
	Action       string
	TaskID       string
	RawExpr      string
	ResolvedTime *time.Time
}

var (
	// 任务标识，嵌在回复地址、主题或正文中，形如 task+<id> 或 task-<id>
	taskIDPattern = regexp.MustCompile(`(?i)task[-+]([0-9a-z][0-9a-z\-]{5,49})`)

	completionPattern = regexp.MustCompile(`\b(completed|done|finished)\b`)
	inProgressPattern = regexp.MustCompile(`\b(working|in progress|almost done)\b`)
	negativePattern   = regexp.MustCompile(`\b(no|not yet|later)\b`)
	moveWordPattern   = regexp.MustCompile(`\b(move|change|push|postpone|delay|shift)\b`)
	rescheduleWord    = regexp.MustCompile(`\breschedule\b`)

	// 带am/pm的时刻，冒号可省略；24小时制必须带冒号
	clockAmPmPattern = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Pattern   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	dayWordPattern   = regexp.MustCompile(`\b(today|tomorrow)\b`)
)

// ParseEmailCommand 解析一封回复邮件。任务标识依次尝试回复地址、主题、
// 正文，取第一个命中；动作按固定优先级分类：完成 > 进行中 > 改期 >
// 否定 > 默认无动作。该函数永不报错，始终给出尽力而为的分类。
func ParseEmailCommand(address, subject, body string, now time.Time) EmailCommand {
	cmd := EmailCommand{Action: CommandNoAction}

	for _, source := range []string{address, subject, body} {
		if m := taskIDPattern.FindStringSubmatch(source); m != nil {
			cmd.TaskID = strings.ToLower(m[1])
			break
		}
	}

	lower := strings.ToLower(body)

	// "almost done" 属于进行中词族，剔除后再匹配完成词，避免其中的
	// done 被误判为完成
	withoutAlmost := strings.ReplaceAll(lower, "almost done", " ")

	rawExpr, timeFound, resolved := resolveTimeExpression(lower, now)

	switch {
	case completionPattern.MatchString(withoutAlmost):
		cmd.Action = CommandComplete
	case inProgressPattern.MatchString(lower):
		cmd.Action = CommandInProgress
	case timeFound && (rescheduleWord.MatchString(lower) || moveWordPattern.MatchString(lower)):
		cmd.Action = CommandReschedule
		cmd.RawExpr = rawExpr
		cmd.ResolvedTime = resolved
	case negativePattern.MatchString(lower):
		cmd.Action = CommandNoAction
	}

	return cmd
}

// resolveTimeExpression 在正文中寻找时间/日期表达并解析为绝对时刻。
// 支持 today/tomorrow、可带am/pm的时刻（已过则顺延到次日）、M/D 或
// M/D/Y 斜杠日期（缺省年份取当年）。找到表达但无法解析时 resolved 为
// nil，由调用方按解析失败处理。
func resolveTimeExpression(lower string, now time.Time) (raw string, found bool, resolved *time.Time) {
	var rawParts []string

	dayWord := dayWordPattern.FindString(lower)
	if dayWord != "" {
		rawParts = append(rawParts, dayWord)
	}

	slashOK := false
	var month, day, year int
	if m := slashDatePattern.FindStringSubmatch(lower); m != nil {
		rawParts = append(rawParts, m[0])
		month, _ = strconv.Atoi(m[1])
		day, _ = strconv.Atoi(m[2])
		year = now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		slashOK = month >= 1 && month <= 12 && day >= 1 && day <= 31
		if !slashOK {
			// 找到了日期表达但无法解析
			return strings.Join(rawParts, " "), true, nil
		}
	}

	clockOK := false
	hour, minute := 0, 0
	if m := clockAmPmPattern.FindStringSubmatch(lower); m != nil {
		rawParts = append(rawParts, strings.TrimSpace(m[0]))
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		clockOK = hour >= 1 && hour <= 12 && minute <= 59
		if clockOK {
			if m[3] == "pm" && hour < 12 {
				hour += 12
			}
			if m[3] == "am" && hour == 12 {
				hour = 0
			}
		}
	} else if m := clock24Pattern.FindStringSubmatch(lower); m != nil {
		rawParts = append(rawParts, m[0])
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		clockOK = hour <= 23 && minute <= 59
	}

	if len(rawParts) == 0 {
		return "", false, nil
	}
	raw = strings.Join(rawParts, " ")

	hasClockToken := clockAmPmPattern.MatchString(lower) || clock24Pattern.MatchString(lower)
	if hasClockToken && !clockOK {
		return raw, true, nil
	}

	// 基准日期：相对日词优先，其次斜杠日期，否则今天
	base := now
	explicitDate := true
	switch {
	case dayWord == "tomorrow":
		base = now.AddDate(0, 0, 1)
	case dayWord == "today":
		base = now
	case slashOK:
		base = time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	default:
		explicitDate = false
	}

	if !hasClockToken {
		// 只有日期没有时刻时默认当天 09:00
		hour, minute = 9, 0
	}

	t := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, now.Location())

	// 未指明日期且时刻已过，顺延到次日
	if !explicitDate && !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}

	return raw, true, &t
}
