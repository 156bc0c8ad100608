package services

import (
	"testing"
	"time"
)

var parserNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func TestParseActionClassification(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"大写完成词", "COMPLETED", CommandComplete},
		{"句中完成词", "I'm done with this one", CommandComplete},
		{"finished", "finished it an hour ago", CommandComplete},
		{"进行中", "working on it", CommandInProgress},
		{"almost done不算完成", "almost done", CommandInProgress},
		{"in progress", "still in progress, sorry", CommandInProgress},
		{"否定词", "not yet", CommandNoAction},
		{"单独的no", "no", CommandNoAction},
		{"later", "maybe later", CommandNoAction},
		{"空正文", "", CommandNoAction},
		{"无关内容", "thanks for letting me know!", CommandNoAction},
		{"只有reschedule没有时间", "reschedule", CommandNoAction},
		{"完成优先于改期", "done, but reschedule to 5pm", CommandComplete},
		{"改期加时刻", "RESCHEDULE 4pm", CommandReschedule},
		{"移动词加日期", "move it to 6/15", CommandReschedule},
		{"改期优先于否定", "no, push it to tomorrow", CommandReschedule},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := ParseEmailCommand("", "", tc.body, parserNow)
			if cmd.Action != tc.want {
				t.Errorf("ParseEmailCommand(%q).Action = %s, want %s", tc.body, cmd.Action, tc.want)
			}
		})
	}
}

func TestParseRescheduleTimes(t *testing.T) {
	cases := []struct {
		name string
		body string
		now  time.Time
		want time.Time
	}{
		{
			"下午时刻未过取今天",
			"RESCHEDULE 4pm",
			parserNow,
			time.Date(2025, 6, 2, 16, 0, 0, 0, time.UTC),
		},
		{
			"下午时刻已过顺延次日",
			"RESCHEDULE 4pm",
			time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 3, 16, 0, 0, 0, time.UTC),
		},
		{
			"带分钟的am时刻",
			"reschedule to 8:30am",
			time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC),
		},
		{
			"24小时制",
			"change it to 16:30",
			parserNow,
			time.Date(2025, 6, 2, 16, 30, 0, 0, time.UTC),
		},
		{
			"tomorrow默认上午九点",
			"push to tomorrow",
			parserNow,
			time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
		},
		{
			"tomorrow加时刻",
			"reschedule tomorrow 2pm",
			parserNow,
			time.Date(2025, 6, 3, 14, 0, 0, 0, time.UTC),
		},
		{
			"斜杠日期缺省年份",
			"move it to 6/15",
			parserNow,
			time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
		},
		{
			"斜杠日期带两位年份",
			"change to 6/15/26",
			parserNow,
			time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := ParseEmailCommand("", "", tc.body, tc.now)
			if cmd.Action != CommandReschedule {
				t.Fatalf("ParseEmailCommand(%q).Action = %s, want reschedule", tc.body, cmd.Action)
			}
			if cmd.ResolvedTime == nil {
				t.Fatalf("ParseEmailCommand(%q).ResolvedTime = nil, want %v", tc.body, tc.want)
			}
			if !cmd.ResolvedTime.Equal(tc.want) {
				t.Errorf("ParseEmailCommand(%q).ResolvedTime = %v, want %v", tc.body, cmd.ResolvedTime, tc.want)
			}
		})
	}
}

func TestParseUnresolvableRescheduleTime(t *testing.T) {
	cmd := ParseEmailCommand("", "", "reschedule to 99/99", parserNow)
	if cmd.Action != CommandReschedule {
		t.Fatalf("Action = %s, want reschedule", cmd.Action)
	}
	if cmd.ResolvedTime != nil {
		t.Errorf("非法日期应解析为nil, got %v", cmd.ResolvedTime)
	}
	if cmd.RawExpr == "" {
		t.Errorf("RawExpr 应保留原始表达")
	}
}

func TestParseTaskIdentifierPrecedence(t *testing.T) {
	const addrID = "aaaa11-addr"
	const subjID = "bbbb22-subj"
	const bodyID = "cccc33-body"

	// 回复地址优先
	cmd := ParseEmailCommand("task+"+addrID+"@remindly.app", "Re: [task-"+subjID+"]", "see task-"+bodyID, parserNow)
	if cmd.TaskID != addrID {
		t.Errorf("TaskID = %s, want %s（地址优先）", cmd.TaskID, addrID)
	}

	// 其次主题
	cmd = ParseEmailCommand("user@example.com", "Re: [task-"+subjID+"]", "see task-"+bodyID, parserNow)
	if cmd.TaskID != subjID {
		t.Errorf("TaskID = %s, want %s（主题次之）", cmd.TaskID, subjID)
	}

	// 最后正文
	cmd = ParseEmailCommand("user@example.com", "Re: hello", "see task-"+bodyID, parserNow)
	if cmd.TaskID != bodyID {
		t.Errorf("TaskID = %s, want %s（正文兜底）", cmd.TaskID, bodyID)
	}

	// 都没有则为空，由调用方拒绝
	cmd = ParseEmailCommand("user@example.com", "Re: hello", "done", parserNow)
	if cmd.TaskID != "" {
		t.Errorf("TaskID = %s, want 空", cmd.TaskID)
	}
}
