// Package messages renders the assistant's prompts and results as
// models.Outbound values.
package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/xaenox/routine-bot/internal/models"
	"github.com/xaenox/routine-bot/internal/recurrence"
	"github.com/xaenox/routine-bot/internal/validate"
)

// Reply tokens offered as quick reply options
const (
	ReminderOn   = "設定提醒"
	ReminderOff  = "不設定提醒"
	CycleExample = "example"
)

const dateLayout = "2006-01-02"

var startDateOptions = []models.Option{
	{Label: recurrence.Today, Text: recurrence.Today},
	{Label: recurrence.Yesterday, Text: recurrence.Yesterday},
}

var toggleOptions = []models.Option{
	{Label: "是", Text: ReminderOn},
	{Label: "否", Text: ReminderOff},
}

var cycleOptions = []models.Option{
	{Label: "1 天", Text: "1 day"},
	{Label: "1 週", Text: "1 week"},
	{Label: "1 個月", Text: "1 month"},
	{Label: "輸入自訂週期（點我看範例）", Text: CycleExample},
}

func newEventTitle(name string) string {
	return fmt.Sprintf("🎯 新事件［%s］", name)
}

func day(t time.Time) string {
	return t.Format(dateLayout)
}

// New event

func PromptEventName() models.Outbound {
	return models.Text{Body: "🎯 請輸入欲新增的事件名稱（限 2 至 20 字元）"}
}

func PromptStartDate(name string) models.Outbound {
	return models.QuickReply{
		Title:   newEventTitle(name),
		Body:    "⬇️ 請輸入事件起始日期\n支援：今天、明天、昨天、0827（MMDD）、20250827（YYYYMMDD）",
		Options: startDateOptions,
	}
}

func InvalidStartDate(name string) models.Outbound {
	return models.QuickReply{
		Title:   newEventTitle(name),
		Body:    "⚠️ 無法辨識輸入的日期，請再試一次\n支援：今天、明天、昨天、0827（MMDD）、20250827（YYYYMMDD）",
		Options: startDateOptions,
	}
}

func PromptToggleReminder(name string, start time.Time) models.Outbound {
	return models.QuickReply{
		Title:   newEventTitle(name),
		Body:    fmt.Sprintf("🗓 起始日期：%s\n\n⬇️ 請選擇是否設定提醒", day(start)),
		Options: toggleOptions,
	}
}

func InvalidToggleReminder(name string, start time.Time) models.Outbound {
	return models.QuickReply{
		Title:   newEventTitle(name),
		Body:    fmt.Sprintf("🗓 起始日期：%s\n\n⚠️ 無效的輸入，請再試一次\n\n⬇️ 請透過下方按鈕選擇是否設定提醒", day(start)),
		Options: toggleOptions,
	}
}

func PromptReminderCycle(name string, start time.Time) models.Outbound {
	return models.QuickReply{
		Title:   newEventTitle(name),
		Body:    fmt.Sprintf("🗓 起始日期：%s\n\n⬇️ 請選擇提醒週期", day(start)),
		Options: cycleOptions,
	}
}

func InvalidReminderCycle(name string, start time.Time) models.Outbound {
	return models.QuickReply{
		Title:   newEventTitle(name),
		Body:    fmt.Sprintf("🗓 起始日期：%s\n\n⚠️ 無效的輸入，請再試一次\n\n⬇️ 請選擇提醒週期", day(start)),
		Options: cycleOptions,
	}
}

func ReminderCycleExample() models.Outbound {
	return models.TemplatePrompt{
		Title: "🌟 自訂週期輸入格式",
		Lines: []string{"支援以下格式：", "📌 3 day", "📌 2 week", "📌 1 month", "⚠️ 數字需大於 0，請直接輸入上述其中一種格式"},
	}
}

func EventCreated(event *models.Event) models.Outbound {
	lines := []string{
		newEventTitle(event.Name),
		fmt.Sprintf("🗓 起始日期：%s", day(event.LastDoneAt)),
	}
	if event.Reminder && event.Cycle != nil && event.NextReminder != nil {
		lines = append(lines,
			fmt.Sprintf("⏰ 提醒週期：%s", event.Cycle),
			fmt.Sprintf("🔔 下次提醒：%s", day(*event.NextReminder)),
		)
	} else {
		lines = append(lines, "🔕 提醒設定：關閉")
	}
	return models.TemplatePrompt{Title: "✅ 新增完成！", Lines: lines}
}

// Find event

func PromptFindEventName() models.Outbound {
	return models.Text{Body: "🎯 請輸入欲查詢的事件名稱"}
}

// EventSummary lists the event's reminder settings and its recent completion
// dates, shown in loc.
func EventSummary(event *models.Event, recent []time.Time, loc *time.Location) models.Outbound {
	var lines []string
	if event.Reminder && event.Cycle != nil && event.NextReminder != nil {
		lines = append(lines,
			fmt.Sprintf("⏰ 提醒週期：%s", event.Cycle),
			fmt.Sprintf("🔔 下次提醒：%s", day(event.NextReminder.In(loc))),
		)
	} else {
		lines = append(lines, "🔕 提醒設定：關閉")
	}
	lines = append(lines, "🗓 最近完成日期")
	for _, t := range recent {
		lines = append(lines, "✅ "+day(t.In(loc)))
	}
	return models.TemplatePrompt{Title: fmt.Sprintf("🎯［%s］的事件摘要", event.Name), Lines: lines}
}

// Errors

func InvalidEventName(err *validate.Error) models.Outbound {
	switch err.Reason {
	case validate.TooShort:
		return models.Text{Body: fmt.Sprintf("事件名稱不可以少於 %d 字元🤣\n請再試一次😌", validate.MinEventNameLen)}
	case validate.TooLong:
		return models.Text{Body: fmt.Sprintf("事件名稱不可以超過 %d 字元🤣\n請再試一次😌", validate.MaxEventNameLen)}
	}
	wrapped := make([]string, len(err.Chars))
	for i, r := range err.Chars {
		wrapped[i] = "「" + string(r) + "」"
	}
	return models.Text{Body: fmt.Sprintf("無效的字元：%s\n請再試一次😌", strings.Join(wrapped, "、"))}
}

func EventNameDuplicated(name string) models.Outbound {
	return models.Text{Body: fmt.Sprintf("已有叫做［%s］的事件🤣 請換個名稱再試一次😌", name)}
}

func EventNotFound(name string) models.Outbound {
	return models.Text{Body: fmt.Sprintf("找不到叫做［%s］的事件😱 請再試一次😌", name)}
}

func UnrecognizedCommand() models.Outbound {
	return models.Text{Body: "指令無法辨識🤣 請再試一次😌"}
}

func MaxEventsReached(limit int) models.Outbound {
	return models.TemplatePrompt{
		Title: "⚠️ 無法新增事件",
		Lines: []string{
			fmt.Sprintf("🔒 你已達到免費方案的 %d 個事件上限", limit),
			"💡 你可以選擇：",
			"🗑️ 刪除超量事件，繼續使用免費方案",
			"🚀 升級至 premium，享受新增無上限",
		},
	}
}

func TryAgain() models.Outbound {
	return models.Text{Body: "系統忙碌中😵 請稍後再試一次🙏"}
}

func Conflict() models.Outbound {
	return models.Text{Body: "操作衝突了😵 請再送出一次🙏"}
}

// Abort and greetings

func NothingToAbort() models.Outbound {
	return models.Text{Body: "沒有進行中的操作可以取消🤣"}
}

func Aborted() models.Outbound {
	return models.Text{Body: "已中止目前的操作🙏\n請重新輸入新的指令😉"}
}

func Greeting() models.Outbound {
	return models.Text{Body: "hello! 輸入 /help 查看可用的指令😉"}
}

func Help() models.Outbound {
	return models.TemplatePrompt{
		Title: "📖 可用的指令",
		Lines: []string{
			"/new [名稱] - 新增事件",
			"/find [名稱] - 查詢事件",
			"/abort - 中止目前的操作",
			"/help - 顯示這則說明",
		},
	}
}
