package bot

import (
	"fmt"
	"html"
	"strings"

	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
	"task_tracker/internal/service"
)

var priorityMark = map[domain.Priority]string{
	domain.PriorityHigh:   "🔴",
	domain.PriorityMedium: "🟡",
	domain.PriorityLow:    "🟢",
}

// formatOccurrences renders a list in Telegram HTML. withDates prefixes every
// line with the day, which the weekly view needs.
func formatOccurrences(title string, items []service.Occurrence, withDates bool) string {
	var b strings.Builder
	b.WriteString("<b>" + html.EscapeString(title) + "</b>\n")
	if len(items) == 0 {
		b.WriteString("\nНичего не запланировано 🎉")
		return b.String()
	}

	done := 0
	for _, it := range items {
		check := "⬜"
		if it.Completed {
			check = "✅"
			done++
		}
		b.WriteString("\n" + check + " ")
		if withDates {
			b.WriteString(occurrence.FormatDay(it.Date) + " ")
		}
		b.WriteString(priorityMark[it.Task.Priority] + " " + html.EscapeString(it.Task.Title))
	}
	fmt.Fprintf(&b, "\n\nВыполнено: %d из %d", done, len(items))
	return b.String()
}

func helpMessage() string {
	return `<b>📋 Трекер задач</b>

Войдите в WebApp через Telegram, чтобы привязать аккаунт.

/today - задачи на сегодня
/week - задачи на эту неделю
/help - эта справка`
}
