package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// UI (TUI/REPL) - Panel titles
	"panel.chat":  "AI Assistant",
	"panel.board": "Board",
	"panel.stats": "Stats",

	// Board columns
	"column.todo":        "To Do",
	"column.in_progress": "In Progress",
	"column.done":        "Done",
	"board.empty":        "No tasks yet",

	// UI - Status bar
	"status.ready":         "Ready",
	"status.thinking":      "Thinking...",
	"status.tasks_changed": "Board updated (%d action(s))",
	"status.refresh_error": "Could not refresh the board: %s",

	// UI - Input
	"input.placeholder": "Type a message...",
	"chat.welcome":      "How can I help? Ask me to create tasks, update your board, or get productivity tips.",

	// UI - Keybindings (TUI)
	"keys.tab":    "tab focus",
	"keys.enter":  "enter send",
	"keys.ctrl_r": "ctrl+r refresh",
	"keys.esc":    "esc quit",

	// Chat failures rendered as an assistant message
	"chat.rate_limited":     "I'm being rate limited. Please try again in a moment.",
	"chat.credits_out":      "AI credits have been exhausted. Please add more credits.",
	"chat.failed":           "Sorry, something went wrong. Please try again.",
	"chat.connection_error": "Connection error. Please check your internet and try again.",
	"chat.busy":             "Still answering the previous message.",

	// Commands (REPL)
	"cmd.help":  "Show available commands",
	"cmd.board": "Show the board",
	"cmd.stats": "Show board statistics",
	"cmd.clear": "Start a new conversation",
	"cmd.exit":  "Exit",

	// Stats
	"stats.total":      "Total tasks: %d",
	"stats.completion": "Completion: %d%%",
	"stats.priority":   "%s: %d (%d%%)",

	// Tasks (CLI)
	"task.created":           "Task created",
	"task.updated":           "Task updated",
	"task.deleted":           "Task deleted",
	"task.moved":             "Moved to %s",
	"task.import":            "Imported %d task(s)",
	"task.import_duplicates": "Skipped %d task(s) already on the board",
	"task.import_skipped":    "Skipped entry #%d %q: %s",

	// Startup
	"startup.welcome": "FlowBoard chat connected to %s",
	"startup.serving": "FlowBoard gateway listening on %s",
}
