package i18n

// ZhCNMessages 中文消息目录
var ZhCNMessages = map[string]string{
	"panel.chat":  "AI 助手",
	"panel.board": "看板",
	"panel.stats": "统计",

	"column.todo":        "待办",
	"column.in_progress": "进行中",
	"column.done":        "已完成",
	"board.empty":        "暂无任务",

	"status.ready":         "就绪",
	"status.thinking":      "思考中...",
	"status.tasks_changed": "看板已更新（%d 项操作）",
	"status.refresh_error": "刷新看板失败：%s",

	"input.placeholder": "输入消息...",
	"chat.welcome":      "有什么可以帮你？可以让我创建任务、更新看板，或者给一些效率建议。",

	"keys.tab":    "tab 切换焦点",
	"keys.enter":  "enter 发送",
	"keys.ctrl_r": "ctrl+r 刷新",
	"keys.esc":    "esc 退出",

	"chat.rate_limited":     "请求过于频繁，请稍后再试。",
	"chat.credits_out":      "AI 额度已用完，请充值后继续。",
	"chat.failed":           "抱歉，出了点问题，请重试。",
	"chat.connection_error": "连接失败，请检查网络后重试。",
	"chat.busy":             "上一条消息还在回复中。",

	"cmd.help":  "显示可用命令",
	"cmd.board": "显示看板",
	"cmd.stats": "显示看板统计",
	"cmd.clear": "开始新的对话",
	"cmd.exit":  "退出",

	"stats.total":      "任务总数：%d",
	"stats.completion": "完成率：%d%%",
	"stats.priority":   "%s：%d（%d%%）",

	"task.created":           "任务已创建",
	"task.updated":           "任务已更新",
	"task.deleted":           "任务已删除",
	"task.moved":             "已移动到 %s",
	"task.import":            "已导入 %d 个任务",
	"task.import_duplicates": "跳过 %d 个看板上已有的任务",
	"task.import_skipped":    "跳过第 %d 条 %q：%s",

	"startup.welcome": "FlowBoard 对话已连接 %s",
	"startup.serving": "FlowBoard 网关监听于 %s",
}
