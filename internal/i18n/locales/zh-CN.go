package locales

// MessagesZhCN 中文翻译
var MessagesZhCN = map[string]string{
	// 通用消息
	"success":        "操作成功",
	"common.success": "成功",
	"error":          "操作失败",
	"not_found":      "未找到",
	"bad_request":    "请求错误",
	"internal_error": "内部错误",
	"invalid_param":  "参数无效",

	// 转发相关
	"relay.message_required": "缺少必需的查询参数 'message'",
	"relay.invalid_history":  "查询参数 'history' 不是有效的会话历史",
	"relay.invalid_format":   "不支持的响应格式",

	// 统计相关
	"stats.fetched": "统计数据获取成功",
}
