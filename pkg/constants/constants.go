package constants

const (
	CHANNEL_SIZE               = 1000     // 事件广播通道大小
	SESSION_SEND_BUFFER        = 256      // 单个 ws 连接的发送队列长度
	FILE_MAX_SIZE              = 20 << 20 // 上传文件最大大小（字节）
	REDIS_TIMEOUT              = 1        // redis 缓存默认过期时间（分钟）
	REFRESH_TOKEN_EXPIRY_HOURS = 168      // Refresh Token 有效期（小时），168小时 = 7天
)

// 会话类型
const (
	CONVERSATION_PRIVATE int8 = 1
	CONVERSATION_GROUP   int8 = 2
	CONVERSATION_SELF    int8 = 3
)

// 成员角色，数值越大权限越高
const (
	ROLE_NONE   int8 = 0 // 私聊/自聊成员无角色
	ROLE_MEMBER int8 = 1
	ROLE_ADMIN  int8 = 2
	ROLE_OWNER  int8 = 3
)

// 好友关系状态
const (
	FRIEND_PENDING  int8 = 0
	FRIEND_ACCEPTED int8 = 1
)

// 用户状态
const (
	USER_NORMAL int8 = 0
	USER_BANNED int8 = 1
)

// 消息类型
const (
	MSG_TEXT  = "text"
	MSG_IMAGE = "image"
	MSG_AUDIO = "audio"
	MSG_VIDEO = "video"
	MSG_FILE  = "file"
)

// 默认群名与自聊名称
const (
	DEFAULT_GROUP_NAME = "群聊"
	SELF_CHAT_NAME     = "我的备忘录"
)

// 会话/用户 ID 前缀
const (
	USER_ID_PREFIX         = "U"
	CONVERSATION_ID_PREFIX = "C"
	FRIEND_ID_PREFIX       = "F"
)
