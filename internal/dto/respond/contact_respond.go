package respond

import "time"

// FriendRespond 好友
type FriendRespond struct {
	UserBrief
	Since time.Time `json:"since"`
}

// FriendRequestRespond 好友请求，User 为对方
type FriendRequestRespond struct {
	RequestId string    `json:"request_id"`
	User      UserBrief `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactsRespond 通讯录：好友 + 收到的请求 + 发出的请求
type ContactsRespond struct {
	Friends      []FriendRespond        `json:"friends"`
	Incoming     []FriendRequestRespond `json:"incoming"`
	Outgoing     []FriendRequestRespond `json:"outgoing"`
	PendingCount int                    `json:"pending_count"`
}

// SendFriendRequestRespond Status: pending / accepted（对方已先发起时直接成为好友）
type SendFriendRequestRespond struct {
	RequestId string `json:"request_id"`
	Status    string `json:"status"`
}

// FriendRequestsRespond 待处理的好友请求
type FriendRequestsRespond struct {
	Incoming     []FriendRequestRespond `json:"incoming"`
	Outgoing     []FriendRequestRespond `json:"outgoing"`
	PendingCount int                    `json:"pending_count"`
}
