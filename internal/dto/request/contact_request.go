package request

// FriendUserRequest 发送好友请求 / 删除好友
type FriendUserRequest struct {
	UserId string `json:"user_id" binding:"required"`
}

// FriendRequestIdRequest 同意 / 拒绝好友请求
type FriendRequestIdRequest struct {
	RequestId string `json:"request_id" binding:"required"`
}
