package dto

// ── 聊天助理 DTO ──

// ChatRequest 使用者訊息
type ChatRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// ChatMessage 對話紀錄項目，role 為 user 或 bot
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse 單輪回覆
type ChatResponse struct {
	Reply   string        `json:"reply"`
	History []ChatMessage `json:"history"`
}
