package dto

type RegisterRequest struct {
	CustomerName  string `json:"customerName,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	SessionID     string `json:"sessionId,omitempty"`
}

type RegisterResponse struct {
	Success     bool   `json:"success"`
	SessionID   string `json:"sessionId"`
	CustomerKey string `json:"customerKey"`
	InquiryID   string `json:"inquiryId"`
	Message     string `json:"message"`
	Returning   bool   `json:"returning"`
}

type PostMessageRequest struct {
	SessionID     string `json:"sessionId"`
	CustomerKey   string `json:"customerKey"`
	Message       string `json:"message"`
	Sender        string `json:"sender,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
}

type PostMessageResponse struct {
	Success         bool   `json:"success"`
	MessageID       string `json:"messageId"`
	InquiryID       string `json:"inquiryId"`
	AIResponse      string `json:"aiResponse,omitempty"`
	NeedsHumanAgent bool   `json:"needsHumanAgent"`
	Status          string `json:"status"`
}

type InquiryResponse struct {
	ID              string  `json:"id"`
	Status          string  `json:"status"`
	CustomerName    string  `json:"customerName"`
	CustomerEmail   string  `json:"customerEmail"`
	CustomerPhone   string  `json:"customerPhone"`
	CustomerMessage string  `json:"customerMessage"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
	AssignedTo      *string `json:"assignedTo"`
	Priority        string  `json:"priority"`
	MessageCount    int     `json:"messageCount"`
	LastMessageTime string  `json:"lastMessageTime,omitempty"`
	SessionID       string  `json:"sessionId"`
	CustomerKey     string  `json:"customerKey"`
}

type MessageResponse struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

type ReplyRequest struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	ReplyText string `json:"replyText"`
	// Agent is only read when agent tokens are disabled.
	Agent string `json:"agent,omitempty"`
}

type ReplyResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

type AssignRequest struct {
	ID    string `json:"id"`
	Agent string `json:"agent"`
}

type UnassignRequest struct {
	ID string `json:"id"`
}

type StatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type InquiryUpdateResponse struct {
	Success bool            `json:"success"`
	Inquiry InquiryResponse `json:"inquiry"`
}

type AfterHoursRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	Message       string `json:"message"`
}

type AfterHoursResponse struct {
	Success     bool   `json:"success"`
	InquiryID   string `json:"inquiryId"`
	SessionID   string `json:"sessionId"`
	CustomerKey string `json:"customerKey"`
	Message     string `json:"message"`
}

type BusinessHoursResponse struct {
	IsBusinessHours bool   `json:"isBusinessHours"`
	CurrentTime     string `json:"currentTime"`
	Message         string `json:"message"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms,omitempty"`
	Subscribers int    `json:"subscribers,omitempty"`
}
