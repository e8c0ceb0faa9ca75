package model

const (
	InquiriesTable = "Inquiries"
	MessagesTable  = "InquiryMessages"
)

// Global secondary indexes.
const (
	InquiriesByCustomerKeyIndex = "byCustomerKey"
	MessagesByInquiryIndex      = "byInquiry"
)
