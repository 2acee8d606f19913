package email

const (
	subjectPasswordChanged = "您的密碼已變更"
	subjectPhoneVerified   = "手機號碼驗證完成"
)
