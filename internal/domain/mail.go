package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type VerifyEmailMailData struct {
	Name      string `json:"name"`
	VerifyURL string `json:"verifyUrl"`
}

type ResetPasswordMailData struct {
	Name       string `json:"name"`
	ResetURL   string `json:"resetUrl"`
	Expiration int    `json:"expiration"`
}

type ApplicationStatusMailData struct {
	Name     string `json:"name"`
	JobTitle string `json:"jobTitle"`
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

type AnnouncementMailData struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
