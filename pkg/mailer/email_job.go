package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template names a set of files under templates/; Subject overrides the
// rendered subject when set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}
