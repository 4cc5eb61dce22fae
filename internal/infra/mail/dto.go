package mail

import "html/template"

// Message is one outgoing email, independent of the provider that delivers it.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

type LeadEmailData struct {
	BusinessName string
	Priority     bool
	Name         string
	Email        string
	Phone        string
	PhoneLink    template.URL
	Address      string
	Budget       string
	Scope        string
	Notes        string
	PhotosEmail  string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
}
