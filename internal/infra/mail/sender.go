package mail

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
}

func NewEmailSender(host string, port int, user, password string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
	}
}

// SendAppointmentBooked notifies the account owner that a call just booked an
// appointment with one of their prospects.
func (s *EmailSender) SendAppointmentBooked(to, userName, prospectName string, scheduledFor time.Time) error {
	greeting := "Hi"
	if userName != "" {
		greeting = "Hi " + userName
	}

	body := fmt.Sprintf(
		"%s,\n\nGood news: %s just booked an appointment for %s.\n\nYou can review the details in your dashboard.\n",
		greeting, prospectName, scheduledFor.Format("Monday, Jan 2 at 15:04 MST"),
	)

	m := gomail.NewMessage()
	m.SetHeader("From", s.User)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Appointment booked with %s", prospectName))
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send appointment email: %w", err)
	}
	return nil
}
