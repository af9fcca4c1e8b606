package notification

import (
	"context"
	"errors"
	"net/smtp"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SMTPMailer", func() {
	var (
		mailer *SMTPMailer
		addr   string
		to     []string
		raw    []byte
	)

	BeforeEach(func() {
		mailer = NewSMTPMailer(internal.MailConfig{
			Host:     "smtp.example.com",
			Port:     587,
			Username: "mailer",
			Password: "secret",
			From:     "no-reply@example.com",
		})
		mailer.send = func(a string, _ smtp.Auth, _ string, recipients []string, msg []byte) error {
			addr, to, raw = a, recipients, msg
			return nil
		}
	})

	It("sends a plain text message with headers", func() {
		err := mailer.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hi", Body: "line1\nline2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(addr).To(Equal("smtp.example.com:587"))
		Expect(to).To(Equal([]string{"ana@example.com"}))
		Expect(string(raw)).To(ContainSubstring("From: no-reply@example.com\r\n"))
		Expect(string(raw)).To(ContainSubstring("Subject: Hi\r\n"))
		Expect(string(raw)).To(HaveSuffix("\r\n\r\nline1\r\nline2"))
	})

	It("does not dial once the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(mailer.Send(ctx, Message{To: "ana@example.com"})).To(MatchError(context.Canceled))
		Expect(addr).To(BeEmpty())
	})

	It("wraps delivery failures", func() {
		mailer.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
		err := mailer.Send(context.Background(), Message{To: "ana@example.com"})
		Expect(err).To(MatchError(ContainSubstring("refused")))
	})
})
