package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"firebase.google.com/go/messaging"
	"github.com/mailgun/mailgun-go/v4"

	"github.com/koinoniahq/koinonia/config"
	"github.com/koinoniahq/koinonia/db"
)

// NotificationService delivers out-of-band nudges when the receiver has
// no live session. Everything here is fire-and-forget: the caller never
// waits and failures are only logged.
type NotificationService interface {
	NotifyNewMessage(receiverID, senderID uint, preview string)
}

// notificationService struct
type notificationService struct {
	Config    *config.Config
	authRepo  db.AuthRepository
	fcmClient *messaging.Client
	mgClient  *mailgun.MailgunImpl
}

// NewNotificationService creates a new instance of NotificationService.
// fcmClient may be nil when Firebase credentials are not configured.
func NewNotificationService(authRepo db.AuthRepository, fcmClient *messaging.Client, conf *config.Config) NotificationService {
	var mg *mailgun.MailgunImpl
	if conf.MgDomain != "" && conf.MailgunApiKey != "" {
		mg = mailgun.NewMailgun(conf.MgDomain, conf.MailgunApiKey)
	}
	return &notificationService{
		Config:    conf,
		authRepo:  authRepo,
		fcmClient: fcmClient,
		mgClient:  mg,
	}
}

func (s *notificationService) NotifyNewMessage(receiverID, senderID uint, preview string) {
	go func() {
		receiver, err := s.authRepo.FindUserByID(receiverID)
		if err != nil {
			log.Printf("notification: receiver %d lookup failed: %v", receiverID, err)
			return
		}
		sender, err := s.authRepo.FindUserByID(senderID)
		if err != nil {
			log.Printf("notification: sender %d lookup failed: %v", senderID, err)
			return
		}

		title := fmt.Sprintf("New message from %s", sender.Fullname)

		if s.fcmClient != nil && receiver.DeviceToken != "" {
			s.sendPush(receiver.DeviceToken, title, preview)
		} else if s.mgClient != nil && receiver.Email != "" {
			s.sendEmail(receiver.Email, title, preview)
		}
	}()
}

func (s *notificationService) sendPush(deviceToken, title, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	message := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}
	if _, err := s.fcmClient.Send(ctx, message); err != nil {
		log.Printf("notification: push send failed: %v", err)
	}
}

func (s *notificationService) sendEmail(to, subject, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	message := s.mgClient.NewMessage(s.Config.MgEmailFrom, subject, body, to)
	if _, _, err := s.mgClient.Send(ctx, message); err != nil {
		log.Printf("notification: email send failed: %v", err)
	}
}
