package main

import (
	"context"
	"log"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"

	"github.com/koinoniahq/koinonia/config"
	"github.com/koinoniahq/koinonia/db"
	"github.com/koinoniahq/koinonia/realtime"
	"github.com/koinoniahq/koinonia/server"
	"github.com/koinoniahq/koinonia/services"
)

// initFirebase builds the push messaging client. Missing credentials
// are not fatal: push delivery is simply skipped.
func initFirebase(conf *config.Config) *messaging.Client {
	if conf.GoogleApplicationCredentials == "" {
		log.Println("firebase credentials not configured, push notifications disabled")
		return nil
	}
	opt := option.WithCredentialsFile(conf.GoogleApplicationCredentials)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("error initializing Firebase app: %v", err)
		return nil
	}
	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("error getting Messaging client: %v", err)
		return nil
	}
	log.Println("Firebase Messaging client initialized")
	return client
}

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	messagingClient := initFirebase(conf)

	gormDB := db.GetDB(conf)
	authRepo := db.NewAuthRepo(gormDB)
	conversationRepo := db.NewConversationRepo(gormDB)
	messageRepo := db.NewMessageRepo(gormDB)
	reactionRepo := db.NewReactionRepo(gormDB)
	groupRepo := db.NewGroupRepo(gormDB)

	hub := realtime.NewHub()

	resolver := services.NewConversationResolver(conversationRepo, authRepo, conf)
	notificationService := services.NewNotificationService(authRepo, messagingClient, conf)
	messageService := services.NewMessageService(messageRepo, resolver, authRepo, hub, notificationService, conf)
	groupService := services.NewGroupService(groupRepo, authRepo, hub, conf)
	reactionService := services.NewReactionService(reactionRepo, messageRepo, hub, conf)
	mediaService := services.NewMediaService(conf)

	s := &server.Server{
		Config:          conf,
		AuthRepository:  authRepo,
		MessageService:  messageService,
		GroupService:    groupService,
		ReactionService: reactionService,
		MediaService:    mediaService,
		Hub:             hub,
		DB:              *gormDB,
	}
	s.Start()
}
