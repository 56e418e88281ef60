package main

import (
	"log"

	"github.com/SkillSyncApp/SkillSyncServer/config"
	"github.com/SkillSyncApp/SkillSyncServer/db"
	"github.com/SkillSyncApp/SkillSyncServer/realtime"
	"github.com/SkillSyncApp/SkillSyncServer/server"
	"github.com/SkillSyncApp/SkillSyncServer/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gormDB := db.GetDB(conf)
	chatRepo := db.NewChatRepo(gormDB)
	userRepo := db.NewUserRepo(gormDB)

	hub := realtime.NewHub()
	chatService := services.NewChatService(chatRepo, userRepo, conf, hub)

	s := &server.Server{
		Config:         conf,
		ChatService:    chatService,
		UserRepository: userRepo,
		Hub:            hub,
	}

	s.Start()
}
