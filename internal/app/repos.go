package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// Repos holds every repository over the relational store.
type Repos struct {
	Chats         repos.ChatRepo
	Messages      repos.MessageRepo
	Aliases       repos.AliasRepo
	Embeddings    repos.EmbeddingRepo
	Facts         repos.FactRepo
	Profiles      repos.ProfileRepo
	Relationships repos.RelationshipRepo
	Memory        repos.MemoryRepo
	Settings      repos.SettingsRepo
}

func BuildRepos(gdb *gorm.DB, log *logger.Logger) *Repos {
	return &Repos{
		Chats:         repos.NewChatRepo(gdb, log),
		Messages:      repos.NewMessageRepo(gdb, log),
		Aliases:       repos.NewAliasRepo(gdb, log),
		Embeddings:    repos.NewEmbeddingRepo(gdb, log),
		Facts:         repos.NewFactRepo(gdb, log),
		Profiles:      repos.NewProfileRepo(gdb, log),
		Relationships: repos.NewRelationshipRepo(gdb, log),
		Memory:        repos.NewMemoryRepo(gdb, log),
		Settings:      repos.NewSettingsRepo(gdb, log),
	}
}
