package database

import (
	"context"

	"calldrip/internal/entity"
)

// WorkerStore bundles the repositories the call-executor worker needs behind
// its narrow queue.WorkerStore contract.
type WorkerStore struct {
	Users         *UserRepository
	Prospects     *ProspectRepository
	Conversations *ConversationRepository
}

func NewWorkerStore(users *UserRepository, prospects *ProspectRepository, conversations *ConversationRepository) *WorkerStore {
	return &WorkerStore{
		Users:         users,
		Prospects:     prospects,
		Conversations: conversations,
	}
}

func (s *WorkerStore) FindProspect(ctx context.Context, id string) (*entity.Prospect, error) {
	return s.Prospects.FindByID(ctx, id)
}

func (s *WorkerStore) FindUser(ctx context.Context, id string) (*entity.User, error) {
	return s.Users.FindByID(ctx, id)
}

func (s *WorkerStore) CreateConversation(ctx context.Context, c *entity.Conversation) error {
	return s.Conversations.Create(ctx, c)
}

func (s *WorkerStore) SetConversationCallID(ctx context.Context, conversationID, callID string) error {
	return s.Conversations.SetCallID(ctx, conversationID, callID)
}
