package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
)

type authorService struct {
	repo repository.AuthorRepository
	log  zerolog.Logger
}

func NewAuthorService(repo repository.AuthorRepository, logger zerolog.Logger) AuthorService {
	l := logger.With().Str("module", "service").Str("component", "author").Logger()
	return &authorService{repo: repo, log: l}
}

func (s *authorService) Get(ctx context.Context, id uuid.UUID) (model.Author, error) {
	if id == uuid.Nil {
		return model.Author{}, newInvalidInput([]FieldError{{Field: "id", Message: "must be a valid author id"}})
	}
	return s.repo.GetByID(ctx, id)
}
