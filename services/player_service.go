package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/repositories"
)

const defaultPlayerRating = 1500

type PlayerService struct {
	players repositories.PlayerRepository
}

func NewPlayerService(players repositories.PlayerRepository) *PlayerService {
	return &PlayerService{players: players}
}

func (s *PlayerService) Create(ctx context.Context, p *models.Player) (*models.Player, error) {
	if p.DisplayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrValidation)
	}
	if p.Rating == 0 {
		p.Rating = defaultPlayerRating
	}
	if err := s.players.Create(ctx, nil, p); err != nil {
		if errors.Is(err, repositories.ErrPlayerNameConflict) {
			return nil, ErrPlayerNameConflict
		}
		return nil, err
	}
	return p, nil
}

func (s *PlayerService) Get(ctx context.Context, id int) (*models.Player, error) {
	p, err := s.players.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PlayerService) ListByIDs(ctx context.Context, ids []int) ([]*models.Player, error) {
	return s.players.ListByIDs(ctx, nil, ids)
}
