package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Dosada05/knockout-scheduler/brackets"
	"github.com/Dosada05/knockout-scheduler/models"
	"github.com/Dosada05/knockout-scheduler/repositories"
)

// PropagationService records match winners and advances them through the
// bracket. The next match is addressed arithmetically: the winner of round r
// match n lands in round r-1 match (n-1)/2+1 of the same group.
type PropagationService interface {
	MarkWinner(ctx context.Context, matchID int, teamID int) (*models.Match, error)
	PropagateWinner(ctx context.Context, match *models.Match) error
}

type propagationService struct {
	matchRepo repositories.MatchRepository
	hub       *brackets.Hub
	logger    *slog.Logger
}

func NewPropagationService(
	matchRepo repositories.MatchRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) PropagationService {
	return &propagationService{
		matchRepo: matchRepo,
		hub:       hub,
		logger:    logger,
	}
}

// MarkWinner validates and records the winner of a match, then propagates it
// into the next round.
func (s *propagationService) MarkWinner(ctx context.Context, matchID int, teamID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	team1 := match.Team1ID != nil && *match.Team1ID == teamID
	team2 := match.Team2ID != nil && *match.Team2ID == teamID
	if !team1 && !team2 {
		return nil, ErrWinnerNotInMatch
	}

	if err := s.matchRepo.SetWinner(ctx, matchID, teamID); err != nil {
		return nil, fmt.Errorf("failed to set winner for match %d: %w", matchID, err)
	}
	match.WinnerID = &teamID

	s.hub.BroadcastToRoom(strconv.Itoa(match.TournamentID), brackets.Event{
		Type:    brackets.EventMatchUpdated,
		Payload: match,
	})

	if err := s.PropagateWinner(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// PropagateWinner fills the winner of match into the first open team slot of
// the next-round match. Missing winners, group finals and already-propagated
// winners are quiet no-ops; only persistence failures are errors. Safe to
// re-invoke for the same match.
func (s *propagationService) PropagateWinner(ctx context.Context, match *models.Match) error {
	if match == nil || match.WinnerID == nil {
		s.logger.Warn("propagation skipped: match has no winner")
		return nil
	}
	if match.Round <= 1 {
		// The group (or tournament) final; seeding a finals bracket from
		// group champions is a registration concern, not propagation.
		return nil
	}
	if match.GroupCode == nil {
		s.logger.Warn("propagation skipped: match has no group code",
			slog.Int("match_id", match.ID))
		return nil
	}

	nextRound := match.Round - 1
	nextNumber := brackets.NextMatchNumber(match.MatchNumber)

	target, err := s.matchRepo.GetByCoordinates(ctx, match.TournamentID, *match.GroupCode, nextRound, nextNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			// Indicates a bracket-construction invariant violation, but the
			// observed steady state treats it as a warning, not a failure.
			s.logger.Warn("propagation target missing",
				slog.Int("tournament_id", match.TournamentID),
				slog.String("group_code", *match.GroupCode),
				slog.Int("round", nextRound),
				slog.Int("match_number", nextNumber))
			return nil
		}
		return err
	}

	winnerID := *match.WinnerID
	if (target.Team1ID != nil && *target.Team1ID == winnerID) ||
		(target.Team2ID != nil && *target.Team2ID == winnerID) {
		return nil // already propagated
	}

	var slot int
	switch {
	case target.Team1ID == nil:
		slot = 1
	case target.Team2ID == nil:
		slot = 2
	default:
		s.logger.Warn("propagation target already full",
			slog.Int("match_id", match.ID),
			slog.Int("target_match_id", target.ID))
		return nil
	}

	filled, err := s.matchRepo.FillTeamSlot(ctx, target.ID, slot, winnerID)
	if err != nil {
		return fmt.Errorf("failed to fill slot %d of match %d: %w", slot, target.ID, err)
	}
	if !filled {
		// A sibling propagation took the slot between read and write; the
		// guarded update protects against clobbering, so try the other slot.
		filled, err = s.matchRepo.FillTeamSlot(ctx, target.ID, 3-slot, winnerID)
		if err != nil {
			return fmt.Errorf("failed to fill slot %d of match %d: %w", 3-slot, target.ID, err)
		}
		if !filled {
			s.logger.Warn("propagation found no open slot",
				slog.Int("match_id", match.ID),
				slog.Int("target_match_id", target.ID))
			return nil
		}
	}

	s.hub.BroadcastToRoom(strconv.Itoa(match.TournamentID), brackets.Event{
		Type: brackets.EventWinnerPropagated,
		Payload: map[string]interface{}{
			"from_match_id":   match.ID,
			"target_match_id": target.ID,
			"winner_id":       winnerID,
		},
	})

	return nil
}
