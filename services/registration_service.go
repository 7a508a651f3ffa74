package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"

	"github.com/Dosada05/knockout-scheduler/repositories"
)

// RegistrationService drops a registered team into an open leaf slot of the
// bracket: the earliest (highest-numbered) round of a randomly chosen group.
// The sibling of winner propagation, filling leaves instead of parents.
type RegistrationService interface {
	RegisterTeamIntoBracket(ctx context.Context, tournamentID, teamID int) (string, error)
}

type registrationService struct {
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	logger    *slog.Logger
}

func NewRegistrationService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		logger:    logger,
	}
}

type openSlot struct {
	matchID int
	slot    int
}

// RegisterTeamIntoBracket fills one open earliest-round slot with the team
// and returns the group code it landed in. ErrBracketFull means every leaf
// slot is taken.
func (s *registrationService) RegisterTeamIntoBracket(ctx context.Context, tournamentID, teamID int) (string, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return "", ErrTeamNotFound
		}
		return "", err
	}
	if team.TournamentID != tournamentID {
		return "", ErrTeamTournamentMismatch
	}

	highestRound, err := s.matchRepo.HighestRound(ctx, tournamentID)
	if err != nil {
		return "", err
	}
	if highestRound == 0 {
		return "", ErrBracketFull
	}

	matches, err := s.matchRepo.ListOpenSlotMatches(ctx, tournamentID, highestRound)
	if err != nil {
		return "", err
	}

	grouped := make(map[string][]openSlot)
	for _, m := range matches {
		if m.GroupCode == nil {
			continue
		}
		if m.Team1ID == nil {
			grouped[*m.GroupCode] = append(grouped[*m.GroupCode], openSlot{matchID: m.ID, slot: 1})
		}
		if m.Team2ID == nil {
			grouped[*m.GroupCode] = append(grouped[*m.GroupCode], openSlot{matchID: m.ID, slot: 2})
		}
	}
	if len(grouped) == 0 {
		return "", ErrBracketFull
	}

	groupCodes := make([]string, 0, len(grouped))
	for code := range grouped {
		groupCodes = append(groupCodes, code)
	}
	rand.Shuffle(len(groupCodes), func(i, j int) {
		groupCodes[i], groupCodes[j] = groupCodes[j], groupCodes[i]
	})

	// Guarded updates can lose to concurrent registrations, so walk the
	// shuffled slots until one sticks instead of trusting the first read.
	for _, code := range groupCodes {
		slots := grouped[code]
		rand.Shuffle(len(slots), func(i, j int) {
			slots[i], slots[j] = slots[j], slots[i]
		})
		for _, candidate := range slots {
			filled, err := s.matchRepo.FillTeamSlot(ctx, candidate.matchID, candidate.slot, teamID)
			if err != nil {
				return "", err
			}
			if filled {
				s.logger.Info("team registered into bracket",
					slog.Int("tournament_id", tournamentID),
					slog.Int("team_id", teamID),
					slog.String("group_code", code),
					slog.Int("match_id", candidate.matchID))
				return code, nil
			}
		}
	}

	return "", ErrBracketFull
}
