package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/knockout-scheduler/brackets"
	"github.com/Dosada05/knockout-scheduler/models"
	"github.com/Dosada05/knockout-scheduler/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name        string     `json:"name"`
	Location    *string    `json:"location,omitempty"`
	TeamCount   int        `json:"team_count"`
	TableCount  int        `json:"table_count"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	LastRegDate *time.Time `json:"last_reg_date,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	GetFullTournamentData(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	ListMatchesByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	AutoUpdateTournamentStatusesByDates(ctx context.Context) error
}

type tournamentService struct {
	tournamentRepo    repositories.TournamentRepository
	teamRepo          repositories.TeamRepository
	matchRepo         repositories.MatchRepository
	scheduleService   ScheduleService
	defaultTableCount int
	logger            *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	scheduleService ScheduleService,
	defaultTableCount int,
	logger *slog.Logger,
) TournamentService {
	if defaultTableCount <= 0 {
		defaultTableCount = brackets.DefaultTableCount
	}
	return &tournamentService{
		tournamentRepo:    tournamentRepo,
		teamRepo:          teamRepo,
		matchRepo:         matchRepo,
		scheduleService:   scheduleService,
		defaultTableCount: defaultTableCount,
		logger:            logger,
	}
}

// CreateTournament persists the tournament record and schedules its full
// bracket. A scheduling failure is surfaced to the caller but the tournament
// record is kept; the call is safe to retry from the caller's point of view.
func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.StartDate.IsZero() {
		return nil, brackets.ErrInvalidStartDate
	}
	// Reject impossible team counts before anything is persisted.
	if _, err := brackets.PlanGroups(input.TeamCount); err != nil {
		return nil, err
	}

	tableCount := input.TableCount
	if tableCount <= 0 {
		tableCount = s.defaultTableCount
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		Location:    input.Location,
		TeamCount:   input.TeamCount,
		TableCount:  tableCount,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		LastRegDate: input.LastRegDate,
		Status:      models.StatusScheduled,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	if err := s.scheduleService.ScheduleFullTournament(ctx, tournament); err != nil {
		// The tournament row stays; discarding it is the caller's decision.
		s.logger.Error("tournament created but scheduling failed",
			slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		return nil, err
	}

	return tournament, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

// GetFullTournamentData loads the tournament together with its teams and
// matches, fetching the related sets in parallel.
func (s *tournamentService) GetFullTournamentData(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.GetTournamentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load teams for tournament %d: %w", id, err)
		}
		tournament.Teams = make([]models.Team, 0, len(teams))
		for _, t := range teams {
			tournament.Teams = append(tournament.Teams, *t)
		}
		return nil
	})

	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load matches for tournament %d: %w", id, err)
		}
		tournament.Matches = make([]models.Match, 0, len(matches))
		for _, m := range matches {
			tournament.Matches = append(tournament.Matches, *m)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.tournamentRepo.List(ctx, limit, offset)
}

func (s *tournamentService) ListMatchesByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	if _, err := s.GetTournamentByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.matchRepo.ListByTournament(ctx, tournamentID)
}

// AutoUpdateTournamentStatusesByDates moves scheduled tournaments whose start
// date has passed into the active status. Invoked periodically from main.
func (s *tournamentService) AutoUpdateTournamentStatusesByDates(ctx context.Context) error {
	updated, err := s.tournamentRepo.MarkActiveByDate(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to auto-update tournament statuses: %w", err)
	}
	if updated > 0 {
		s.logger.Info("tournaments activated by start date", slog.Int64("count", updated))
	}
	return nil
}
