package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Dosada05/knockout-scheduler/brackets"
	"github.com/Dosada05/knockout-scheduler/models"
	"github.com/Dosada05/knockout-scheduler/repositories"
	"github.com/Dosada05/knockout-scheduler/storage"
)

// ScheduleService builds and schedules every bracket of a tournament: group
// partitioning, empty-bracket persistence, slot/table assignment and the
// finals bracket. One call covers the whole tournament.
type ScheduleService interface {
	ScheduleFullTournament(ctx context.Context, tournament *models.Tournament) error
}

type scheduleService struct {
	txRunner  repositories.TxRunner
	matchRepo repositories.MatchRepository
	hub       *brackets.Hub
	uploader  storage.SnapshotUploader
	calendar  brackets.Calendar
	timeSlots []string
	logger    *slog.Logger
}

func NewScheduleService(
	txRunner repositories.TxRunner,
	matchRepo repositories.MatchRepository,
	hub *brackets.Hub,
	uploader storage.SnapshotUploader,
	calendar brackets.Calendar,
	timeSlots []string,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		txRunner:  txRunner,
		matchRepo: matchRepo,
		hub:       hub,
		uploader:  uploader,
		calendar:  calendar,
		timeSlots: timeSlots,
		logger:    logger,
	}
}

func (s *scheduleService) ScheduleFullTournament(ctx context.Context, tournament *models.Tournament) error {
	if tournament.StartDate.IsZero() {
		return brackets.ErrInvalidStartDate
	}

	plans, err := brackets.PlanGroups(tournament.TeamCount)
	if err != nil {
		return err
	}

	s.logger.Info("schedule-start",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("team_count", tournament.TeamCount),
		slog.Int("table_count", tournament.TableCount),
		slog.Int("groups", len(plans)))

	opts := brackets.ScheduleOptions{
		TimeSlots:  s.timeSlots,
		TableCount: tournament.TableCount,
		Calendar:   s.calendar,
	}

	// The provided start date opens the first day regardless of weekday;
	// every later day comes from the calendar.
	currentDay := tournament.StartDate
	lastUsedDay := currentDay

	for day := 1; day <= brackets.DayCount(plans); day++ {
		if day > 1 {
			currentDay = s.calendar.NextValidDay(lastUsedDay, false)
			s.logger.Info("day-advanced",
				slog.Int("tournament_id", tournament.ID),
				slog.Int("day", day),
				slog.Time("date", currentDay))
		}

		codes := make([]string, 0, brackets.GroupsPerDay)
		for _, plan := range plans {
			if plan.Day != day {
				continue
			}
			if err := s.createGroup(ctx, tournament.ID, plan); err != nil {
				return err
			}
			s.logger.Info("group-created",
				slog.Int("tournament_id", tournament.ID),
				slog.String("group_code", plan.Code),
				slog.Int("team_count", plan.TeamCount))
			codes = append(codes, plan.Code)
		}

		if err := s.scheduleGroups(ctx, tournament.ID, codes, currentDay, opts); err != nil {
			return err
		}
		lastUsedDay = currentDay
	}

	if finals := brackets.FinalsPlan(len(plans)); finals != nil {
		if err := s.createGroup(ctx, tournament.ID, *finals); err != nil {
			return err
		}
		s.logger.Info("group-created",
			slog.Int("tournament_id", tournament.ID),
			slog.String("group_code", finals.Code),
			slog.Int("team_count", finals.TeamCount))

		finalsDay := s.calendar.NextValidDay(lastUsedDay, true)
		if err := s.scheduleGroups(ctx, tournament.ID, []string{finals.Code}, finalsDay, opts); err != nil {
			return err
		}
	}

	s.exportSnapshot(ctx, tournament.ID)

	s.hub.BroadcastToRoom(strconv.Itoa(tournament.ID), brackets.Event{
		Type:    brackets.EventScheduleComplete,
		Payload: map[string]interface{}{"tournament_id": tournament.ID},
	})
	s.logger.Info("schedule-complete", slog.Int("tournament_id", tournament.ID))

	return nil
}

// createGroup builds one empty sub-bracket and persists it in a single
// transaction. The round-trip through storage is deliberate: the scheduler
// mutates rows that must already have stable identities.
func (s *scheduleService) createGroup(ctx context.Context, tournamentID int, plan brackets.GroupPlan) error {
	bracket, err := brackets.BuildBracket(plan.TeamCount)
	if err != nil {
		return err
	}
	flat := brackets.Flatten(bracket, tournamentID, plan.Code)

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.matchRepo.CreateBatch(ctx, exec, flat)
	})
	if err != nil {
		return fmt.Errorf("failed to persist bracket for group %s: %w", plan.Code, err)
	}
	return nil
}

// scheduleGroups assigns times and tables to the named groups' matches and
// persists the assignments atomically.
func (s *scheduleService) scheduleGroups(ctx context.Context, tournamentID int, codes []string, startDate time.Time, opts brackets.ScheduleOptions) error {
	matches, err := s.matchRepo.ListByGroupCodes(ctx, tournamentID, codes)
	if err != nil {
		return fmt.Errorf("failed to load matches for groups %v: %w", codes, err)
	}

	if err := brackets.ScheduleMatches(matches, startDate, opts); err != nil {
		return err
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, match := range matches {
			if err := s.matchRepo.UpdateSchedule(ctx, exec, match); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist schedule for groups %v: %w", codes, err)
	}
	return nil
}

// exportSnapshot archives the finished schedule as JSON in object storage.
// Best effort: a failed upload is logged, never fails the scheduling run.
func (s *scheduleService) exportSnapshot(ctx context.Context, tournamentID int) {
	if s.uploader == nil {
		return
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		s.logger.Error("snapshot export: failed to load matches",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	payload, err := json.Marshal(matches)
	if err != nil {
		s.logger.Error("snapshot export: failed to marshal schedule",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	key := fmt.Sprintf("schedules/%d.json", tournamentID)
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		s.logger.Error("snapshot export: upload failed",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	s.logger.Info("snapshot export: schedule archived",
		slog.Int("tournament_id", tournamentID),
		slog.String("key", result.Key),
		slog.String("location", result.Location))
}
