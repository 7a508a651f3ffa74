package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/knockout-scheduler/brackets"
	"github.com/Dosada05/knockout-scheduler/models"
	"github.com/Dosada05/knockout-scheduler/repositories"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHub() *brackets.Hub {
	return brackets.NewHub(testLogger())
}

// fakeTxRunner runs fn directly; the fakes below ignore the executor.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// fakeMatchRepo is an in-memory MatchRepository with the same guarded-update
// semantics as the postgres implementation.
type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, matches []*models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		r.nextID++
		m.ID = r.nextID
		m.CreatedAt = time.Now()
		stored := *m
		r.matches[m.ID] = &stored
	}
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) GetByCoordinates(_ context.Context, tournamentID int, groupCode string, round, matchNumber int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.GroupCode != nil && *m.GroupCode == groupCode &&
			m.Round == round && m.MatchNumber == matchNumber {
			copied := *m
			return &copied, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) list(filter func(*models.Match) bool) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if filter(m) {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round > out[j].Round
		}
		gi, gj := "", ""
		if out[i].GroupCode != nil {
			gi = *out[i].GroupCode
		}
		if out[j].GroupCode != nil {
			gj = *out[j].GroupCode
		}
		if gi != gj {
			return gi < gj
		}
		return out[i].MatchNumber < out[j].MatchNumber
	})
	return out
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(m *models.Match) bool { return m.TournamentID == tournamentID }), nil
}

func (r *fakeMatchRepo) ListByGroupCodes(_ context.Context, tournamentID int, groupCodes []string) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(groupCodes))
	for _, c := range groupCodes {
		wanted[c] = true
	}
	return r.list(func(m *models.Match) bool {
		return m.TournamentID == tournamentID && m.GroupCode != nil && wanted[*m.GroupCode]
	}), nil
}

func (r *fakeMatchRepo) ListOpenSlotMatches(_ context.Context, tournamentID int, round int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(m *models.Match) bool {
		return m.TournamentID == tournamentID && m.Round == round &&
			(m.Team1ID == nil || m.Team2ID == nil)
	}), nil
}

func (r *fakeMatchRepo) HighestRound(_ context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	highest := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.Round > highest {
			highest = m.Round
		}
	}
	return highest, nil
}

func (r *fakeMatchRepo) UpdateSchedule(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	stored.StartTime = match.StartTime
	stored.MatchDate = match.MatchDate
	stored.TableNumber = match.TableNumber
	return nil
}

func (r *fakeMatchRepo) SetWinner(_ context.Context, id int, winnerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	stored.WinnerID = &winnerID
	return nil
}

func (r *fakeMatchRepo) FillTeamSlot(_ context.Context, id int, slot int, teamID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[id]
	if !ok {
		return false, repositories.ErrMatchNotFound
	}
	switch slot {
	case 1:
		if stored.Team1ID != nil || (stored.Team2ID != nil && *stored.Team2ID == teamID) {
			return false, nil
		}
		stored.Team1ID = &teamID
	case 2:
		if stored.Team2ID != nil || (stored.Team1ID != nil && *stored.Team1ID == teamID) {
			return false, nil
		}
		stored.Team2ID = &teamID
	default:
		return false, repositories.ErrMatchTeamInvalid
	}
	return true, nil
}

// seedBracket persists one empty sub-bracket and returns it earliest round
// first, the same order Flatten produces.
func seedBracket(t *testing.T, repo *fakeMatchRepo, tournamentID, teamCount int, groupCode string) []*models.Match {
	t.Helper()
	bracket, err := brackets.BuildBracket(teamCount)
	require.NoError(t, err)
	flat := brackets.Flatten(bracket, tournamentID, groupCode)
	require.NoError(t, repo.CreateBatch(context.Background(), nil, flat))
	return flat
}

type fakeTeamRepo struct {
	mu    sync.Mutex
	teams map[int]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team)}
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team.ID = len(r.teams) + 1
	team.CreatedAt = time.Now()
	copied := *team
	r.teams[team.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Team, 0)
	for _, team := range r.teams {
		if team.TournamentID == tournamentID {
			copied := *team
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
	nameTaken   map[string]bool
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		tournaments: make(map[int]*models.Tournament),
		nameTaken:   make(map[string]bool),
	}
}

func (r *fakeTournamentRepo) Create(_ context.Context, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken[tournament.Name] {
		return repositories.ErrTournamentNameConflict
	}
	tournament.ID = len(r.tournaments) + 1
	tournament.CreatedAt = time.Now()
	copied := *tournament
	r.tournaments[tournament.ID] = &copied
	r.nameTaken[tournament.Name] = true
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *tournament
	return &copied, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, limit, offset int) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0, len(r.tournaments))
	for _, tournament := range r.tournaments {
		copied := *tournament
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.Status = status
	return nil
}

func (r *fakeTournamentRepo) MarkActiveByDate(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, tournament := range r.tournaments {
		if tournament.Status == models.StatusScheduled && !tournament.StartDate.After(now) {
			tournament.Status = models.StatusActive
			updated++
		}
	}
	return updated, nil
}
