package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yclau/chemladder/internal/config"
	"github.com/yclau/chemladder/internal/domain"
	"github.com/yclau/chemladder/internal/game"
	"github.com/yclau/chemladder/internal/identity"
)

const testAnonID = "anon_0123456789abcdef0123456789abcdef"

// fakeRepo is an in-memory store.Repository for handler tests.
type fakeRepo struct {
	mu       sync.Mutex
	players  map[string]*domain.Player
	attempts map[string][]domain.Attempt
	credits  map[string][]domain.Credit
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		players:  make(map[string]*domain.Player),
		attempts: make(map[string][]domain.Attempt),
		credits:  make(map[string][]domain.Credit),
	}
}

func (f *fakeRepo) GetPlayer(_ context.Context, userID string) (*domain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.players[userID], nil
}

func (f *fakeRepo) UpsertPlayer(_ context.Context, player *domain.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.players[player.UserID] = player
	return nil
}

func (f *fakeRepo) UpdateLastSeen(_ context.Context, userID string, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.players[userID]; ok {
		p.LastSeenAt = lastSeen
	}
	return nil
}

func (f *fakeRepo) SaveAttempt(_ context.Context, attempt *domain.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[attempt.UserID] = append(f.attempts[attempt.UserID], *attempt)
	return nil
}

func (f *fakeRepo) ListAttempts(_ context.Context, userID string, limit int) ([]domain.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempts := f.attempts[userID]
	if len(attempts) > limit {
		attempts = attempts[:limit]
	}
	return append([]domain.Attempt(nil), attempts...), nil
}

func (f *fakeRepo) CreditTokens(_ context.Context, credit *domain.Credit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits[credit.UserID] = append(f.credits[credit.UserID], *credit)
	return nil
}

func (f *fakeRepo) Balance(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, c := range f.credits[userID] {
		sum += c.Amount
	}
	return sum, nil
}

func (f *fakeRepo) ListCredits(_ context.Context, userID string, limit int) ([]domain.Credit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	credits := f.credits[userID]
	if len(credits) > limit {
		credits = credits[:limit]
	}
	return append([]domain.Credit(nil), credits...), nil
}

func (f *fakeRepo) CountQuestions(context.Context) (int64, error)          { return 0, nil }
func (f *fakeRepo) InsertQuestion(context.Context, *domain.Question) error { return nil }
func (f *fakeRepo) RandomQuestions(context.Context, int) ([]domain.Question, error) {
	return nil, nil
}
func (f *fakeRepo) Ping(context.Context) error { return nil }
func (f *fakeRepo) Close() error               { return nil }

// fakeBank serves deterministic questions so handler tests can steer the game.
type fakeBank struct{}

func (fakeBank) Draw(_ context.Context, n int) ([]domain.Question, error) {
	questions := make([]domain.Question, n)
	for i := 0; i < n; i++ {
		questions[i] = domain.Question{
			ID:    fmt.Sprintf("q-%03d", i+1),
			Topic: "Redox",
			Stem:  fmt.Sprintf("Question %d?", i+1),
			Choices: map[domain.Option]string{
				domain.OptionA: "a", domain.OptionB: "b",
				domain.OptionC: "c", domain.OptionD: "d",
			},
			Correct:     domain.OptionA,
			Explanation: "explanation",
		}
	}
	return questions, nil
}

type dropSettler struct{}

func (dropSettler) Settle(game.Outcome) {}

func testConfig() *config.Config {
	return &config.Config{
		Port:        "8080",
		FrontendURL: "http://localhost:5173",
		DBPath:      "test.db",
		Game: config.GameConfig{
			TimedFromLevel: 16,
			QuestionClock:  75 * time.Second,
			RevealDelay:    time.Millisecond,
			SessionIdleTTL: 30 * time.Minute,
		},
	}
}

func newTestRouter(repo *fakeRepo) (chi.Router, *game.Manager) {
	cfg := testConfig()
	games := game.NewManager(cfg.Game, game.NewLadder(), fakeBank{}, dropSettler{}, nil)

	r := chi.NewRouter()
	r.Use(identity.Middleware(repo, true))
	NewGameHandler(NewHandler(repo), games, cfg).RegisterRoutes(r)
	return r, games
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.AddCookie(&http.Cookie{Name: identity.AnonCookieName, Value: testAnonID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestGetMeCreatesAnonymousPlayer(t *testing.T) {
	repo := newFakeRepo()
	router, _ := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/api/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["user_id"] != testAnonID {
		t.Errorf("Expected user_id %s, got %v", testAnonID, body["user_id"])
	}
	if username, _ := body["username"].(string); !strings.HasPrefix(username, "anon-") {
		t.Errorf("Expected derived anon username, got %v", body["username"])
	}
	if body["balance"] != float64(0) {
		t.Errorf("Expected zero balance, got %v", body["balance"])
	}
}

func TestGetConfigReturnsLadder(t *testing.T) {
	router, _ := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, http.MethodGet, "/api/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	ladder, ok := body["ladder"].([]interface{})
	if !ok || len(ladder) != 20 {
		t.Fatalf("Expected 20 ladder levels, got %v", body["ladder"])
	}

	top, _ := ladder[19].(map[string]interface{})
	if top["reward"] != float64(100) {
		t.Errorf("Expected top reward 100, got %v", top["reward"])
	}
	if body["timed_from_level"] != float64(16) {
		t.Errorf("Expected timed_from_level 16, got %v", body["timed_from_level"])
	}
}

func TestStartGameReturnsRedactedSnapshot(t *testing.T) {
	router, _ := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, http.MethodPost, "/api/game", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["level"] != float64(1) {
		t.Errorf("Expected level 1, got %v", body["level"])
	}
	if body["phase"] != "playing" {
		t.Errorf("Expected playing phase, got %v", body["phase"])
	}

	question, ok := body["question"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected a question in the snapshot")
	}
	if _, leaked := question["correct"]; leaked {
		t.Error("Snapshot must not leak the correct answer")
	}
	if _, leaked := question["explanation"]; leaked {
		t.Error("Snapshot must not leak the explanation")
	}
}

func TestStartGameConflictsWhileActive(t *testing.T) {
	router, _ := newTestRouter(newFakeRepo())

	doRequest(t, router, http.MethodPost, "/api/game", "")
	rec := doRequest(t, router, http.MethodPost, "/api/game", "")

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "game_already_active" {
		t.Errorf("Expected game_already_active, got %v", body["error"])
	}
}

func TestGetGameWithoutSession(t *testing.T) {
	router, _ := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, http.MethodGet, "/api/game", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "no_active_game" {
		t.Errorf("Expected no_active_game, got %v", body["error"])
	}
}

func TestSelectAndLockFlow(t *testing.T) {
	router, games := newTestRouter(newFakeRepo())

	doRequest(t, router, http.MethodPost, "/api/game", "")

	rec := doRequest(t, router, http.MethodPost, "/api/game/select", `{"option":"A"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["selected"] != "A" {
		t.Errorf("Expected selection A, got %v", body["selected"])
	}

	rec = doRequest(t, router, http.MethodPost, "/api/game/lock", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["locked"] != "A" {
		t.Errorf("Expected locked A, got %v", body["locked"])
	}

	session, _ := games.Get(testAnonID)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && session.Snapshot().Phase == game.PhaseLocked {
		time.Sleep(time.Millisecond)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/game", "")
	body := decodeBody(t, rec)
	if body["phase"] != "cleared" {
		t.Errorf("Expected cleared after a correct answer, got %v", body["phase"])
	}
	if body["banked"] != float64(1) {
		t.Errorf("Expected banked 1, got %v", body["banked"])
	}
}

func TestSelectRejectsMalformedBody(t *testing.T) {
	router, _ := newTestRouter(newFakeRepo())

	doRequest(t, router, http.MethodPost, "/api/game", "")
	rec := doRequest(t, router, http.MethodPost, "/api/game/select", "{not json")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestUseLifelineResponseShape(t *testing.T) {
	router, _ := newTestRouter(newFakeRepo())

	doRequest(t, router, http.MethodPost, "/api/game", "")

	rec := doRequest(t, router, http.MethodPost, "/api/game/lifeline", `{"kind":"eliminate_two"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["applied"] != true {
		t.Fatalf("Expected applied true, got %v", body["applied"])
	}
	result, ok := body["result"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected a result payload")
	}
	eliminated, _ := result["eliminated"].([]interface{})
	if len(eliminated) != 2 {
		t.Errorf("Expected 2 eliminated options, got %v", result["eliminated"])
	}
	for _, opt := range eliminated {
		if opt == "A" {
			t.Error("Eliminated options must not include the correct one")
		}
	}

	// Second use is refused, not an error.
	rec = doRequest(t, router, http.MethodPost, "/api/game/lifeline", `{"kind":"eliminate_two"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body = decodeBody(t, rec)
	if body["applied"] != false {
		t.Errorf("Expected applied false on reuse, got %v", body["applied"])
	}
	if _, present := body["result"]; present {
		t.Error("Expected no result payload on a refused lifeline")
	}
}

func TestCashOutEndsSession(t *testing.T) {
	router, _ := newTestRouter(newFakeRepo())

	doRequest(t, router, http.MethodPost, "/api/game", "")
	rec := doRequest(t, router, http.MethodPost, "/api/game/cashout", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["phase"] != "over" {
		t.Errorf("Expected phase over, got %v", body["phase"])
	}
	if body["terminal"] != "cash_out" {
		t.Errorf("Expected terminal cash_out, got %v", body["terminal"])
	}
	if body["final_reward"] != float64(0) {
		t.Errorf("Expected final reward 0 before the first milestone, got %v", body["final_reward"])
	}
	if _, present := body["question"]; present {
		t.Error("Expected no question on a finished session")
	}
}

func TestWalletReflectsLedger(t *testing.T) {
	repo := newFakeRepo()
	router, _ := newTestRouter(repo)

	repo.CreditTokens(context.Background(), &domain.Credit{
		UserID: testAnonID, Amount: 42, ReasonTag: "ladder_game:time_up", Level: 16,
	})

	rec := doRequest(t, router, http.MethodGet, "/api/wallet", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["balance"] != float64(42) {
		t.Errorf("Expected balance 42, got %v", body["balance"])
	}
	credits, _ := body["credits"].([]interface{})
	if len(credits) != 1 {
		t.Errorf("Expected 1 ledger entry, got %v", body["credits"])
	}
}

func TestListAttemptsEmptyIsArray(t *testing.T) {
	router, _ := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, http.MethodGet, "/api/attempts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	attempts, ok := body["attempts"].([]interface{})
	if !ok {
		t.Fatalf("Expected an attempts array, got %v", body["attempts"])
	}
	if len(attempts) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(attempts))
	}
}
