package usecase

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/config"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/jwt"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/logger"
	passwordservice "github.com/mikiasgoitom/gatekeeper/internal/infrastructure/password_service"
	randomgenerator "github.com/mikiasgoitom/gatekeeper/internal/infrastructure/random_generator"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/uuidgen"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/validator"
)

// ---------- in-memory user repository ----------

// memUserRepo mimics the MongoDB repository: unique username and email, password left
// out of default reads, atomic token consumption.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User

	failGetByID error
	createDelay time.Duration
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	touched     chan string
}

var _ contract.IUserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}, touched: make(chan string, 16)}
}

func clone(u *entity.User) *entity.User {
	c := *u
	return &c
}

func public(u *entity.User) *entity.User {
	c := clone(u)
	c.PasswordHash = ""
	return c
}

func (r *memUserRepo) put(u *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = clone(u)
}

func (r *memUserRepo) raw(id string) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return clone(u)
	}
	return nil
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *memUserRepo) conflictLocked(u *entity.User) error {
	for _, other := range r.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return apperror.Conflict("Username already taken")
		}
		if u.Email != "" && other.Email == u.Email {
			return apperror.Conflict("Email already registered")
		}
	}
	return nil
}

func (r *memUserRepo) CreateUser(ctx context.Context, user *entity.User) error {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		peak := r.maxInFlight.Load()
		if n <= peak || r.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	if r.createDelay > 0 {
		time.Sleep(r.createDelay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return apperror.Conflict("User already exists")
	}
	if err := r.conflictLocked(user); err != nil {
		return err
	}
	r.users[user.ID] = clone(user)
	return nil
}

func (r *memUserRepo) findLocked(match func(*entity.User) bool) *entity.User {
	for _, u := range r.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (r *memUserRepo) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	if r.failGetByID != nil {
		return nil, r.failGetByID
	}
	return r.getPublic(id)
}

func (r *memUserRepo) getPublic(id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return public(u), nil
	}
	return nil, apperror.NotFound("User not found")
}

func (r *memUserRepo) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.findLocked(func(u *entity.User) bool { return email != "" && u.Email == email }); u != nil {
		return public(u), nil
	}
	return nil, apperror.NotFound("User not found")
}

func (r *memUserRepo) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.findLocked(func(u *entity.User) bool { return u.Username == username }); u != nil {
		return public(u), nil
	}
	return nil, apperror.NotFound("User not found")
}

func (r *memUserRepo) GetUserWithPasswordByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.findLocked(func(u *entity.User) bool { return email != "" && u.Email == email }); u != nil {
		return clone(u), nil
	}
	return nil, apperror.NotFound("User not found")
}

func (r *memUserRepo) GetUserWithPasswordByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.findLocked(func(u *entity.User) bool { return u.Username == username }); u != nil {
		return clone(u), nil
	}
	return nil, apperror.NotFound("User not found")
}

func (r *memUserRepo) GetUserWithPasswordByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return clone(u), nil
	}
	return nil, apperror.NotFound("User not found")
}

func (r *memUserRepo) update(id string, apply func(u *entity.User)) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	next := clone(u)
	apply(next)
	if err := r.conflictLocked(next); err != nil {
		return nil, err
	}
	r.users[id] = next
	return public(next), nil
}

func (r *memUserRepo) UpdateProfile(ctx context.Context, id string, update contract.ProfileUpdate) (*entity.User, error) {
	return r.update(id, func(u *entity.User) {
		if update.Name != nil {
			u.Name = *update.Name
		}
		if update.Username != nil {
			u.Username = *update.Username
		}
		if update.Email != nil {
			u.Email = *update.Email
		}
		if update.ProfilePicture != nil {
			u.ProfilePicture = *update.ProfilePicture
		}
	})
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, id string, hashedPassword string) error {
	_, err := r.update(id, func(u *entity.User) { u.PasswordHash = hashedPassword })
	return err
}

func (r *memUserRepo) LinkProvider(ctx context.Context, id string, provider entity.Provider, providerID string, picture entity.ProfilePicture) (*entity.User, error) {
	return r.update(id, func(u *entity.User) {
		u.Provider = provider
		u.ProviderID = &providerID
		u.Active = true
		u.PasswordHash = ""
		if picture.URL != "" {
			u.ProfilePicture = picture
		}
	})
}

func (r *memUserRepo) SetActivationToken(ctx context.Context, id string, tokenHash string, expires time.Time) error {
	_, err := r.update(id, func(u *entity.User) {
		u.ActivationToken = tokenHash
		u.ActivationExpires = &expires
	})
	return err
}

func (r *memUserRepo) SetResetToken(ctx context.Context, id string, tokenHash string, expires time.Time) error {
	_, err := r.update(id, func(u *entity.User) {
		u.ResetPasswordToken = tokenHash
		u.ResetPasswordExpires = &expires
	})
	return err
}

func (r *memUserRepo) ConsumeActivationToken(ctx context.Context, tokenHash string, hashedPassword string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.findLocked(func(u *entity.User) bool {
		return u.ActivationToken == tokenHash && u.ActivationExpires != nil && u.ActivationExpires.After(now)
	})
	if u == nil {
		return nil, apperror.NotFound("User not found")
	}
	u.PasswordHash = hashedPassword
	u.Active = true
	u.Provider = entity.ProviderLocal
	u.ActivationToken, u.ActivationExpires = "", nil
	return public(u), nil
}

func (r *memUserRepo) ConsumeResetToken(ctx context.Context, tokenHash string, hashedPassword string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.findLocked(func(u *entity.User) bool {
		return u.ResetPasswordToken == tokenHash && u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now)
	})
	if u == nil {
		return nil, apperror.NotFound("User not found")
	}
	u.PasswordHash = hashedPassword
	u.ResetPasswordToken, u.ResetPasswordExpires = "", nil
	return public(u), nil
}

func (r *memUserRepo) ClearActivationToken(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ActivationToken == tokenHash {
			u.ActivationToken, u.ActivationExpires = "", nil
		}
	}
	return nil
}

func (r *memUserRepo) ClearResetToken(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetPasswordToken == tokenHash {
			u.ResetPasswordToken, u.ResetPasswordExpires = "", nil
		}
	}
	return nil
}

func (r *memUserRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.update(id, func(u *entity.User) { u.LastLogin = &at })
	r.touched <- id
	return err
}

func (r *memUserRepo) ReplaceUser(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperror.NotFound("User not found")
	}
	r.users[user.ID] = clone(user)
	return nil
}

func (r *memUserRepo) DeleteUser(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	delete(r.users, id)
	return public(u), nil
}

func (r *memUserRepo) ListUsers(ctx context.Context, page, limit int) ([]*entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*entity.User
	for _, u := range r.users {
		all = append(all, public(u))
	}
	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *memUserRepo) SearchUsers(ctx context.Context, search contract.UserSearch) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contains := func(have, want string) bool {
		return want == "" || strings.Contains(strings.ToLower(have), strings.ToLower(want))
	}
	users := []*entity.User{}
	for _, u := range r.users {
		if search.ID != "" && u.ID != search.ID {
			continue
		}
		if !contains(u.Name, search.Name) || !contains(u.Username, search.Username) || !contains(u.Email, search.Email) {
			continue
		}
		if search.GradYear != 0 && u.GradYear() != search.GradYear {
			continue
		}
		users = append(users, public(u))
	}
	return users, nil
}

// ---------- collaborators ----------

type sentEmail struct {
	to, subject, body string
}

// recordingMailer keeps every message; ShouldFail makes SendEmail fail.
type recordingMailer struct {
	mu         sync.Mutex
	sent       []sentEmail
	ShouldFail bool
}

func (m *recordingMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if m.ShouldFail {
		return io.ErrUnexpectedEOF
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{to, subject, body})
	return nil
}

func (m *recordingMailer) last(t *testing.T) sentEmail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email sent")
	return m.sent[len(m.sent)-1]
}

// linkToken extracts the plain token from the link in an email body.
func linkToken(t *testing.T, body string) string {
	t.Helper()
	_, token, ok := strings.Cut(body, "token=")
	require.True(t, ok, "no token in %q", body)
	return token
}

type linkComposer struct{}

func (linkComposer) ActivationEmail(data contract.LinkEmail) (string, string, error) {
	return "Set your password", data.Link, nil
}

func (linkComposer) PasswordResetEmail(data contract.LinkEmail) (string, string, error) {
	return "Reset your password", data.Link, nil
}

type mockMedia struct {
	mock.Mock
}

func (m *mockMedia) Upload(ctx context.Context, file io.Reader, filename string) (entity.ProfilePicture, error) {
	args := m.Called(ctx, file, filename)
	return args.Get(0).(entity.ProfilePicture), args.Error(1)
}

func (m *mockMedia) Delete(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

type memStateStore struct {
	mu     sync.Mutex
	states map[string]entity.OAuthState
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: map[string]entity.OAuthState{}}
}

func (s *memStateStore) Save(ctx context.Context, state string, value entity.OAuthState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = value
	return nil
}

func (s *memStateStore) Consume(ctx context.Context, state string) (*entity.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.states[state]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	delete(s.states, state)
	return &v, nil
}

type fakeProvider struct {
	provider  entity.Provider
	profile   *entity.OAuthProfile
	lastState string
}

func (p *fakeProvider) Provider() entity.Provider { return p.provider }

func (p *fakeProvider) AuthCodeURL(state string) string {
	p.lastState = state
	return "https://provider.example.com/authorize?state=" + state
}

func (p *fakeProvider) FetchProfile(ctx context.Context, code string) (*entity.OAuthProfile, error) {
	if code != "good-code" {
		return nil, apperror.Upstream("code exchange failed")
	}
	return p.profile, nil
}

// ---------- wiring ----------

type testEnv struct {
	repo       *memUserRepo
	mailer     *recordingMailer
	media      *mockMedia
	cfg        *config.Config
	hasher     *passwordservice.Hasher
	issuer     *TokenIssuer
	activation *ActivationUseCase
	auth       *AuthUseCase
	users      *UserUsecase
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                      "development",
		ClientURL:                "https://app.example.com",
		JWTExpiry:                time.Hour,
		DefaultStorageMode:       entity.StorageCookie,
		ActivationTokenExpiry:    24 * time.Hour,
		PasswordResetTokenExpiry: time.Hour,
		BulkBatchSize:            50,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:   newMemUserRepo(),
		mailer: &recordingMailer{},
		media:  &mockMedia{},
		cfg:    testConfig(),
		hasher: passwordservice.NewHasherWithCost(bcrypt.MinCost),
	}
	log := logger.NewNop()
	v := validator.NewValidator()
	env.issuer = NewTokenIssuer(jwt.NewJWTManager("test-secret", env.cfg.JWTExpiry), env.cfg)
	env.activation = NewActivationUseCase(env.repo, env.mailer, linkComposer{}, env.hasher, randomgenerator.NewRandomGenerator(), v, log, env.cfg)
	env.auth = NewAuthUseCase(env.repo, env.issuer, env.activation, env.media, env.hasher, v, uuidgen.NewGenerator(), log)
	env.users = NewUserUsecase(env.repo, env.issuer, env.media, env.hasher, v, log)
	return env
}

// seedLocal stores an active local account with the given password.
func (env *testEnv) seedLocal(t *testing.T, id, email, password string) *entity.User {
	t.Helper()
	hashed, err := env.hasher.HashPassword(password)
	require.NoError(t, err)
	u := &entity.User{
		ID:           id,
		Name:         "User " + id,
		Username:     email,
		Email:        email,
		PasswordHash: hashed,
		Provider:     entity.ProviderLocal,
		UserType:     entity.UserTypeUser,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	env.repo.put(u)
	return u
}
