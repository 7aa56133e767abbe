package mongodb

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
)

// newTestDatabase connects to MONGODB_TEST_URI and hands out a throwaway database.
func newTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	db := client.Database("gatekeeper_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func newTestUserRepo(t *testing.T) *MongoUserRepository {
	t.Helper()
	repo := NewMongoUserRepository(newTestDatabase(t).Collection("users"))
	require.NoError(t, repo.EnsureIndexes(context.Background()))
	return repo
}

func seedUser(t *testing.T, repo *MongoUserRepository, username, email string) *entity.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	u := &entity.User{
		ID:           uuid.NewString(),
		Name:         "Test " + username,
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Provider:     entity.ProviderLocal,
		UserType:     entity.UserTypeStudent,
		Active:       true,
		StudentDetails: &entity.StudentDetails{
			GradYear:        2026,
			AdmissionNumber: "21JE" + username,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func TestUserRepo_DefaultReadsOmitPassword(t *testing.T) {
	repo := newTestUserRepo(t)
	u := seedUser(t, repo, "ada", "ada@example.com")
	ctx := context.Background()

	got, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PasswordHash)

	withPw, err := repo.GetUserWithPasswordByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, withPw.PasswordHash)

	byUsername, err := repo.GetUserWithPasswordByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byUsername.ID)
	assert.Equal(t, u.PasswordHash, byUsername.PasswordHash)

	_, err = repo.GetUserWithPasswordByUsername(ctx, "ada@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound, "an email is never matched as a username")
}

func TestUserRepo_DuplicateEmailIsConflict(t *testing.T) {
	repo := newTestUserRepo(t)
	seedUser(t, repo, "ada", "ada@example.com")

	err := repo.CreateUser(context.Background(), &entity.User{
		ID: uuid.NewString(), Username: "other", Email: "ada@example.com",
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUserRepo_AccountsWithoutEmailCoexist(t *testing.T) {
	repo := newTestUserRepo(t)
	seedUser(t, repo, "first", "")
	seedUser(t, repo, "second", "")
}

func TestUserRepo_ConsumeActivationTokenOnce(t *testing.T) {
	repo := newTestUserRepo(t)
	u := seedUser(t, repo, "bob", "bob@example.com")
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.SetActivationToken(ctx, u.ID, "hash-1", now.Add(time.Hour)))

	var wg sync.WaitGroup
	results := make([]error, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = repo.ConsumeActivationToken(ctx, "hash-1", "$2a$10$new", now)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperror.ErrNotFound)
		}
	}
	assert.Equal(t, 1, succeeded)

	got, err := repo.GetUserWithPasswordByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$new", got.PasswordHash)
	assert.True(t, got.Active)
	assert.Empty(t, got.ActivationToken)
}

func TestUserRepo_ExpiredTokenDoesNotMatch(t *testing.T) {
	repo := newTestUserRepo(t)
	u := seedUser(t, repo, "carol", "carol@example.com")
	ctx := context.Background()

	require.NoError(t, repo.SetResetToken(ctx, u.ID, "hash-2", time.Now().Add(-time.Minute)))
	_, err := repo.ConsumeResetToken(ctx, "hash-2", "$2a$10$new", time.Now())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, repo.ClearResetToken(ctx, "hash-2"))
	n, err := repo.collection.CountDocuments(ctx, bson.M{"resetPasswordToken": "hash-2"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUserRepo_SearchQuotesInput(t *testing.T) {
	repo := newTestUserRepo(t)
	seedUser(t, repo, "dave", "dave@example.com")
	seedUser(t, repo, "erin", "erin@example.com")
	ctx := context.Background()

	all, err := repo.SearchUsers(ctx, contract.UserSearch{Name: ".*"})
	require.NoError(t, err)
	assert.Empty(t, all)

	found, err := repo.SearchUsers(ctx, contract.UserSearch{Username: "DAV", GradYear: 2026})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "dave", found[0].Username)
}

func TestUserRepo_ReplaceUserDropsFields(t *testing.T) {
	repo := newTestUserRepo(t)
	u := seedUser(t, repo, "frank", "frank@example.com")
	ctx := context.Background()

	require.NoError(t, repo.ReplaceUser(ctx, u.ResetCopy(time.Now())))

	got, err := repo.GetUserWithPasswordByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Email)
	assert.Empty(t, got.PasswordHash)
	assert.False(t, got.Active)
	assert.Equal(t, 2026, got.StudentDetails.GradYear)
	assert.Empty(t, got.StudentDetails.AdmissionNumber)
}

func TestOAuthStateRepository_ConsumeOnce(t *testing.T) {
	repo := NewOAuthStateRepository(newTestDatabase(t).Collection("oauth_states"))
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	state := entity.OAuthState{Provider: entity.ProviderGoogle, StorageMode: entity.StorageLocal}
	require.NoError(t, repo.Save(ctx, "nonce", state, time.Minute))

	got, err := repo.Consume(ctx, "nonce")
	require.NoError(t, err)
	assert.Equal(t, state, *got)

	_, err = repo.Consume(ctx, "nonce")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestOAuthStateRepository_Expired(t *testing.T) {
	repo := NewOAuthStateRepository(newTestDatabase(t).Collection("oauth_states"))
	ctx := context.Background()
	repo.now = func() time.Time { return time.Now().Add(-time.Hour) }
	require.NoError(t, repo.Save(ctx, "old", entity.OAuthState{Provider: entity.ProviderGitHub, StorageMode: entity.StorageCookie}, time.Minute))

	repo.now = time.Now
	_, err := repo.Consume(ctx, "old")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSearchFilter_EmptySearchMatchesEverything(t *testing.T) {
	assert.Equal(t, bson.M{}, searchFilter(contract.UserSearch{}))
}
