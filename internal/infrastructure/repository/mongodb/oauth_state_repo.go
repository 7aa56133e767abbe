package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ---------- DTO layer ------------------
type oauthStateDTO struct {
	State       string    `bson:"_id"`
	Provider    string    `bson:"provider"`
	StorageMode string    `bson:"storage"`
	CreatedAt   time.Time `bson:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at"`
}

func (s *oauthStateDTO) ToEntity() *entity.OAuthState {
	return &entity.OAuthState{
		Provider:    entity.Provider(s.Provider),
		StorageMode: entity.StorageMode(s.StorageMode),
	}
}

// ---------------------------------------

// OAuthStateRepository is the MongoDB-backed state store used when Redis is not
// configured. A TTL index reaps abandoned states; Consume also checks expiry itself
// because the TTL monitor runs only once a minute.
type OAuthStateRepository struct {
	Collection *mongo.Collection
	now        func() time.Time
}

var _ contract.IOAuthStateStore = (*OAuthStateRepository)(nil)

func NewOAuthStateRepository(colln *mongo.Collection) *OAuthStateRepository {
	return &OAuthStateRepository{Collection: colln, now: time.Now}
}

// EnsureIndexes creates the TTL index.
func (r *OAuthStateRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_state_ttl"),
	})
	return err
}

func (r *OAuthStateRepository) Save(ctx context.Context, state string, value entity.OAuthState, ttl time.Duration) error {
	now := r.now().UTC()
	dto := oauthStateDTO{
		State:       state,
		Provider:    string(value.Provider),
		StorageMode: string(value.StorageMode),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if _, err := r.Collection.InsertOne(ctx, dto); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("oauth state already in use")
		}
		return err
	}
	return nil
}

// Consume deletes the state as it reads it, so a state validates at most once.
func (r *OAuthStateRepository) Consume(ctx context.Context, state string) (*entity.OAuthState, error) {
	filter := bson.M{
		"_id":        state,
		"expires_at": bson.M{"$gt": r.now().UTC()},
	}
	var dto oauthStateDTO
	err := r.Collection.FindOneAndDelete(ctx, filter).Decode(&dto)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return dto.ToEntity(), nil
}
