package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// default reads never carry the password hash
var withoutPassword = bson.M{"password": 0}

type MongoUserRepository struct {
	collection *mongo.Collection
}

// check in compile time if MongoUserRepository implements IUserRepository
var _ contract.IUserRepository = (*MongoUserRepository)(nil)

func NewMongoUserRepository(collection *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{collection: collection}
}

// EnsureIndexes creates the uniqueness and token lookup indexes.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_users_username"),
		},
		// reset accounts carry no email
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("idx_users_email"),
		},
		{
			Keys:    bson.D{{Key: "activationToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_users_activation_token"),
		},
		{
			Keys:    bson.D{{Key: "resetPasswordToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_users_reset_token"),
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MongoUserRepository) CreateUser(ctx context.Context, user *entity.User) error {
	_, err := r.collection.InsertOne(ctx, user)
	return mapWriteError(err)
}

func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, withoutPassword)
}

func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, withoutPassword)
}

func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"username": username}, withoutPassword)
}

func (r *MongoUserRepository) GetUserWithPasswordByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, nil)
}

func (r *MongoUserRepository) GetUserWithPasswordByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"username": username}, nil)
}

func (r *MongoUserRepository) GetUserWithPasswordByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id string, update contract.ProfileUpdate) (*entity.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	doc := bson.M{"$set": set}
	if update.Email != nil {
		// the sparse unique index only skips documents without the field
		if *update.Email == "" {
			doc["$unset"] = bson.M{"email": ""}
		} else {
			set["email"] = *update.Email
		}
	}
	if update.ProfilePicture != nil {
		set["profilePicture"] = *update.ProfilePicture
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, doc)
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id string, hashedPassword string) error {
	update := bson.M{"$set": bson.M{"password": hashedPassword, "updatedAt": time.Now()}}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

func (r *MongoUserRepository) LinkProvider(ctx context.Context, id string, provider entity.Provider, providerID string, picture entity.ProfilePicture) (*entity.User, error) {
	set := bson.M{
		"provider":   provider,
		"providerId": providerID,
		"active":     true,
		"updatedAt":  time.Now(),
	}
	if picture.URL != "" {
		set["profilePicture"] = picture
	}
	update := bson.M{
		"$set":   set,
		"$unset": bson.M{"password": ""},
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (r *MongoUserRepository) SetActivationToken(ctx context.Context, id string, tokenHash string, expires time.Time) error {
	update := bson.M{"$set": bson.M{"activationToken": tokenHash, "activationExpires": expires}}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

func (r *MongoUserRepository) SetResetToken(ctx context.Context, id string, tokenHash string, expires time.Time) error {
	update := bson.M{"$set": bson.M{"resetPasswordToken": tokenHash, "resetPasswordExpires": expires}}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

// ConsumeActivationToken matches and clears the token in a single findOneAndUpdate so two
// concurrent submissions of the same link cannot both succeed.
func (r *MongoUserRepository) ConsumeActivationToken(ctx context.Context, tokenHash string, hashedPassword string, now time.Time) (*entity.User, error) {
	filter := bson.M{
		"activationToken":   tokenHash,
		"activationExpires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"password":  hashedPassword,
			"active":    true,
			"provider":  entity.ProviderLocal,
			"updatedAt": now,
		},
		"$unset": bson.M{"activationToken": "", "activationExpires": ""},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoUserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, hashedPassword string, now time.Time) (*entity.User, error) {
	filter := bson.M{
		"resetPasswordToken":   tokenHash,
		"resetPasswordExpires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"password":  hashedPassword,
			"updatedAt": now,
		},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoUserRepository) ClearActivationToken(ctx context.Context, tokenHash string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"activationToken": tokenHash},
		bson.M{"$unset": bson.M{"activationToken": "", "activationExpires": ""}},
	)
	return err
}

func (r *MongoUserRepository) ClearResetToken(ctx context.Context, tokenHash string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"resetPasswordToken": tokenHash},
		bson.M{"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""}},
	)
	return err
}

func (r *MongoUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at}})
}

// ReplaceUser overwrites the whole document, dropping every field user does not carry.
func (r *MongoUserRepository) ReplaceUser(ctx context.Context, user *entity.User) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return apperror.NotFound("User not found")
	}
	return nil
}

func (r *MongoUserRepository) DeleteUser(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	opts := options.FindOneAndDelete().SetProjection(withoutPassword)
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) ListUsers(ctx context.Context, page, limit int) ([]*entity.User, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	users, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *MongoUserRepository) SearchUsers(ctx context.Context, search contract.UserSearch) ([]*entity.User, error) {
	opts := options.Find().SetProjection(withoutPassword).SetLimit(100)
	return r.find(ctx, searchFilter(search), opts)
}

// searchFilter ANDs the given criteria. String criteria are quoted before they become
// case-insensitive patterns.
func searchFilter(search contract.UserSearch) bson.M {
	var and bson.A
	if search.ID != "" {
		and = append(and, bson.M{"_id": search.ID})
	}
	contains := func(field, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		and = append(and, bson.M{field: primitive.Regex{Pattern: regexp.QuoteMeta(value), Options: "i"}})
	}
	contains("name", search.Name)
	contains("username", search.Username)
	contains("email", search.Email)
	contains("studentDetails.admissionNumber", search.AdmissionNumber)
	if search.GradYear != 0 {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"studentDetails.gradYear": search.GradYear},
			bson.M{"alumniDetails.gradYear": search.GradYear},
		}})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M, projection bson.M) (*entity.User, error) {
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	var user entity.User
	err := r.collection.FindOne(ctx, filter, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*entity.User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []*entity.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *MongoUserRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*entity.User, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)
	var user entity.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, mapWriteError(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return apperror.NotFound("User not found")
	}
	return nil
}

// mapWriteError turns duplicate-key failures into conflicts naming the clashing field.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "email"):
			return apperror.Conflict("Email already registered")
		case strings.Contains(msg, "username"):
			return apperror.Conflict("Username already taken")
		default:
			return apperror.Conflict("User already exists")
		}
	}
	return fmt.Errorf("user store: %w", err)
}
