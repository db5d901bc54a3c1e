package database

import (
	"context"
	"errors"
	"fmt"
	"invitebot/entity"
	"invitebot/internal/config"
	"invitebot/lib/sl"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionUsers   = "users"
	collectionInvites = "invites"
)

type MongoDB struct {
	client   *mongo.Client
	database string
	mu       sync.Mutex
	now      func() time.Time
	log      *slog.Logger
}

func NewMongoClient(ctx context.Context, conf *config.Config, log *slog.Logger) (*MongoDB, error) {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Store.Host, conf.Store.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Store.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Store.User,
			Password:   conf.Store.Password,
			AuthSource: conf.Store.Database,
		})
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	m := &MongoDB{
		client:   client,
		database: conf.Store.Database,
		now:      nowUTC,
		log:      log.With(sl.Module("database.mongo")),
	}
	if err = m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	m.log.With(
		slog.String("host", conf.Store.Host),
		slog.String("database", conf.Store.Database),
	).Info("connected")
	return m, nil
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.collection(collectionInvites).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{"link", 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{"owner_id", 1}}},
		{Keys: bson.D{{"chat_id", 1}}},
		{Keys: bson.D{{"created_at", -1}}},
		{Keys: bson.D{{"last_synced_at", 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongodb invites indexes: %w", err)
	}
	_, err = m.collection(collectionUsers).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{"tg_id", 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{"username", 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongodb users indexes: %w", err)
	}
	return nil
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find: %w", err)
}

// UpsertMany sends the batch as one ordered bulk write. Counters use $max,
// insert-only fields use $setOnInsert, absent optional fields are left alone.
func (m *MongoDB) UpsertMany(ctx context.Context, links []entity.InviteLink, chatId string, ownerId *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch := prepareBatch(links, chatId, ownerId, m.now())
	if len(batch) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(batch))
	for _, l := range batch {
		set := bson.D{
			{"requires_approval", l.RequiresApproval},
			{"revoked", l.Revoked},
			{"last_synced_at", l.LastSyncedAt},
		}
		if l.Title != "" {
			set = append(set, bson.E{Key: "title", Value: l.Title})
		}
		if l.ExpireAt != nil {
			set = append(set, bson.E{Key: "expire_at", Value: *l.ExpireAt})
		}
		if l.UsageLimit != nil {
			set = append(set, bson.E{Key: "usage_limit", Value: *l.UsageLimit})
		}
		update := bson.D{
			{"$setOnInsert", bson.D{
				{"chat_id", l.ChatId},
				{"owner_id", l.OwnerId},
				{"created_at", l.CreatedAt},
			}},
			{"$set", set},
			{"$max", bson.D{
				{"usage", l.UsageCount},
				{"approved_request_count", l.ApprovedRequestCount},
			}},
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{"link", l.Link}}).
			SetUpdate(update).
			SetUpsert(true))
	}

	res, err := m.collection(collectionInvites).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("mongodb upsert invites: %w", err)
	}
	m.log.With(
		slog.Int("batch", len(batch)),
		slog.Int64("inserted", res.UpsertedCount),
		slog.Int64("modified", res.ModifiedCount),
	).Debug("invites upserted")
	return nil
}

// ownerPipeline joins the owner profile and orders links newest first;
// _id keeps insertion order between links created in the same second
func ownerPipeline(match bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{"$match", match}},
		{{"$sort", bson.D{{"created_at", -1}, {"_id", 1}}}},
		{{"$lookup", bson.D{
			{"from", collectionUsers},
			{"localField", "owner_id"},
			{"foreignField", "tg_id"},
			{"as", "owner"},
		}}},
		{{"$set", bson.D{
			{"owner_username", bson.D{{"$arrayElemAt", bson.A{"$owner.username", 0}}}},
			{"owner_first_name", bson.D{{"$arrayElemAt", bson.A{"$owner.first_name", 0}}}},
		}}},
		{{"$project", bson.D{{"owner", 0}, {"_id", 0}}}},
	}
}

func (m *MongoDB) aggregate(ctx context.Context, match bson.D) ([]entity.InviteLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cursor, err := m.collection(collectionInvites).Aggregate(ctx, ownerPipeline(match))
	if err != nil {
		return nil, fmt.Errorf("mongodb aggregate invites: %w", err)
	}
	defer cursor.Close(ctx)

	links := make([]entity.InviteLink, 0)
	if err = cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("mongodb decode invites: %w", err)
	}
	return links, nil
}

func (m *MongoDB) GetByOwner(ctx context.Context, ownerId int64) ([]entity.InviteLink, error) {
	return m.aggregate(ctx, bson.D{{"owner_id", ownerId}})
}

func (m *MongoDB) GetAll(ctx context.Context) ([]entity.InviteLink, error) {
	return m.aggregate(ctx, bson.D{})
}

func (m *MongoDB) GetLink(ctx context.Context, link string) (*entity.InviteLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var l entity.InviteLink
	err := m.collection(collectionInvites).FindOne(ctx, bson.D{{"link", link}}).Decode(&l)
	if err != nil {
		return nil, m.findError(err)
	}
	return &l, nil
}

func (m *MongoDB) DeleteLink(ctx context.Context, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.collection(collectionInvites).DeleteOne(ctx, bson.D{{"link", link}})
	return err
}

func (m *MongoDB) UpsertUser(ctx context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	filter := bson.D{{"tg_id", user.TelegramId}}
	update := bson.D{{"$set", bson.D{
		{"username", user.Username},
		{"first_name", user.FirstName},
	}}}
	opts := options.Update().SetUpsert(true)
	_, err := m.collection(collectionUsers).UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoDB) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var user entity.User
	err := m.collection(collectionUsers).FindOne(ctx, bson.D{{"tg_id", id}}).Decode(&user)
	if err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}

func (m *MongoDB) ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	opts := options.Find().
		SetSort(bson.D{{"tg_id", 1}}).
		SetSkip(int64(max(offset, 0)))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := m.collection(collectionUsers).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*entity.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client.Disconnect(ctx)
}
