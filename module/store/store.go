package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	chatmodel "sparrow/module/chat/model"
	notifmodel "sparrow/module/notification/model"
	usermodel "sparrow/module/user/model"
	"sparrow/tools/errs"
	"sparrow/tools/ids"
)

// Mongo is the document-store backend for users, conversations, messages,
// and notifications. It satisfies the gateway's Store interface and carries
// the extra operations the REST handlers need.
type Mongo struct {
	users         *mongo.Collection
	conversations *mongo.Collection
	messages      *mongo.Collection
	notifications *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		users:         db.Collection((*usermodel.User)(nil).TableName()),
		conversations: db.Collection((*chatmodel.Conversation)(nil).TableName()),
		messages:      db.Collection((*chatmodel.Message)(nil).TableName()),
		notifications: db.Collection((*notifmodel.Notification)(nil).TableName()),
	}
}

// EnsureIndexes creates the indexes the queries below rely on, notably the
// unique pair index backing one-conversation-per-pair. Pairs are stored in
// canonical order (user1 < user2) so a single compound unique index covers
// both orderings.
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "user index")
	}

	_, err = s.conversations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "conversation_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user1", Value: 1}, {Key: "user2", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return errors.Wrap(err, "conversation indexes")
	}

	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "send_time", Value: 1}},
	})
	if err != nil {
		return errors.Wrap(err, "message index")
	}

	_, err = s.notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "create_time", Value: -1}},
	})
	return errors.Wrap(err, "notification index")
}

// ---- users / presence ----

// SetOnline flips the durable presence flag. The account record must
// already exist (login creates it); a connect from an id that never logged
// in is a hard error rather than a silent no-op that would leave the user
// out of the roster.
func (s *Mongo) SetOnline(ctx context.Context, userID string, online bool, socketID string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"online": online, "socket_id": socketID}},
	)
	if err != nil {
		return errors.Wrapf(err, "set online user=%s", userID)
	}
	if res.MatchedCount == 0 {
		return errs.ErrUserNotFound.WithDetail(userID)
	}
	return nil
}

func (s *Mongo) OnlineUsers(ctx context.Context) ([]usermodel.UserPublic, error) {
	cur, err := s.users.Find(ctx, bson.M{"online": true},
		options.Find().SetProjection(bson.M{"user_id": 1, "username": 1, "name": 1, "face_url": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "find online users")
	}
	defer cur.Close(ctx)

	var out []usermodel.UserPublic
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode online users")
	}
	return out, nil
}

func (s *Mongo) GetUser(ctx context.Context, userID string) (*usermodel.User, error) {
	var u usermodel.User
	err := s.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get user=%s", userID)
	}
	return &u, nil
}

// UpsertUser creates or refreshes the account record; used by the login
// bootstrap.
func (s *Mongo) UpsertUser(ctx context.Context, u *usermodel.User) error {
	if u.CreateTime.IsZero() {
		u.CreateTime = time.Now()
	}
	_, err := s.users.UpdateOne(ctx,
		bson.M{"user_id": u.UserID},
		bson.M{
			"$set":         bson.M{"username": u.Username, "name": u.Name, "face_url": u.FaceURL, "email": u.Email},
			"$setOnInsert": bson.M{"online": false, "create_time": u.CreateTime},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "upsert user=%s", u.UserID)
}

// SetFollow adds or removes follower from target's follower set.
func (s *Mongo) SetFollow(ctx context.Context, followerID, targetID string, follow bool) error {
	op := "$pull"
	if follow {
		op = "$addToSet"
	}
	res, err := s.users.UpdateOne(ctx,
		bson.M{"user_id": targetID},
		bson.M{op: bson.M{"followers": followerID}},
	)
	if err != nil {
		return errors.Wrapf(err, "set follow target=%s", targetID)
	}
	if res.MatchedCount == 0 {
		return errors.Errorf("set follow: target %s not found", targetID)
	}
	return nil
}

// ---- conversations ----

func (s *Mongo) GetConversation(ctx context.Context, conversationID string) (*chatmodel.Conversation, error) {
	var c chatmodel.Conversation
	err := s.conversations.FindOne(ctx, bson.M{"conversation_id": conversationID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get conversation=%s", conversationID)
	}
	return &c, nil
}

// EnsureConversation finds the conversation for the unordered pair (a, b),
// creating it when absent.
func (s *Mongo) EnsureConversation(ctx context.Context, a, b string) (*chatmodel.Conversation, error) {
	u1, u2 := a, b
	if u2 < u1 {
		u1, u2 = u2, u1
	}

	var c chatmodel.Conversation
	err := s.conversations.FindOne(ctx, bson.M{"user1": u1, "user2": u2}).Decode(&c)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrapf(err, "find conversation %s/%s", u1, u2)
	}

	c = chatmodel.Conversation{
		ConversationID: ids.GenerateString(),
		User1:          u1,
		User2:          u2,
		OpenFlags:      map[string]bool{u1: false, u2: false},
		CreateTime:     time.Now(),
	}
	if _, err := s.conversations.InsertOne(ctx, &c); err != nil {
		// lost the race against a concurrent create: the pair index holds,
		// re-read the winner
		if mongo.IsDuplicateKeyError(err) {
			if ferr := s.conversations.FindOne(ctx, bson.M{"user1": u1, "user2": u2}).Decode(&c); ferr == nil {
				return &c, nil
			}
		}
		return nil, errors.Wrapf(err, "insert conversation %s/%s", u1, u2)
	}
	return &c, nil
}

func (s *Mongo) SetActivityFlag(ctx context.Context, conversationID, userID string, open bool) error {
	_, err := s.conversations.UpdateOne(ctx,
		bson.M{"conversation_id": conversationID},
		bson.M{"$set": bson.M{"open_flags." + userID: open}},
	)
	return errors.Wrapf(err, "set activity conversation=%s user=%s", conversationID, userID)
}

func (s *Mongo) ActiveConversationFor(ctx context.Context, userID string) (*chatmodel.Conversation, error) {
	var c chatmodel.Conversation
	err := s.conversations.FindOne(ctx, bson.M{
		"$or":                 bson.A{bson.M{"user1": userID}, bson.M{"user2": userID}},
		"open_flags." + userID: true,
	}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "active conversation user=%s", userID)
	}
	return &c, nil
}

// ---- messages ----

func (s *Mongo) InsertMessage(ctx context.Context, m *chatmodel.Message) error {
	_, err := s.messages.InsertOne(ctx, m)
	return errors.Wrapf(err, "insert message=%s", m.MessageID)
}

func (s *Mongo) MarkConversationSeen(ctx context.Context, conversationID, receiverID string) (int64, error) {
	res, err := s.messages.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "receiver_id": receiverID, "seen": false},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return 0, errors.Wrapf(err, "mark seen conversation=%s user=%s", conversationID, receiverID)
	}
	return res.ModifiedCount, nil
}

func (s *Mongo) ListMessages(ctx context.Context, conversationID string) ([]chatmodel.Message, error) {
	cur, err := s.messages.Find(ctx,
		bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.M{"send_time": 1}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "list messages conversation=%s", conversationID)
	}
	defer cur.Close(ctx)

	var out []chatmodel.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return out, nil
}

// ---- notifications ----

func (s *Mongo) InsertNotification(ctx context.Context, n *notifmodel.Notification) error {
	_, err := s.notifications.InsertOne(ctx, n)
	return errors.Wrapf(err, "insert notification=%s", n.NotificationID)
}

func (s *Mongo) ListNotifications(ctx context.Context, receiverID string) ([]notifmodel.Notification, error) {
	cur, err := s.notifications.Find(ctx,
		bson.M{"receiver_id": receiverID},
		options.Find().SetSort(bson.M{"create_time": -1}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "list notifications user=%s", receiverID)
	}
	defer cur.Close(ctx)

	var out []notifmodel.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode notifications")
	}
	return out, nil
}

func (s *Mongo) MarkNotificationsSeen(ctx context.Context, receiverID string) (int64, error) {
	res, err := s.notifications.UpdateMany(ctx,
		bson.M{"receiver_id": receiverID, "seen": false},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return 0, errors.Wrapf(err, "mark notifications seen user=%s", receiverID)
	}
	return res.ModifiedCount, nil
}
