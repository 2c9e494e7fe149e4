package order

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const skipIntegrationTests = "FARMMARKET_SKIP_INTEGRATION_TESTS"

// OrderStoreSuite is a test suite for the MongoDB-backed order store.
type OrderStoreSuite struct {
	suite.Suite
	container *mongodb.MongoDBContainer
	client    *mongo.Client
	db        *mongo.Database
	store     Store
	logger    *slog.Logger
	ctx       context.Context
}

// SetupSuite starts a MongoDB container and connects a client to it.
func (s *OrderStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.container, err = mongodb.Run(s.ctx, "mongo:7")
	require.NoError(s.T(), err, "Failed to run MongoDB container")

	uri, err := s.container.ConnectionString(s.ctx)
	require.NoError(s.T(), err, "Failed to get connection string from container")

	connectCtx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()
	s.client, err = mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	require.NoError(s.T(), err, "Failed to connect to MongoDB")
	require.NoError(s.T(), s.client.Ping(connectCtx, nil), "Failed to ping MongoDB")

	s.db = s.client.Database("farmmarket_test")
	mongoStore := NewMongoStore(s.db)
	require.NoError(s.T(), mongoStore.EnsureIndexes(s.ctx))
	s.store = mongoStore
	s.logger.Info("Initialization complete for OrderStoreSuite")
}

// TearDownSuite cleans up the client and the container.
func (s *OrderStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.client != nil {
		if err := s.client.Disconnect(s.ctx); err != nil {
			s.logger.Warn("failed to disconnect MongoDB client", "error", err)
		}
	}
	if s.container != nil {
		if err := s.container.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate MongoDB container", "error", err)
		}
	}
}

// SetupTest empties the orders collection before each test.
func (s *OrderStoreSuite) SetupTest() {
	_, err := s.db.Collection(ordersCollection).DeleteMany(s.ctx, bson.M{})
	require.NoError(s.T(), err, "Failed to clear orders collection")
}

// TestOrderStoreIntegration runs the order store integration tests.
func TestOrderStoreIntegration(t *testing.T) {
	// Skip integration tests if the environment variable is set
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(OrderStoreSuite))
}

// newTestOrder is a helper to build an order document for a user.
func newTestOrder(userID primitive.ObjectID, status Status) *Order {
	return &Order{
		UserID: userID,
		Items: []Item{{
			ProductID: primitive.NewObjectID(),
			Name:      "Potato",
			Price:     20,
			Qty:       3,
		}},
		ShippingAddress: ShippingAddress{Address: "14 Market Road", City: "Pune"},
		PaymentMethod:   "Cash on Delivery",
		ItemsPrice:      60,
		TotalPrice:      60,
		Status:          status,
		History: []HistoryEntry{{
			Status:    status,
			Note:      "Order created",
			Location:  "Pune",
			Timestamp: time.Now(),
			UpdatedBy: userID,
		}},
	}
}

func (s *OrderStoreSuite) TestInsertAndFindByID() {
	userID := primitive.NewObjectID()
	created, err := s.store.Insert(s.ctx, newTestOrder(userID, StatusPending))
	require.NoError(s.T(), err)
	require.False(s.T(), created.ID.IsZero(), "Created order ID should not be zero")

	found, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.ID, found.ID)
	assert.Equal(s.T(), userID, found.UserID)
	assert.Equal(s.T(), StatusPending, found.Status)
	assert.Len(s.T(), found.Items, 1)
	assert.Equal(s.T(), "Potato", found.Items[0].Name)
	assert.Len(s.T(), found.History, 1)
}

func (s *OrderStoreSuite) TestFindByIDNotFound() {
	_, err := s.store.FindByID(s.ctx, primitive.NewObjectID())
	assert.ErrorIs(s.T(), err, ErrOrderNotFound)
}

func (s *OrderStoreSuite) TestFindByUserNewestFirst() {
	userID := primitive.NewObjectID()
	first, err := s.store.Insert(s.ctx, newTestOrder(userID, StatusPending))
	require.NoError(s.T(), err)
	time.Sleep(5 * time.Millisecond)
	second, err := s.store.Insert(s.ctx, newTestOrder(userID, StatusPending))
	require.NoError(s.T(), err)

	// Another user's order must not leak into the listing.
	_, err = s.store.Insert(s.ctx, newTestOrder(primitive.NewObjectID(), StatusPending))
	require.NoError(s.T(), err)

	orders, err := s.store.FindByUser(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Len(s.T(), orders, 2)
	assert.Equal(s.T(), second.ID, orders[0].ID)
	assert.Equal(s.T(), first.ID, orders[1].ID)
}

func (s *OrderStoreSuite) TestUpdate() {
	created, err := s.store.Insert(s.ctx, newTestOrder(primitive.NewObjectID(), StatusPending))
	require.NoError(s.T(), err)

	created.Status = StatusShipped
	created.TrackingNumber = "TRK-1001"
	created.History = append(created.History, HistoryEntry{
		Status:    StatusShipped,
		Location:  "Mumbai",
		Timestamp: time.Now(),
		UpdatedBy: primitive.NewObjectID(),
	})
	require.NoError(s.T(), s.store.Update(s.ctx, created))

	found, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), StatusShipped, found.Status)
	assert.Equal(s.T(), "TRK-1001", found.TrackingNumber)
	assert.Len(s.T(), found.History, 2)
}

func (s *OrderStoreSuite) TestUpdateMissingOrder() {
	ghost := newTestOrder(primitive.NewObjectID(), StatusPending)
	ghost.ID = primitive.NewObjectID()
	assert.ErrorIs(s.T(), s.store.Update(s.ctx, ghost), ErrOrderNotFound)
}

func (s *OrderStoreSuite) TestListWithStatusFilter() {
	userID := primitive.NewObjectID()
	_, err := s.store.Insert(s.ctx, newTestOrder(userID, StatusPending))
	require.NoError(s.T(), err)
	shipped, err := s.store.Insert(s.ctx, newTestOrder(userID, StatusShipped))
	require.NoError(s.T(), err)

	all, total, err := s.store.List(s.ctx, ListParams{Limit: 10})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), total)
	assert.Len(s.T(), all, 2)

	filtered, total, err := s.store.List(s.ctx, ListParams{Status: StatusShipped, Limit: 10})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), filtered, 1)
	assert.Equal(s.T(), shipped.ID, filtered[0].ID)
}

func (s *OrderStoreSuite) TestListPagination() {
	userID := primitive.NewObjectID()
	for range 5 {
		_, err := s.store.Insert(s.ctx, newTestOrder(userID, StatusPending))
		require.NoError(s.T(), err)
	}

	page, total, err := s.store.List(s.ctx, ListParams{Offset: 2, Limit: 2})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(5), total)
	assert.Len(s.T(), page, 2)
}
