package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	productsCollection    = "products"
	complementsCollection = "complements"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type productDoc struct {
	ID            string         `bson:"_id"`
	Name          string         `bson:"name"`
	Description   string         `bson:"description"`
	Price         float64        `bson:"price"`
	Image         string         `bson:"image"`
	Category      string         `bson:"category"`
	Featured      bool           `bson:"featured"`
	Active        bool           `bson:"active"`
	Variations    []variationDoc `bson:"variations,omitempty"`
	ComplementIDs []string       `bson:"complement_ids,omitempty"`
	CreatedAt     time.Time      `bson:"created_at"`
}

type variationDoc struct {
	ID         string  `bson:"id"`
	Name       string  `bson:"name"`
	PriceDelta float64 `bson:"price_delta"`
}

type complementDoc struct {
	ID       string  `bson:"_id"`
	Name     string  `bson:"name"`
	Price    float64 `bson:"price"`
	Required bool    `bson:"required"`
	Active   bool    `bson:"active"`
}

// MongoSource reads the catalog from the products and complements
// collections. Records that fail the price guards are skipped.
type MongoSource struct {
	products    *mongo.Collection
	complements *mongo.Collection
	logger      *zap.Logger
}

func NewMongoSource(db *mongo.Database, logger *zap.Logger) *MongoSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoSource{
		products:    db.Collection(productsCollection),
		complements: db.Collection(complementsCollection),
		logger:      logger,
	}
}

func (m *MongoSource) ListProducts(ctx context.Context) ([]domain.Product, error) {
	complements, err := m.activeComplements(ctx, nil)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.products.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toDomain(complements)
		if err != nil {
			m.logger.Warn("skipping invalid product", zap.String("product_id", doc.ID), zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (m *MongoSource) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var doc productDoc
	err := m.products.FindOne(ctx, bson.M{"_id": id, "active": true}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	complements, err := m.activeComplements(ctx, doc.ComplementIDs)
	if err != nil {
		return domain.Product{}, err
	}

	p, err := doc.toDomain(complements)
	if err != nil {
		m.logger.Warn("invalid product record", zap.String("product_id", id), zap.Error(err))
		return domain.Product{}, fmt.Errorf("%w: %v", ErrProductNotFound, err)
	}
	return p, nil
}

// activeComplements loads active complements by id; nil ids loads all of them.
func (m *MongoSource) activeComplements(ctx context.Context, ids []string) (map[string]domain.Complement, error) {
	filter := bson.M{"active": true}
	if ids != nil {
		if len(ids) == 0 {
			return map[string]domain.Complement{}, nil
		}
		filter["_id"] = bson.M{"$in": ids}
	}

	cursor, err := m.complements.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query complements: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []complementDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode complements: %w", err)
	}

	out := make(map[string]domain.Complement, len(docs))
	for _, doc := range docs {
		c, err := doc.toDomain()
		if err != nil {
			m.logger.Warn("skipping invalid complement", zap.String("complement_id", doc.ID), zap.Error(err))
			continue
		}
		out[c.ID] = c
	}
	return out, nil
}

func (m *MongoSource) CreateIndexes(ctx context.Context) error {
	_, err := m.products.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}

	_, err = m.complements.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "active", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create complement indexes: %w", err)
	}
	return nil
}

func (d productDoc) toDomain(complements map[string]domain.Complement) (domain.Product, error) {
	price, err := money(d.Price)
	if err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Image:       d.Image,
		Category:    d.Category,
		Featured:    d.Featured,
	}
	for _, v := range d.Variations {
		delta, err := money(v.PriceDelta)
		if err != nil {
			return domain.Product{}, err
		}
		p.Variations = append(p.Variations, domain.Variation{ID: v.ID, Name: v.Name, PriceDelta: delta})
	}
	// unknown or inactive complements are not offered
	for _, id := range d.ComplementIDs {
		if c, ok := complements[id]; ok {
			p.Complements = append(p.Complements, c)
		}
	}

	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (d complementDoc) toDomain() (domain.Complement, error) {
	price, err := money(d.Price)
	if err != nil {
		return domain.Complement{}, err
	}
	c := domain.Complement{ID: d.ID, Name: d.Name, PriceDelta: price, Required: d.Required}
	if err := c.Validate(); err != nil {
		return domain.Complement{}, err
	}
	return c, nil
}

func money(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", domain.ErrInvalidPrice, f)
	}
	return decimal.NewFromFloat(f).Round(2), nil
}
