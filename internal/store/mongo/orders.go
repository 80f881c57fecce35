package mongo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tienda_srv/internal/report"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

// orderDoc is the wire shape of one order document.
type orderDoc struct {
	ID     primitive.ObjectID `bson:"_id"`
	UserID string             `bson:"userId"`
	TS     int64              `bson:"ts"`
	Items  []report.LineItem  `bson:"items"`
}

// OrderStore pages order documents newest-first. The continuation
// cursor encodes the (ts, _id) pair of the last document of a page;
// paging resumes strictly after it under the same {ts:-1, _id:-1}
// order, so a read-only collection yields no duplicates and no gaps.
type OrderStore struct {
	col    *mongo.Collection
	logger *logrus.Logger
}

// NewOrderStore builds the pager adapter over the orders collection.
func NewOrderStore(db *mongo.Database, logger *logrus.Logger) *OrderStore {
	return &OrderStore{col: db.Collection(ordersCollection), logger: logger}
}

// FetchPage implements report.OrderPager.
func (s *OrderStore) FetchPage(ctx context.Context, after report.PageCursor, pageSize int) (report.Page, error) {
	filter := bson.M{}
	if after != "" {
		ts, id, err := decodeCursor(after)
		if err != nil {
			return report.Page{}, err
		}
		filter = bson.M{"$or": bson.A{
			bson.M{"ts": bson.M{"$lt": ts}},
			bson.M{"ts": ts, "_id": bson.M{"$lt": id}},
		}}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "ts", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(pageSize))

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return report.Page{}, fmt.Errorf("find orders: %w", err)
	}
	defer cur.Close(ctx)

	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return report.Page{}, fmt.Errorf("decode orders: %w", err)
	}

	page := report.Page{Orders: make([]report.Order, len(docs))}
	for i, d := range docs {
		page.Orders[i] = report.Order{
			ID:     d.ID.Hex(),
			UserID: d.UserID,
			TS:     d.TS,
			Items:  d.Items,
		}
	}

	// A short page is the terminal condition: no continuation cursor.
	if len(docs) == pageSize {
		last := docs[len(docs)-1]
		page.Next = encodeCursor(last.TS, last.ID)
	}

	s.logger.WithFields(logrus.Fields{
		"orders":   len(docs),
		"has_more": page.Next != "",
	}).Debug("Fetched order page")

	return page, nil
}

func encodeCursor(ts int64, id primitive.ObjectID) report.PageCursor {
	return report.PageCursor(strconv.FormatInt(ts, 10) + ":" + id.Hex())
}

func decodeCursor(c report.PageCursor) (int64, primitive.ObjectID, error) {
	tsPart, idPart, ok := strings.Cut(string(c), ":")
	if !ok {
		return 0, primitive.NilObjectID, fmt.Errorf("malformed page cursor %q", c)
	}
	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return 0, primitive.NilObjectID, fmt.Errorf("malformed page cursor %q: %w", c, err)
	}
	id, err := primitive.ObjectIDFromHex(idPart)
	if err != nil {
		return 0, primitive.NilObjectID, fmt.Errorf("malformed page cursor %q: %w", c, err)
	}
	return ts, id, nil
}
