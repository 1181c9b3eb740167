package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	mongostore "github.com/nimburion/catalog/pkg/store/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBExecutor runs the document dialect against a MongoDB adapter.
// Ids are ObjectIDs on the wire and hex strings in Documents.
type MongoDBExecutor struct {
	adapter *mongostore.Adapter
}

// NewMongoDBExecutor creates a new MongoDBExecutor instance.
func NewMongoDBExecutor(adapter *mongostore.Adapter) (*MongoDBExecutor, error) {
	if adapter == nil {
		return nil, fmt.Errorf("mongodb adapter is required")
	}
	return &MongoDBExecutor{adapter: adapter}, nil
}

func (e *MongoDBExecutor) Find(ctx context.Context, collection string, opts QueryOptions) ([]Document, error) {
	findOpts := options.Find()
	if len(opts.Sort) > 0 {
		keys := make(bson.D, 0, len(opts.Sort))
		for _, s := range opts.Sort {
			dir := 1
			if s.Order == SortDesc {
				dir = -1
			}
			keys = append(keys, bson.E{Key: s.Field, Value: dir})
		}
		findOpts.SetSort(keys)
	}
	if len(opts.Projection) > 0 {
		proj := make(bson.D, 0, len(opts.Projection))
		for _, field := range opts.Projection {
			proj = append(proj, bson.E{Key: field, Value: 1})
		}
		findOpts.SetProjection(proj)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	filter, err := toBSON(opts.Filter)
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err := e.adapter.Find(ctx, collection, filter, &raw, findOpts); err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, fromBSON(m))
	}
	return docs, nil
}

func (e *MongoDBExecutor) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	query, err := toBSON(filter)
	if err != nil {
		return 0, err
	}
	return e.adapter.CountDocuments(ctx, collection, query)
}

func (e *MongoDBExecutor) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	query, err := toBSON(filter)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	if err := e.adapter.FindOne(ctx, collection, query, &out); err != nil {
		return nil, translateMongoError(err)
	}
	return fromBSON(out), nil
}

func (e *MongoDBExecutor) InsertOne(ctx context.Context, collection string, doc Document) (Document, error) {
	in := bson.M{}
	for k, v := range doc {
		in[k] = v
	}
	if id, ok := in[IDField].(string); ok {
		oid, err := objectID(id)
		if err != nil {
			return nil, err
		}
		in[IDField] = oid
	}

	result, err := e.adapter.InsertOne(ctx, collection, in)
	if err != nil {
		return nil, err
	}
	in[IDField] = result.InsertedID
	return fromBSON(in), nil
}

func (e *MongoDBExecutor) UpdateByID(ctx context.Context, collection, id string, set Document) (Document, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{IDField: oid}
	if len(set) == 0 {
		return e.FindOne(ctx, collection, Filter{IDField: oid})
	}

	update, err := toBSON(Filter(set))
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	if err := e.adapter.FindOneAndUpdate(ctx, collection, filter, bson.M{"$set": update}, &out); err != nil {
		return nil, translateMongoError(err)
	}
	return fromBSON(out), nil
}

func (e *MongoDBExecutor) DeleteByID(ctx context.Context, collection, id string) (Document, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	if err := e.adapter.FindOneAndDelete(ctx, collection, bson.M{IDField: oid}, &out); err != nil {
		return nil, translateMongoError(err)
	}
	return fromBSON(out), nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func translateMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// toBSON translates a Filter for the driver. Values under IDField are hex
// strings in Documents and are converted to ObjectIDs, including operands of
// operator objects such as $in.
func toBSON(filter Filter) (bson.M, error) {
	out := bson.M{}
	for k, v := range filter {
		var (
			converted interface{}
			err       error
		)
		if k == IDField {
			converted, err = idValue(v)
		} else {
			converted, err = toBSONValue(v)
		}
		if err != nil {
			return nil, err
		}
		out[k] = converted
	}
	return out, nil
}

func toBSONValue(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case Filter:
		return toBSON(t)
	case Document:
		return toBSON(Filter(t))
	case map[string]interface{}:
		return toBSON(Filter(t))
	case []interface{}:
		arr := make(bson.A, 0, len(t))
		for _, item := range t {
			converted, err := toBSONValue(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, converted)
		}
		return arr, nil
	default:
		return v, nil
	}
}

func idValue(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case string:
		oid, err := objectID(t)
		if err != nil {
			return nil, err
		}
		return oid, nil
	case []string:
		arr := make(bson.A, 0, len(t))
		for _, id := range t {
			oid, err := objectID(id)
			if err != nil {
				return nil, err
			}
			arr = append(arr, oid)
		}
		return arr, nil
	case []interface{}:
		arr := make(bson.A, 0, len(t))
		for _, item := range t {
			converted, err := idValue(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, converted)
		}
		return arr, nil
	case Filter:
		return idOperators(t)
	case Document:
		return idOperators(Filter(t))
	case map[string]interface{}:
		return idOperators(Filter(t))
	default:
		return v, nil
	}
}

func idOperators(ops Filter) (bson.M, error) {
	out := bson.M{}
	for op, operand := range ops {
		converted, err := idValue(operand)
		if err != nil {
			return nil, err
		}
		out[op] = converted
	}
	return out, nil
}

func fromBSON(m bson.M) Document {
	doc := make(Document, len(m))
	for k, v := range m {
		doc[k] = fromBSONValue(v)
	}
	return doc
}

func fromBSONValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case bson.M:
		return map[string]interface{}(fromBSON(t))
	case bson.D:
		return map[string]interface{}(fromBSON(t.Map()))
	case bson.A:
		out := make([]interface{}, 0, len(t))
		for _, item := range t {
			out = append(out, fromBSONValue(item))
		}
		return out
	default:
		return v
	}
}
