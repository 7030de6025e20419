package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	qdrantDialTimeout  = 10 * time.Second
	qdrantReadTimeout  = 10 * time.Second
	qdrantWriteTimeout = 30 * time.Second
)

func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

// QdrantStore implements VectorStore using Qdrant's gRPC API.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collName    string
	dimension   uint64
	logger      *slog.Logger
}

// NewQdrantStore creates a new Qdrant store connection for one
// collection.
func NewQdrantStore(host string, port int, collection string, dimension uint64, useTLS bool, logger *slog.Logger) (*QdrantStore, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	opts := []grpc.DialOption{}
	if !useTLS {
		logger.Warn("Qdrant connection using insecure credentials (no TLS)")
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to Qdrant at %s: %w", addr, err)
	}

	// Verify the connection with a timeout by issuing a lightweight RPC.
	dialCtx, dialCancel := context.WithTimeout(context.Background(), qdrantDialTimeout)
	defer dialCancel()
	if _, err := pb.NewCollectionsClient(conn).List(dialCtx, &pb.ListCollectionsRequest{}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("verifying Qdrant connection at %s: %w", addr, err)
	}

	logger.Info("connected to Qdrant", "addr", addr, "collection", collection)

	return &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collName:    collection,
		dimension:   dimension,
		logger:      logger,
	}, nil
}

func (q *QdrantStore) EnsureCollection(ctx context.Context) error {
	rctx, rcancel := withTimeout(ctx, qdrantReadTimeout)
	defer rcancel()
	resp, err := q.collections.List(rctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	for _, c := range resp.GetCollections() {
		if c.GetName() == q.collName {
			q.logger.Info("collection already exists", "name", q.collName)
			return nil
		}
	}

	wctx, wcancel := withTimeout(ctx, qdrantWriteTimeout)
	defer wcancel()
	_, err = q.collections.Create(wctx, &pb.CreateCollection{
		CollectionName: q.collName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     q.dimension,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", q.collName, err)
	}

	q.logger.Info("created collection", "name", q.collName, "dimension", q.dimension)

	// Payload indexes for the fields the resolver and reconciler filter on.
	indexFields := map[string]pb.FieldType{
		"uri":          pb.FieldType_FieldTypeKeyword,
		"category":     pb.FieldType_FieldTypeKeyword,
		"context_type": pb.FieldType_FieldTypeKeyword,
		"is_leaf":      pb.FieldType_FieldTypeBool,
	}
	for field, ft := range indexFields {
		ictx, icancel := withTimeout(ctx, qdrantWriteTimeout)
		_, err := q.points.CreateFieldIndex(ictx, &pb.CreateFieldIndexCollection{
			CollectionName: q.collName,
			FieldName:      field,
			FieldType:      ft.Enum(),
		})
		icancel()
		if err != nil {
			q.logger.Warn("creating field index", "field", field, "error", err)
		}
	}

	return nil
}

func (q *QdrantStore) Search(ctx context.Context, vector []float32, limit uint64, filter *Filter) ([]ScoredRecord, error) {
	ctx, cancel := withTimeout(ctx, qdrantReadTimeout)
	defer cancel()
	req := &pb.SearchPoints{
		CollectionName: q.collName,
		Vector:         vector,
		Limit:          limit,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		Filter:         buildFilter(filter),
	}

	resp, err := q.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	results := make([]ScoredRecord, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		results = append(results, ScoredRecord{
			Record: Record{
				ID:     point.GetId().GetUuid(),
				Fields: payloadToFields(point.GetPayload()),
			},
			Score: float64(point.GetScore()),
		})
	}

	return results, nil
}

func (q *QdrantStore) FilterScroll(ctx context.Context, filter *Filter, limit uint64) ([]Record, error) {
	ctx, cancel := withTimeout(ctx, qdrantReadTimeout)
	defer cancel()

	limit32 := uint32(limit)
	resp, err := q.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: q.collName,
		Filter:         buildFilter(filter),
		Limit:          &limit32,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling points: %w", err)
	}

	records := make([]Record, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		records = append(records, Record{
			ID:     point.GetId().GetUuid(),
			Fields: payloadToFields(point.GetPayload()),
		})
	}

	return records, nil
}

func (q *QdrantStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx, qdrantWriteTimeout)
	defer cancel()

	points := make([]*pb.PointStruct, 0, len(records))
	for _, r := range records {
		point := &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Payload: fieldsToPayload(r.Fields),
		}
		if len(r.Vector) > 0 {
			point.Vectors = &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Vector},
				},
			}
		}
		points = append(points, point)
	}

	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}

	q.logger.Debug("upserted records", "count", len(points))
	return nil
}

func (q *QdrantStore) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := withTimeout(ctx, qdrantWriteTimeout)
	defer cancel()

	pointIDs := make([]*pb.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}})
	}

	_, err := q.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: q.collName,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("deleting %d points: %w", len(ids), err)
	}

	q.logger.Debug("deleted records", "count", len(ids))
	return len(ids), nil
}

func (q *QdrantStore) Close() error {
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// --- filter and payload translation ---

func buildFilter(f *Filter) *pb.Filter {
	if f == nil {
		return nil
	}
	if !f.IsBranch() {
		return &pb.Filter{Must: []*pb.Condition{leafCondition(f)}}
	}

	conditions := make([]*pb.Condition, 0, len(f.Children))
	for _, child := range f.Children {
		conditions = append(conditions, toCondition(child))
	}
	if f.Op == OpOr {
		return &pb.Filter{Should: conditions}
	}
	return &pb.Filter{Must: conditions}
}

func toCondition(f *Filter) *pb.Condition {
	if f.IsBranch() {
		return &pb.Condition{
			ConditionOneOf: &pb.Condition_Filter{Filter: buildFilter(f)},
		}
	}
	return leafCondition(f)
}

func leafCondition(f *Filter) *pb.Condition {
	var match *pb.Match
	if len(f.Values) == 1 {
		match = matchValue(f.Values[0])
	} else {
		keywords := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			keywords = append(keywords, fmt.Sprintf("%v", v))
		}
		match = &pb.Match{MatchValue: &pb.Match_Keywords{
			Keywords: &pb.RepeatedStrings{Strings: keywords},
		}}
	}
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{Key: f.Field, Match: match},
		},
	}
}

func matchValue(v any) *pb.Match {
	switch val := v.(type) {
	case bool:
		return &pb.Match{MatchValue: &pb.Match_Boolean{Boolean: val}}
	case int:
		return &pb.Match{MatchValue: &pb.Match_Integer{Integer: int64(val)}}
	case int64:
		return &pb.Match{MatchValue: &pb.Match_Integer{Integer: val}}
	default:
		return &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: fmt.Sprintf("%v", val)}}
	}
}

func fieldsToPayload(fields map[string]any) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: val}}
		case bool:
			payload[k] = &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: val}}
		case int:
			payload[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(val)}}
		case int64:
			payload[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: val}}
		case float64:
			payload[k] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: val}}
		default:
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprintf("%v", val)}}
		}
	}
	return payload
}

func payloadToFields(payload map[string]*pb.Value) map[string]any {
	fields := make(map[string]any, len(payload))
	for k, v := range payload {
		switch kind := v.GetKind().(type) {
		case *pb.Value_StringValue:
			fields[k] = kind.StringValue
		case *pb.Value_BoolValue:
			fields[k] = kind.BoolValue
		case *pb.Value_IntegerValue:
			fields[k] = kind.IntegerValue
		case *pb.Value_DoubleValue:
			fields[k] = kind.DoubleValue
		}
	}
	return fields
}
