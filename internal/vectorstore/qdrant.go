package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"docchat/internal/contextutil"
	"docchat/internal/storage"
)

// pointNamespace scopes the name-based UUIDs used as point ids.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docchat/embeddings"))

// QdrantCache memoizes embeddings as Qdrant points, one point per (model, text).
type QdrantCache struct {
	client     *qdrant.Client
	collection string
	vectorSize int
}

// grpcAddress derives the gRPC host and port from an HTTP URL such as "http://localhost:6333".
// The gRPC port is the HTTP port + 1, defaulting to 6334.
func grpcAddress(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// NewQdrantCache creates a client for collection. Call EnsureCollection before use.
func NewQdrantCache(urlStr, collection string, vectorSize int) (*QdrantCache, error) {
	host, port, err := grpcAddress(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantCache{
		client:     client,
		collection: collection,
		vectorSize: vectorSize,
	}, nil
}

// PointID returns the deterministic point id for text embedded with model.
func PointID(model, text string) string {
	return uuid.NewSHA1(pointNamespace, []byte(model+"\x00"+text)).String()
}

// Lookup fetches the cached vector for (model, text). The boolean is false on a miss.
func (c *QdrantCache) Lookup(ctx context.Context, model, text string) ([]float64, bool, error) {
	points, err := c.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(PointID(model, text))},
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get point: %w", err)
	}
	if len(points) == 0 {
		return nil, false, nil
	}

	vector := denseVector(points[0])
	if len(vector) == 0 {
		return nil, false, nil
	}
	return vector, true, nil
}

// Store upserts vector for (model, text).
func (c *QdrantCache) Store(ctx context.Context, model, text string, vector []float64) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(vector) != c.vectorSize {
		return fmt.Errorf("embedding has size %d, collection expects %d", len(vector), c.vectorSize)
	}

	vec := make([]float32, len(vector))
	for i, v := range vector {
		vec[i] = float32(v)
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(PointID(model, text)),
				Vectors: qdrant.NewVectors(vec...),
				Payload: qdrant.NewValueMap(map[string]any{
					"model":     model,
					"text_hash": storage.TextHash(text),
				}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	logger.DebugContext(ctx, "cached embedding in qdrant", "collection", c.collection, "model", model)
	return nil
}

// EnsureCollection creates the collection when missing, or checks that its
// vector size matches when it exists.
func (c *QdrantCache) EnsureCollection(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := c.client.CollectionExists(ctx, c.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", c.collection, "vector_size", c.vectorSize)
		err := c.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return nil
	}

	info, err := c.Info(ctx)
	if err != nil {
		return err
	}
	if info.VectorSize == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if info.VectorSize != c.vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", c.vectorSize, info.VectorSize)
	}

	logger.InfoContext(ctx, "collection validated", "collection", c.collection, "vector_size", c.vectorSize)
	return nil
}

// CollectionInfo contains information about the cache collection.
type CollectionInfo struct {
	VectorSize  int    `json:"vector_size"`
	PointsCount int    `json:"points_count"`
	Status      string `json:"status"`
}

// Info returns the collection's vector size, point count and status.
func (c *QdrantCache) Info(ctx context.Context) (*CollectionInfo, error) {
	info, err := c.client.GetCollectionInfo(ctx, c.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	result := &CollectionInfo{Status: "unknown"}
	if config := info.GetConfig(); config != nil && config.GetParams() != nil {
		if params := config.GetParams().GetVectorsConfig().GetParams(); params != nil {
			result.VectorSize = int(params.GetSize())
		}
	}
	if info.PointsCount != nil {
		result.PointsCount = int(*info.PointsCount)
	}
	if info.Status != 0 {
		result.Status = info.Status.String()
	}
	return result, nil
}

// Close releases the gRPC connection.
func (c *QdrantCache) Close() error {
	return c.client.Close()
}

func denseVector(point *qdrant.RetrievedPoint) []float64 {
	out := point.GetVectors().GetVector()
	if out == nil {
		return nil
	}

	data := out.GetData()
	if dense := out.GetDense(); dense != nil {
		data = dense.GetData()
	}

	vector := make([]float64, len(data))
	for i, v := range data {
		vector[i] = float64(v)
	}
	return vector
}
