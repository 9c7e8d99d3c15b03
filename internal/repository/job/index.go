package job

import (
	"github.com/campusworks/jobwire/internal/db"
)

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// buildIndex defines the FT index over job documents. Only records that carry
// a $.embedding array are reachable through the vector field.
func buildIndex(prefix string, vectorDim int, hnsw HNSWConfig) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        indexName(prefix),
		StorageType: db.StorageJSON,
		Prefixes:    []string{keyPrefix(prefix)},
		Fields: []db.IndexField{
			{Name: "$.title", Alias: "title", Type: db.IndexFieldText},
			{Name: "$.status", Alias: "status", Type: db.IndexFieldTag},
			{
				Name:              "$.embedding",
				Alias:             "embedding",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           hnsw.M,
				VectorEFConstruct: hnsw.EFConstruct,
			},
		},
	}
}
