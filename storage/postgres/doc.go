// Package postgres implements the storage interfaces on PostgreSQL with the
// pgvector extension.
//
// Open connects through a pgx connection pool, retrying while the server
// comes up, and applies the schema before returning:
//
//	store, err := postgres.Open(ctx, os.Getenv("DATABASE_URL"))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
// Chunk embeddings are stored in an unsized vector column so the store works
// with any embedding model.
package postgres
