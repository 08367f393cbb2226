// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratadaily/internal/app/system/fstree"
	"github.com/dalemusser/stratadaily/internal/app/system/mailer"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler, and Shutdown.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// FileStorage holds uploaded songs.
	FileStorage storage.Store

	// Mailer sends password reset emails.
	Mailer *mailer.Mailer

	// Tree is the single explorer engine. HTTP handlers and the reconcile
	// job must share it so they share its per-tree locks.
	Tree *fstree.Engine
}
