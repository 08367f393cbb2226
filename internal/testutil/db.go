// Package testutil holds shared test helpers: a per-test MongoDB database
// with production indexes, request builders and response assertions.
package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoURIEnv overrides the test server address.
const MongoURIEnv = "STRATADAILY_TEST_MONGO_URI"

const defaultMongoURI = "mongodb://localhost:27017"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

func sharedClient() (*mongo.Client, error) {
	clientOnce.Do(func() {
		uri := os.Getenv(MongoURIEnv)
		if uri == "" {
			uri = defaultMongoURI
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, clientErr = mongo.Connect(ctx, options.Client().
			ApplyURI(uri).
			SetMaxPoolSize(100).
			SetServerSelectionTimeout(5*time.Second))
		if clientErr == nil {
			clientErr = client.Ping(ctx, nil)
		}
	})
	return client, clientErr
}

// SetupTestDB gives the test its own empty database with every index
// created, and drops it when the test ends. Tests are skipped when no
// MongoDB server is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := sharedClient()
	if err != nil {
		t.Skipf("mongodb unavailable (set %s): %v", MongoURIEnv, err)
	}

	db := c.Database(dbNameFor(t.Name()))
	ctx, cancel := TestContext()
	defer cancel()

	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop test database: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop test database on cleanup: %v", err)
		}
	})
	return db
}

// dbNameFor maps a test name to a database name under MongoDB's 63 byte
// limit. The hash keeps names unique when the readable part is cut.
func dbNameFor(testName string) string {
	h := fnv.New32a()
	h.Write([]byte(testName))

	readable := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, testName)
	if len(readable) > 40 {
		readable = readable[:40]
	}
	return fmt.Sprintf("sdtest_%s_%08x", readable, h.Sum32())
}

// TestContext bounds one test's database work.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
