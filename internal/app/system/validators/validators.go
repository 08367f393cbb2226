// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Collections are created up front so multi-document transactions
	// never have to create one implicitly.
	ensure("users", usersSchema())
	ensure("folders", foldersSchema())
	ensure("files", filesSchema())
	for _, coll := range []string{
		"todos", "projects", "events", "expenses", "budgets",
		"bookmarks", "songs", "playlists",
		"password_resets", "oauth_states", "login_attempts",
	} {
		ensure(coll, nil)
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

// matchesCommandErr reports whether err is a server command error with the
// given code, or any error whose message contains one of the phrases.
// DocumentDB and older servers do not always set codes.
func matchesCommandErr(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return matchesCommandErr(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return matchesCommandErr(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return matchesCommandErr(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email"},
			"properties": bson.M{
				"name":           bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":          bson.M{"bsonType": "string", "minLength": 3},
				"password_hash":  bson.M{"bsonType": bson.A{"string", "null"}},
				"is_third_party": bson.M{"bsonType": "bool"},
				"labels":         bson.M{"bsonType": "array"},
			},
		},
	}
}

// nodeProperties are the fields folders and files share.
func nodeProperties() bson.M {
	return bson.M{
		"name":      bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
		"name_ci":   bson.M{"bsonType": "string"},
		"owner_id":  bson.M{"bsonType": "objectId"},
		"parent_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
		"deleted":   bson.M{"bsonType": "bool"},
	}
}

func foldersSchema() bson.M {
	props := nodeProperties()
	props["items"] = bson.M{
		"bsonType": "array",
		"items": bson.M{
			"bsonType": "object",
			"required": bson.A{"item_type", "item_id"},
			"properties": bson.M{
				"item_type": bson.M{"enum": bson.A{string(models.ItemFolder), string(models.ItemFile)}},
				"item_id":   bson.M{"bsonType": "objectId"},
			},
		},
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   bson.A{"name", "owner_id", "deleted", "items"},
			"properties": props,
		},
	}
}

func filesSchema() bson.M {
	props := nodeProperties()
	props["data"] = bson.M{"bsonType": "string"}
	props["size"] = bson.M{"bsonType": bson.A{"int", "long"}}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   bson.A{"name", "owner_id", "deleted"},
			"properties": props,
		},
	}
}
