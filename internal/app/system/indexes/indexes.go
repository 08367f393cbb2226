// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

The token collections (password resets, oauth states, login attempts) carry
TTL indexes so expired documents go away even if the cleanup jobs stop.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"folders", ensureFolders},
		{"files", ensureFiles},
		{"todos", ensureTodos},
		{"projects", ensureProjects},
		{"events", ensureEvents},
		{"expenses", ensureExpenses},
		{"budgets", ensureBudgets},
		{"bookmarks", ensureBookmarks},
		{"songs", ensureSongs},
		{"playlists", ensurePlaylists},
		{"password_resets", ensurePasswordResets},
		{"oauth_states", ensureOAuthStates},
		{"login_attempts", ensureLoginAttempts},
	}
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))

		// 1) Load existing indexes
		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			defer cur.Close(ctx)
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
		}

		if ex, ok := existing[desiredSig]; ok {
			// Same key pattern exists already.
			if sameBoolPtr(desiredUnique, ex.Unique) {
				// Names aligned (or we don't care) → reuse
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.Bool("unique", ex.Unique != nil && *ex.Unique),
					zap.String("took", time.Since(start).String()))
				continue
			}

			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
					errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
				} else {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				}
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()))
			continue
		}

		// 2) No existing index with the same keys: create it.
		if created, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				zap.L().Warn("index ensure failed (options conflict)",
					zap.String("collection", coll.Name()),
					zap.String("name", desiredName),
					zap.String("keys", desiredSig),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				continue
			}

			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		} else {
			zap.L().Info("index ensured",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("created_name", created),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email is the login identifier (stored lowercase)
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
	})
}

func ensureFolders(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("folders")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Listing an owner's folders at one level (root or a parent), by name.
		// Names are not unique within a parent.
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "parent_id", Value: 1},
				{Key: "deleted", Value: 1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_folder_owner_parent_deleted_name"),
		},
		// Cascade worklist: children of a set of parents
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}},
			Options: options.Index().SetName("idx_folder_parent"),
		},
		// Containment lookups by referenced child
		{
			Keys:    bson.D{{Key: "items.item_id", Value: 1}},
			Options: options.Index().SetName("idx_folder_items_item"),
		},
	})
}

func ensureFiles(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("files")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "parent_id", Value: 1},
				{Key: "deleted", Value: 1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_file_owner_parent_deleted_name"),
		},
		// Cascade: bulk flag/delete by parent
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}},
			Options: options.Index().SetName("idx_file_parent"),
		},
	})
}

func ensureTodos(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("todos")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Date-window filters (today, this week, ranges)
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "due_date", Value: 1},
			},
			Options: options.Index().SetName("idx_todo_owner_due"),
		},
	})
}

func ensureProjects(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("projects")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_project_owner_created"),
		},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Calendar overlap queries
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "start_date", Value: 1},
				{Key: "end_date", Value: 1},
			},
			Options: options.Index().SetName("idx_event_owner_start_end"),
		},
	})
}

func ensureExpenses(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("expenses")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Range listings and aggregations
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "date", Value: -1},
			},
			Options: options.Index().SetName("idx_expense_owner_date"),
		},
	})
}

func ensureBudgets(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("budgets")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One budget per user per month
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "month", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_budget_owner_month"),
		},
	})
}

func ensureBookmarks(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("bookmarks")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// A user bookmarks a URL once
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "url", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_bookmark_owner_url"),
		},
		// Paged listing, newest first
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_bookmark_owner_created"),
		},
	})
}

func ensureSongs(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("songs")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_song_owner_created"),
		},
	})
}

func ensurePlaylists(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("playlists")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Playlist names are unique per user (folded)
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "play_list_name_ci", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_playlist_owner_name"),
		},
		// Pull a deleted song from every playlist
		{
			Keys:    bson.D{{Key: "songs", Value: 1}},
			Options: options.Index().SetName("idx_playlist_songs"),
		},
	})
}

func ensurePasswordResets(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("password_resets")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_reset_user"),
		},
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_reset_token_hash"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_reset_expires"),
		},
	})
}

func ensureOAuthStates(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("oauth_states")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_oauth_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_oauth_state_expires"),
		},
	})
}

func ensureLoginAttempts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("login_attempts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_login_attempts_email"),
		},
		// A day after the last failure
		{
			Keys:    bson.D{{Key: "last_attempt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(86400).SetName("ttl_login_attempts"),
		},
	})
}
