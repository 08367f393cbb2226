package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Song is an uploaded audio file. StoragePath is the key in the storage
// backend; SongURL is the client-facing URL derived from it.
type Song struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"song_name" json:"songName"`
	SongURL      string             `bson:"song_url" json:"songUrl"`
	StoragePath  string             `bson:"storage_path" json:"-"`
	SongImageURL string             `bson:"song_image_url" json:"songImageUrl"`
	Metadata     SongMetadata       `bson:"metadata" json:"metadata"`
	CreatedBy    primitive.ObjectID `bson:"created_by" json:"createdBy"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

// SongMetadata describes the uploaded object.
type SongMetadata struct {
	OriginalName string `bson:"original_name" json:"originalName"`
	ContentType  string `bson:"content_type" json:"contentType"`
	Size         int64  `bson:"size" json:"size"`
}

// Playlist is a named, ordered set of songs.
type Playlist struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name      string               `bson:"play_list_name" json:"playListName"`
	NameCI    string               `bson:"play_list_name_ci" json:"-"`
	Songs     []primitive.ObjectID `bson:"songs" json:"songs"`
	CreatedBy primitive.ObjectID   `bson:"created_by" json:"createdBy"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
}
