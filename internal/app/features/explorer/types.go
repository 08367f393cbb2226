package explorer

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/dalemusser/stratadaily/internal/app/system/fstree"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParentRef is an optional folder reference in a request body. JSON null
// and "" mean the root level. Set is false when the field is absent.
type ParentRef struct {
	Set bool
	ID  *primitive.ObjectID
	raw string
}

// UnmarshalJSON implements json.Unmarshaler. Malformed IDs are kept for
// Validate to report.
func (p *ParentRef) UnmarshalJSON(b []byte) error {
	p.Set = true
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	p.raw = s
	if id, err := primitive.ObjectIDFromHex(s); err == nil {
		p.ID = &id
	}
	return nil
}

// validRef is an ozzo rule rejecting a ParentRef that named a malformed ID.
var validRef = validation.By(func(v interface{}) error {
	p, _ := v.(ParentRef)
	if p.raw != "" && p.ID == nil {
		return validation.NewError("validation_parent_id", "must be a valid folder id")
	}
	return nil
})

type createFolderRequest struct {
	Name     string    `json:"name"`
	ParentID ParentRef `json:"parentId"`
}

// Validate trims the name and checks the request.
func (r *createFolderRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, fstree.MaxNameLength)),
		validation.Field(&r.ParentID, validRef),
	)
}

type renameFolderRequest struct {
	Name string `json:"name"`
}

func (r *renameFolderRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, fstree.MaxNameLength)),
	)
}

type createFileRequest struct {
	Name        string    `json:"name"`
	ParentID    ParentRef `json:"parentId"`
	Data        string    `json:"data"`
	ContentType string    `json:"contentType"`
}

func (r *createFileRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, fstree.MaxNameLength)),
		validation.Field(&r.ParentID, validRef),
		validation.Field(&r.ContentType, validation.Length(0, 255)),
	)
}

type updateFileRequest struct {
	Name *string `json:"name"`
	Data *string `json:"data"`
}

func (r *updateFileRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.RuneLength(1, fstree.MaxNameLength)),
	)
}

type moveRequest struct {
	ParentID ParentRef `json:"parentId"`
}

func (r moveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ParentID, validation.By(func(interface{}) error {
			if !r.ParentID.Set {
				return validation.NewError("validation_parent_required", "is required; use null for the root level")
			}
			return nil
		}), validRef),
	)
}
