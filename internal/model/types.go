package model

// Photo is one metadata row of the photos table.
// The partition key is AlbumID and the sort key is ItemCreatedAt (epoch seconds).
type Photo struct {
	AlbumID       string `json:"albumId" dynamodbav:"AlbumId"`
	ItemCreatedAt int64  `json:"itemCreatedAt" dynamodbav:"ItemCreatedAt"`
	PhotoID       string `json:"id" dynamodbav:"PhotoId"`
	PhotoURL      string `json:"url" dynamodbav:"PhotoUrl"`
	PhotoTitle    string `json:"title,omitempty" dynamodbav:"PhotoTitle"`
	AlbumName     string `json:"albumName,omitempty" dynamodbav:"AlbumName,omitempty"`
	PhotoOrder    int    `json:"order,omitempty" dynamodbav:"PhotoOrder,omitempty"`
	PhotoWidth    int    `json:"width,omitempty" dynamodbav:"PhotoWidth,omitempty"`
	PhotoHeight   int    `json:"height,omitempty" dynamodbav:"PhotoHeight,omitempty"`
}

// Key returns the composite key of the row.
func (p Photo) Key() PhotoKey {
	return PhotoKey{AlbumID: p.AlbumID, ItemCreatedAt: p.ItemCreatedAt, PhotoID: p.PhotoID}
}

// PhotoKey locates a metadata row (AlbumID, ItemCreatedAt) and its image object (PhotoID).
type PhotoKey struct {
	AlbumID       string `json:"albumId"`
	ItemCreatedAt int64  `json:"itemCreatedAt"`
	PhotoID       string `json:"photoId"`
}

// KeyRow is a row projected to its key attributes as returned by the store.
// Nil fields mean the attribute was absent from the stored item.
type KeyRow struct {
	AlbumID       *string `dynamodbav:"AlbumId"`
	ItemCreatedAt *int64  `dynamodbav:"ItemCreatedAt"`
	PhotoID       *string `dynamodbav:"PhotoId"`
}

// DeleteRequest is the body of a delete-photos call.
type DeleteRequest struct {
	AlbumID  string   `json:"albumId"`
	PhotoIDs []string `json:"photoIds"`
}

// DeleteOutcome reports whether both the row and the object of one photo were deleted.
type DeleteOutcome struct {
	Success bool `json:"success"`
}

// UploadItem is one image in an upload request.
type UploadItem struct {
	ImageBase64 string `json:"imageBase64"`
	Title       string `json:"title,omitempty"`
}

// UploadRequest is the body of an upload-photos call.
type UploadRequest struct {
	Photos []UploadItem `json:"photos"`
}

// UploadResult reports the outcome of storing one uploaded image.
type UploadResult struct {
	ID      string `json:"id,omitempty"`
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Success bool   `json:"success"`
}

// ListPhotosRequest captures paging parameters for album and photo-id listings.
type ListPhotosRequest struct {
	AlbumID string
	PhotoID string
	Limit   int
	Cursor  string
}

// PageMeta describes a page of photos.
type PageMeta struct {
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

// PhotoPage is a page of photos with its paging metadata.
type PhotoPage struct {
	Photos []Photo  `json:"photos"`
	Meta   PageMeta `json:"meta"`
}
