package wire

import (
	"encoding/json"

	"framecast/internal/domain/media"
)

// CatalogEntry is the viewer-facing description of one title.
type CatalogEntry struct {
	ID         media.VideoID `json:"id"`
	Title      string        `json:"title"`
	Name       string        `json:"name"`
	Size       int64         `json:"size"`
	ModifiedAt int64         `json:"modifiedAt"`
}

// CatalogEntries converts library videos into catalog entries, preserving order.
func CatalogEntries(videos []media.Video) []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(videos))
	for _, v := range videos {
		entries = append(entries, CatalogEntry{
			ID:         v.ID,
			Title:      v.Title(),
			Name:       v.Name,
			Size:       v.Size,
			ModifiedAt: v.ModifiedAt.Unix(),
		})
	}
	return entries
}

// EncodeCatalog renders the catalog sent at the start of every session.
func EncodeCatalog(videos []media.Video) ([]byte, error) {
	return json.Marshal(CatalogEntries(videos))
}

// DecodeCatalog parses a catalog payload.
func DecodeCatalog(data []byte) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
