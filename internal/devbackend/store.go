package devbackend

import (
	"sync"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/wb-go/wbf/helpers"
)

type storedFile struct {
	contentType string
	data        []byte
}

// MemStore keeps "processed" images in memory for the lifetime of the process
type MemStore struct {
	mu    sync.RWMutex
	files map[string]storedFile
}

func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string]storedFile)}
}

// Put stores a copy of data and returns its id with the extension of the format.
func (s *MemStore) Put(data []byte, contentType string, f model.Format) string {
	id := helpers.CreateUUID() + extensions[f]
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = storedFile{contentType: contentType, data: cp}
	return id
}

func (s *MemStore) Get(id string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, "", ErrFileNotFound
	}
	return f.data, f.contentType, nil
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

var extensions = map[model.Format]string{
	model.FormatJPEG: ".jpg",
	model.FormatPNG:  ".png",
	model.FormatWebP: ".webp",
	model.FormatGIF:  ".gif",
}

var contentTypes = map[model.Format]string{
	model.FormatJPEG: "image/jpeg",
	model.FormatPNG:  "image/png",
	model.FormatWebP: "image/webp",
	model.FormatGIF:  "image/gif",
}
